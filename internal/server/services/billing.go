package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/logging"
	sc "github.com/dmitrijs2005/chanakya/internal/server/config"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// emailMetadataKey ties a Stripe subscription back to the account.
const emailMetadataKey = "email"

// Stripe calls, replaced in tests.
var (
	newCheckoutSession = func(key string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		c := session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: key}
		return c.New(params)
	}
	getCheckoutSession = func(key, id string) (*stripe.CheckoutSession, error) {
		c := session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: key}
		return c.Get(id, nil)
	}
)

// Subscriptions flips the premium flag once a payment is verified.
type Subscriptions interface {
	Upgrade(ctx context.Context, email string) (*models.User, error)
	Downgrade(ctx context.Context, email string) (*models.User, error)
}

type Checkout struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// BillingService grants premium only against a paid Stripe checkout.
type BillingService struct {
	subscriptions Subscriptions
	config        *sc.Config
	logger        logging.Logger
}

func NewBillingService(s Subscriptions, cfg *sc.Config, l logging.Logger) *BillingService {
	return &BillingService{subscriptions: s, config: cfg, logger: l.With("module", "billing")}
}

func (s *BillingService) priceFor(planID string) (string, error) {
	switch planID {
	case "", PlanPremiumMonthly:
		return s.config.StripePriceMonthly, nil
	case PlanPremiumYearly:
		return s.config.StripePriceYearly, nil
	}
	return "", common.ErrValidation
}

// Checkout opens a Stripe subscription checkout for planID. The session
// carries the account email as client reference and subscription metadata.
func (s *BillingService) Checkout(ctx context.Context, user *models.User, planID string) (*Checkout, error) {
	if !s.config.BillingEnabled() {
		return nil, common.ErrBillingDisabled
	}
	price, err := s.priceFor(planID)
	if err != nil {
		return nil, err
	}
	if price == "" {
		return nil, common.ErrBillingDisabled
	}

	frontend := strings.TrimRight(s.config.FrontendURL, "/")
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail:     stripe.String(user.Email),
		ClientReferenceID: stripe.String(user.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(price),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{emailMetadataKey: user.Email},
		},
		SuccessURL: stripe.String(frontend + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(frontend + "/billing/cancel"),
	}

	sess, err := newCheckoutSession(s.config.StripeSecretKey, params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}

	s.logger.Info(ctx, "checkout session created", "email", user.Email, "session_id", sess.ID)
	return &Checkout{SessionID: sess.ID, URL: sess.URL}, nil
}

// Confirm upgrades user after re-reading the checkout session from Stripe.
// A session that belongs to someone else or is not paid yields
// common.ErrPaymentNotVerified.
func (s *BillingService) Confirm(ctx context.Context, user *models.User, sessionID string) (*models.User, error) {
	if !s.config.BillingEnabled() {
		return nil, common.ErrBillingDisabled
	}
	if sessionID == "" {
		return nil, common.ErrValidation
	}

	sess, err := getCheckoutSession(s.config.StripeSecretKey, sessionID)
	if err != nil {
		return nil, fmt.Errorf("stripe session lookup: %w", err)
	}
	if sess.ClientReferenceID != user.Email || !paid(sess) {
		s.logger.Warn(ctx, "checkout session not verified", "email", user.Email, "session_id", sessionID,
			"status", sess.Status, "payment_status", sess.PaymentStatus)
		return nil, common.ErrPaymentNotVerified
	}

	return s.subscriptions.Upgrade(ctx, user.Email)
}

func paid(sess *stripe.CheckoutSession) bool {
	if sess.Status != stripe.CheckoutSessionStatusComplete {
		return false
	}
	return sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
}

// HandleWebhook verifies the Stripe-Signature header and applies
// checkout.session.completed and customer.subscription.deleted events.
// Events for unknown accounts are logged and acknowledged.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.config.StripeWebhookSecret == "" {
		return common.ErrBillingDisabled
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.config.StripeWebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.logger.Warn(ctx, "stripe webhook rejected", "error", err)
		return common.ErrInvalidSignature
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("%w: session payload: %v", common.ErrValidation, err)
		}
		if sess.ClientReferenceID == "" || !paid(&sess) {
			s.logger.Info(ctx, "ignoring unpaid checkout session", "session_id", sess.ID)
			return nil
		}
		_, err = s.subscriptions.Upgrade(ctx, sess.ClientReferenceID)
		return s.applied(ctx, err, event.ID, sess.ClientReferenceID)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: subscription payload: %v", common.ErrValidation, err)
		}
		email := sub.Metadata[emailMetadataKey]
		if email == "" {
			s.logger.Warn(ctx, "subscription without account email", "subscription_id", sub.ID)
			return nil
		}
		_, err = s.subscriptions.Downgrade(ctx, email)
		return s.applied(ctx, err, event.ID, email)
	}

	return nil
}

func (s *BillingService) applied(ctx context.Context, err error, eventID, email string) error {
	if errors.Is(err, common.ErrNotFound) {
		s.logger.Warn(ctx, "stripe event for unknown account", "event_id", eventID, "email", email)
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply stripe event %s: %w", eventID, err)
	}
	s.logger.Info(ctx, "stripe event applied", "event_id", eventID, "email", email)
	return nil
}
