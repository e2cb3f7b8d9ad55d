package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/logging"
	"github.com/dmitrijs2005/chanakya/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const testWebhookSecret = "whsec_test"

func billingConfig() *config.Config {
	return &config.Config{
		SecretKey:                   testSecret,
		AccessTokenValidityDuration: time.Hour,
		StripeSecretKey:             "sk_test_123",
		StripeWebhookSecret:         testWebhookSecret,
		StripePriceMonthly:          "price_monthly",
		StripePriceYearly:           "price_yearly",
		FrontendURL:                 "https://chanakya.app/",
	}
}

func newBilling(m *fakeManager, cfg *config.Config) *BillingService {
	return NewBillingService(NewUserService(m, cfg, logging.Nop()), cfg, logging.Nop())
}

func stubStripeSessions(t *testing.T, create func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error), get func(string) (*stripe.CheckoutSession, error)) {
	t.Helper()
	oldNew, oldGet := newCheckoutSession, getCheckoutSession
	t.Cleanup(func() { newCheckoutSession, getCheckoutSession = oldNew, oldGet })
	newCheckoutSession = func(_ string, p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		return create(p)
	}
	getCheckoutSession = func(_ string, id string) (*stripe.CheckoutSession, error) {
		return get(id)
	}
}

func signedEvent(t *testing.T, secret, eventType, object string) ([]byte, string) {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","api_version":"2024-06-20","type":%q,"data":{"object":%s}}`, eventType, object))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestBilling_CheckoutCarriesAccountAndPrice(t *testing.T) {
	var got *stripe.CheckoutSessionParams
	stubStripeSessions(t,
		func(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
			got = p
			return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}, nil
		},
		nil,
	)

	u := freeUser("a@b.c")
	svc := newBilling(newFakeManager(u), billingConfig())

	co, err := svc.Checkout(context.Background(), u, PlanPremiumYearly)
	require.NoError(t, err)
	assert.Equal(t, &Checkout{SessionID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}, co)

	require.NotNil(t, got)
	assert.Equal(t, "a@b.c", *got.ClientReferenceID)
	assert.Equal(t, "price_yearly", *got.LineItems[0].Price)
	assert.Equal(t, "a@b.c", got.SubscriptionData.Metadata["email"])
	assert.Equal(t, "https://chanakya.app/billing/cancel", *got.CancelURL)
}

func TestBilling_CheckoutErrors(t *testing.T) {
	u := freeUser("a@b.c")

	cfg := billingConfig()
	cfg.StripeSecretKey = ""
	_, err := newBilling(newFakeManager(u), cfg).Checkout(context.Background(), u, "")
	assert.ErrorIs(t, err, common.ErrBillingDisabled)

	_, err = newBilling(newFakeManager(u), billingConfig()).Checkout(context.Background(), u, "lifetime")
	assert.ErrorIs(t, err, common.ErrValidation)

	stubStripeSessions(t,
		func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) { return nil, errors.New("card_declined") },
		nil,
	)
	_, err = newBilling(newFakeManager(u), billingConfig()).Checkout(context.Background(), u, PlanPremiumMonthly)
	assert.ErrorContains(t, err, "card_declined")
}

func TestBilling_ConfirmRequiresPaidOwnSession(t *testing.T) {
	sessions := map[string]*stripe.CheckoutSession{
		"cs_paid":   {ID: "cs_paid", ClientReferenceID: "a@b.c", Status: stripe.CheckoutSessionStatusComplete, PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid},
		"cs_open":   {ID: "cs_open", ClientReferenceID: "a@b.c", Status: stripe.CheckoutSessionStatusOpen, PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid},
		"cs_others": {ID: "cs_others", ClientReferenceID: "z@b.c", Status: stripe.CheckoutSessionStatusComplete, PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid},
	}
	stubStripeSessions(t, nil, func(id string) (*stripe.CheckoutSession, error) {
		if s, ok := sessions[id]; ok {
			return s, nil
		}
		return nil, errors.New("no such checkout.session")
	})

	tests := []struct {
		name      string
		sessionID string
		wantErr   error
	}{
		{name: "unpaid", sessionID: "cs_open", wantErr: common.ErrPaymentNotVerified},
		{name: "someone else's session", sessionID: "cs_others", wantErr: common.ErrPaymentNotVerified},
		{name: "missing id", sessionID: "", wantErr: common.ErrValidation},
		{name: "unknown session", sessionID: "cs_nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := freeUser("a@b.c")
			m := newFakeManager(u)

			_, err := newBilling(m, billingConfig()).Confirm(context.Background(), u, tt.sessionID)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.False(t, m.users.get("a@b.c").HasPremiumSubscription)
		})
	}

	u := freeUser("a@b.c")
	m := newFakeManager(u)
	got, err := newBilling(m, billingConfig()).Confirm(context.Background(), u, "cs_paid")
	require.NoError(t, err)
	assert.True(t, got.HasPremiumSubscription)
	assert.Equal(t, common.SubscriptionPremium, m.users.get("a@b.c").SubscriptionStatus)
}

func TestBilling_WebhookCompletedCheckoutUpgrades(t *testing.T) {
	u := freeUser("a@b.c")
	m := newFakeManager(u)
	svc := newBilling(m, billingConfig())

	payload, sig := signedEvent(t, testWebhookSecret, "checkout.session.completed",
		`{"id":"cs_1","object":"checkout.session","client_reference_id":"a@b.c","status":"complete","payment_status":"paid"}`)

	require.NoError(t, svc.HandleWebhook(context.Background(), payload, sig))
	assert.True(t, m.users.get("a@b.c").HasPremiumSubscription)
}

func TestBilling_WebhookUnpaidCheckoutIsIgnored(t *testing.T) {
	u := freeUser("a@b.c")
	m := newFakeManager(u)
	svc := newBilling(m, billingConfig())

	payload, sig := signedEvent(t, testWebhookSecret, "checkout.session.completed",
		`{"id":"cs_1","object":"checkout.session","client_reference_id":"a@b.c","status":"complete","payment_status":"unpaid"}`)

	require.NoError(t, svc.HandleWebhook(context.Background(), payload, sig))
	assert.False(t, m.users.get("a@b.c").HasPremiumSubscription)
}

func TestBilling_WebhookSubscriptionDeletedDowngrades(t *testing.T) {
	u := premiumUser("a@b.c")
	m := newFakeManager(u)
	svc := newBilling(m, billingConfig())

	payload, sig := signedEvent(t, testWebhookSecret, "customer.subscription.deleted",
		`{"id":"sub_1","object":"subscription","metadata":{"email":"a@b.c"}}`)

	require.NoError(t, svc.HandleWebhook(context.Background(), payload, sig))
	assert.False(t, m.users.get("a@b.c").HasPremiumSubscription)
	assert.Equal(t, common.SubscriptionFree, m.users.get("a@b.c").SubscriptionStatus)
}

func TestBilling_WebhookRejectsForgedSignature(t *testing.T) {
	u := freeUser("a@b.c")
	m := newFakeManager(u)
	svc := newBilling(m, billingConfig())

	payload, sig := signedEvent(t, "whsec_attacker", "checkout.session.completed",
		`{"id":"cs_1","object":"checkout.session","client_reference_id":"a@b.c","status":"complete","payment_status":"paid"}`)

	err := svc.HandleWebhook(context.Background(), payload, sig)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
	assert.False(t, m.users.get("a@b.c").HasPremiumSubscription)
}

func TestBilling_WebhookUnknownAccountIsAcknowledged(t *testing.T) {
	svc := newBilling(newFakeManager(), billingConfig())

	payload, sig := signedEvent(t, testWebhookSecret, "checkout.session.completed",
		`{"id":"cs_1","object":"checkout.session","client_reference_id":"ghost@b.c","status":"complete","payment_status":"paid"}`)

	assert.NoError(t, svc.HandleWebhook(context.Background(), payload, sig))
}
