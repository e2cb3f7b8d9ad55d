package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/dmitrijs2005/chanakya/internal/server/services"
	"github.com/gin-gonic/gin"
)

const maxWebhookBytes = int64(65536)

func (s *Server) subscriptionPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": services.Plans()})
}

func (s *Server) subscriptionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, services.StatusOf(currentUser(c)))
}

type checkoutRequest struct {
	PlanID string `json:"plan_id"`
}

func (s *Server) createCheckoutSession(c *gin.Context) {
	var req checkoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, "Invalid request")
			return
		}
	}

	co, err := s.billing.Checkout(c.Request.Context(), currentUser(c), req.PlanID)
	if err != nil {
		s.billingError(c, err)
		return
	}
	c.JSON(http.StatusOK, co)
}

type upgradeRequest struct {
	SessionID string `json:"session_id"`
}

// upgradeSubscription activates premium for a checkout session that Stripe
// reports as paid by the caller.
func (s *Server) upgradeSubscription(c *gin.Context) {
	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
		abort(c, http.StatusBadRequest, "session_id is required")
		return
	}

	u, err := s.billing.Confirm(c.Request.Context(), currentUser(c), req.SessionID)
	if err != nil {
		s.billingError(c, err)
		return
	}
	s.subscriptionChanged(c, u, "Successfully upgraded to premium!")
}

func (s *Server) downgradeSubscription(c *gin.Context) {
	u, err := s.accounts.Downgrade(c.Request.Context(), currentUser(c).Email)
	if err != nil {
		s.logger.Error(c.Request.Context(), "subscription change failed", "error", err)
		abort(c, http.StatusInternalServerError, "Failed to update subscription")
		return
	}
	s.subscriptionChanged(c, u, "Subscription downgraded to free.")
}

func (s *Server) subscriptionChanged(c *gin.Context, u *models.User, msg string) {
	c.JSON(http.StatusOK, gin.H{
		"message":      msg,
		"subscription": services.StatusOf(u),
	})
}

func (s *Server) stripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := s.billing.HandleWebhook(c.Request.Context(), body, c.GetHeader("Stripe-Signature")); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidSignature):
			abort(c, http.StatusBadRequest, "signature verification failed")
		case errors.Is(err, common.ErrValidation):
			abort(c, http.StatusBadRequest, "invalid payload")
		case errors.Is(err, common.ErrBillingDisabled):
			abort(c, http.StatusServiceUnavailable, "webhook not configured")
		default:
			s.logger.Error(c.Request.Context(), "stripe webhook failed", "error", err)
			abort(c, http.StatusInternalServerError, "failed to update user")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) billingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrBillingDisabled):
		abort(c, http.StatusServiceUnavailable, "Payments are not configured")
	case errors.Is(err, common.ErrValidation):
		abort(c, http.StatusBadRequest, "Unknown plan")
	case errors.Is(err, common.ErrPaymentNotVerified):
		abort(c, http.StatusPaymentRequired, "Payment not verified")
	default:
		s.logger.Error(c.Request.Context(), "billing failed", "error", err)
		abort(c, http.StatusInternalServerError, "Failed to process payment")
	}
}
