package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signinRequest follows the OAuth2 password form: the email travels as
// username. JSON bodies are accepted too.
type signinRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func tokenResponse(token string) gin.H {
	return gin.H{"access_token": token, "token_type": common.TokenTypeBearer}
}

func (s *Server) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := s.accounts.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, tokenResponse(token))
	case errors.Is(err, common.ErrAlreadyExists):
		abort(c, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, common.ErrValidation):
		abort(c, http.StatusBadRequest, "Email and password are required")
	default:
		s.logger.Error(c.Request.Context(), "signup failed", "error", err)
		abort(c, http.StatusInternalServerError, "Failed to create account. Please try again.")
	}
}

func (s *Server) signin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBind(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := s.accounts.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, tokenResponse(token))
	case errors.Is(err, common.ErrUnauthorized):
		abort(c, http.StatusBadRequest, "Incorrect email or password")
	case errors.Is(err, common.ErrValidation):
		abort(c, http.StatusBadRequest, "Password is required")
	default:
		s.logger.Error(c.Request.Context(), "signin failed", "error", err)
		abort(c, http.StatusInternalServerError, "Authentication failed. Please try again.")
	}
}

func (s *Server) me(c *gin.Context) {
	u := currentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"name":                     u.Name,
		"email":                    u.Email,
		"subscription_status":      u.SubscriptionStatus,
		"has_premium_subscription": u.HasPremiumSubscription,
		"itineraries_created":      u.ItinerariesCreated,
		"free_itinerary_used":      u.FreeItineraryUsed,
		"chat_messages_used":       u.ChatMessagesUsed,
	})
}
