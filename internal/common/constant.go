package common

const (
	// AuthorizationHeaderName carries "Bearer <token>" on protected routes.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName is echoed back on every HTTP response.
	RequestIDHeaderName = "X-Request-ID"

	TokenTypeBearer = "bearer"

	SubscriptionFree    = "free"
	SubscriptionPremium = "premium"
)
