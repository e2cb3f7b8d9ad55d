// Package httpapi exposes the services over the JSON HTTP API consumed by the
// web client.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/logging"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/dmitrijs2005/chanakya/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Accounts interface {
	Register(ctx context.Context, name, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Downgrade(ctx context.Context, email string) (*models.User, error)
}

type Chat interface {
	Converse(ctx context.Context, user *models.User, req services.ChatRequest) *services.ChatReply
}

type Itineraries interface {
	Generate(ctx context.Context, user *models.User, turns []models.Turn) (*services.GenerationResult, error)
	List(ctx context.Context, email string) ([]models.Summary, error)
	Get(ctx context.Context, email, id string) (*services.ItineraryView, error)
	Delete(ctx context.Context, email, id string) error
}

type Exporter interface {
	Export(ctx context.Context, email, id string) (*services.Export, error)
}

// Billing upgrades accounts only against a verified Stripe payment.
type Billing interface {
	Checkout(ctx context.Context, user *models.User, planID string) (*services.Checkout, error)
	Confirm(ctx context.Context, user *models.User, sessionID string) (*models.User, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// Provider reports whether the completion provider has credentials.
type Provider interface {
	Configured() bool
}

type Server struct {
	accounts    Accounts
	chat        Chat
	itineraries Itineraries
	exporter    Exporter
	billing     Billing
	provider    Provider
	logger      logging.Logger
	now         func() time.Time
}

func NewServer(a Accounts, c Chat, it Itineraries, e Exporter, b Billing, p Provider, l logging.Logger) *Server {
	return &Server{
		accounts:    a,
		chat:        c,
		itineraries: it,
		exporter:    e,
		billing:     b,
		provider:    p,
		logger:      l.With("module", "http"),
		now:         time.Now,
	}
}

// Router builds the gin engine with every route mounted under /api.
func (s *Server) Router(corsOrigins []string) *gin.Engine {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", common.AuthorizationHeaderName, common.RequestIDHeaderName},
		ExposeHeaders:    []string{common.RequestIDHeaderName},
		AllowCredentials: !containsWildcard(corsOrigins),
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	api.GET("/health", s.health)
	api.GET("/subscription-plans", s.subscriptionPlans)
	api.POST("/signup", s.signup)
	api.POST("/signin", s.signin)
	api.POST("/stripe/webhook", s.stripeWebhook)

	protected := api.Group("")
	protected.Use(s.authenticate())
	protected.GET("/me", s.me)
	protected.POST("/chat-conversation", s.chatConversation)
	protected.POST("/generate-itinerary", s.generateItinerary)
	protected.GET("/my-itineraries", s.myItineraries)
	protected.GET("/itinerary/:id", s.getItinerary)
	protected.DELETE("/itinerary/:id", s.deleteItinerary)
	protected.GET("/itinerary/:id/export", s.exportItinerary)
	protected.GET("/subscription-status", s.subscriptionStatus)
	protected.POST("/create-checkout-session", s.createCheckoutSession)
	protected.POST("/upgrade-subscription", s.upgradeSubscription)
	protected.POST("/downgrade-subscription", s.downgradeSubscription)

	return r
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"apiConnected": s.provider.Configured(),
		"message":      "The Modern Chanakya is ready to assist with your travel plans!",
		"timestamp":    s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}
