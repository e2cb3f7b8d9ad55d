// Package users stores accounts and their quota counters.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/server/models"
)

// Repository persists users keyed by email.
//
// Counter updates are single atomic statements so concurrent requests for
// the same account cannot both consume the free itinerary.
type Repository interface {
	// Create stores a new user and fills in its ID.
	// A taken email yields common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetByEmail yields common.ErrNotFound for unknown emails.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// IncrementChatMessages adds one chat turn and returns the new total.
	IncrementChatMessages(ctx context.Context, email string) (int, error)
	// RecordItinerary bumps itinerariesCreated. With consumeFree it also
	// latches freeItineraryUsed, and fails with common.ErrQuotaExhausted when
	// the latch was already set.
	RecordItinerary(ctx context.Context, email string, consumeFree bool) error
	// SetSubscription switches the account between free and premium,
	// stamping upgradedAt or downgradedAt with at.
	SetSubscription(ctx context.Context, email string, premium bool, at time.Time) (*models.User, error)
}
