// Package itineraries stores generated plans. Every read and delete is scoped
// to the owner's email so one user can never see another user's itineraries.
package itineraries

import (
	"context"

	"github.com/dmitrijs2005/chanakya/internal/server/models"
)

type Repository interface {
	// Create stores it, assigns its ID and returns that ID.
	Create(ctx context.Context, it *models.Itinerary) (string, error)
	// ListSummaries returns the owner's itineraries, newest first.
	ListSummaries(ctx context.Context, email string) ([]models.Summary, error)
	// Get returns common.ErrInvalidID for malformed ids and common.ErrNotFound
	// when the itinerary is missing or owned by someone else.
	Get(ctx context.Context, email, id string) (*models.Itinerary, error)
	// Delete removes the owner's itinerary and reports how many rows went away.
	Delete(ctx context.Context, email, id string) (int64, error)
}
