package services

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/server/models"
)

type UserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ItineraryView is the full stored itinerary as returned to its owner and
// written by export.
type ItineraryView struct {
	ID             string            `json:"itinerary_id"`
	UserInfo       UserInfo          `json:"user_info"`
	TripParameters models.TripParams `json:"trip_parameters"`
	Itinerary      json.RawMessage   `json:"itinerary"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func NewItineraryView(it *models.Itinerary) *ItineraryView {
	data := it.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return &ItineraryView{
		ID:             it.ID,
		UserInfo:       UserInfo{Email: it.UserEmail, Name: it.UserName},
		TripParameters: it.Trip,
		Itinerary:      data,
		CreatedAt:      it.CreatedAt,
		UpdatedAt:      it.UpdatedAt,
	}
}
