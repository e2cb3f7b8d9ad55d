package models

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"
)

const (
	NotSpecified = "Not specified"

	DefaultHeroImageURL = "https://picsum.photos/800/400"
	unknownDestination  = "Unknown"
)

// TripParams are the free-text answers extracted from the user's turns.
type TripParams struct {
	Destination     string `json:"destination"`
	Dates           string `json:"dates"`
	Travelers       string `json:"travelers"`
	Interests       string `json:"interests"`
	FoodPreferences string `json:"food_preferences"`
	Budget          string `json:"budget"`
	Pace            string `json:"pace"`
}

// Itinerary is a stored plan. Data holds the model's JSON object verbatim;
// its shape is only checked when read through Summary.
type Itinerary struct {
	ID        string
	UserID    string
	UserEmail string
	UserName  string
	Trip      TripParams
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary is the list view of an itinerary.
type Summary struct {
	ID                string    `json:"itinerary_id"`
	Destination       string    `json:"destination"`
	Dates             string    `json:"dates"`
	Travelers         string    `json:"travelers"`
	DestinationName   string    `json:"destination_name"`
	PersonalizedTitle string    `json:"personalized_title"`
	HeroImageURL      string    `json:"hero_image_url"`
	CreatedAt         time.Time `json:"created_at"`
}

// Summary projects the itinerary into its list view, substituting
// placeholders for anything the payload lacks or holds with the wrong type.
func (it *Itinerary) Summary() Summary {
	destination := it.Trip.Destination
	if destination == "" {
		destination = unknownDestination
	}

	return Summary{
		ID:                it.ID,
		Destination:       destination,
		Dates:             it.Trip.Dates,
		Travelers:         it.Trip.Travelers,
		DestinationName:   payloadString(it.Data, "destination_name", destination),
		PersonalizedTitle: payloadString(it.Data, "personalized_title", "Trip to "+destination),
		HeroImageURL:      payloadString(it.Data, "hero_image_url", DefaultHeroImageURL),
		CreatedAt:         it.CreatedAt,
	}
}

func payloadString(data json.RawMessage, path, fallback string) string {
	if len(data) == 0 {
		return fallback
	}
	r := gjson.GetBytes(data, path)
	if r.Type != gjson.String || r.Str == "" {
		return fallback
	}
	return r.Str
}
