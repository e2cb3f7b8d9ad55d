package services

import "github.com/dmitrijs2005/chanakya/internal/server/models"

const (
	fallbackHeroImageURL = "https://images.unsplash.com/photo-1524492412937-b28074a5d7da?w=1600&h=900&fit=crop"
	fallbackDestination  = "India"
)

// FallbackItinerary is the fixed one-day plan served when the provider fails
// or its reply cannot be parsed. It is never persisted.
func FallbackItinerary(destination string) map[string]any {
	name := destination
	if name == "" || name == models.NotSpecified {
		name = fallbackDestination
	}

	return map[string]any{
		"hero_image_url":     fallbackHeroImageURL,
		"destination_name":   name,
		"personalized_title": "Your " + name + " Adventure",
		"trip_overview": map[string]any{
			"destination_insights":  "Experience the beauty and culture of India with this sample itinerary.",
			"weather_during_visit":  "Please check current weather forecasts before traveling.",
			"seasonal_context":      "India's climate varies significantly by region and season.",
			"local_customs_to_know": []string{"Remove shoes before entering temples", "Dress modestly at religious sites"},
		},
		"daily_itinerary": []map[string]any{
			{
				"date":       "Day 1",
				"day_number": "Day 1",
				"theme":      "Exploring the Local Culture",
				"breakfast":  meal("Local Restaurant", "Traditional Indian Breakfast", "₹200-300"),
				"morning_activities": []map[string]any{
					activity("Visit a Local Landmark", "City Center", "2 hours"),
				},
				"lunch": meal("Authentic Indian Restaurant", "Regional Thali", "₹400-600"),
				"afternoon_activities": []map[string]any{
					activity("Cultural Tour", "Heritage Area", "3 hours"),
				},
				"dinner": meal("Premium Dining Experience", "Chef's Special", "₹800-1200"),
			},
		},
		"practical_tips": []string{
			"Stay hydrated, especially during summer months",
			"Always carry some cash as not all places accept cards",
		},
	}
}

func meal(restaurant, dish, cost string) map[string]any {
	return map[string]any{"restaurant": restaurant, "dish": dish, "estimated_cost": cost}
}

func activity(name, location, duration string) map[string]any {
	return map[string]any{"activity": name, "location": location, "duration": duration}
}
