package prompts

import (
	"fmt"

	"github.com/dmitrijs2005/chanakya/internal/server/models"
)

// The pace answer is collected but intentionally absent from the profile.
const itineraryTemplate = `
You are 'The Modern Chanakya', an elite, AI-powered travel strategist based in India. 
Create a detailed JSON travel itinerary for the following trip:

**TRAVELER PROFILE:**
- Destination: %[1]s
- Dates: %[2]s
- Travelers: %[3]s
- Food Preferences: %[4]s
- Interests: %[5]s
- Budget: %[6]s

**REQUIRED JSON STRUCTURE:**
{
  "destination_name": "%[1]s",
  "personalized_title": "A catchy title for this trip",
  "hero_image_url": "A high-quality direct image URL that ends with .jpg, .jpeg, .png, or .webp",
  "trip_overview": {
    "destination_insights": "A brief paragraph with local insights",
    "weather_during_visit": "Weather forecast",
    "seasonal_context": "What's special about this season",
    "local_customs_to_know": ["Important customs to know"]
  },
  "daily_itinerary": [
    {
      "date": "YYYY-MM-DD",
      "day_number": "Day 1",
      "theme": "Theme for the day",
      "breakfast": {
        "restaurant": "Restaurant name",
        "dish": "Recommended dish",
        "estimated_cost": "Cost in INR"
      },
      "morning_activities": [
        {
          "activity": "Activity name",
          "location": "Location details",
          "duration": "Recommended time"
        }
      ],
      "lunch": {
        "restaurant": "Restaurant name",
        "dish": "Recommended dish",
        "estimated_cost": "Cost in INR"
      },
      "afternoon_activities": [
        {
          "activity": "Activity name",
          "location": "Location details",
          "duration": "Recommended time"
        }
      ],
      "dinner": {
        "restaurant": "Restaurant name",
        "dish": "Recommended dish",
        "estimated_cost": "Cost in INR"
      }
    }
  ],
  "practical_tips": [
    "Practical tip 1",
    "Practical tip 2"
  ]
}

FINAL REMINDER: You MUST respond ONLY with a valid JSON object. Do NOT include any explanatory text, markdown formatting, or content before or after the JSON. Your response should start with '{' and end with '}' with no other characters outside of those.

IMPORTANT: Valid JSON requires:
1. All keys are double-quoted
2. All string values are double-quoted
3. No trailing commas in arrays or objects
4. No comments
5. No formatting or markdown code blocks
`

// Itinerary builds the generation prompt for p.
func Itinerary(p models.TripParams) string {
	return fmt.Sprintf(itineraryTemplate,
		p.Destination, p.Dates, p.Travelers, p.FoodPreferences, p.Interests, p.Budget)
}
