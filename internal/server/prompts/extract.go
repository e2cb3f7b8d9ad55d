package prompts

import (
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/samber/lo"
)

// UserAnswers returns the text of the user's turns in order.
func UserAnswers(turns []models.Turn) []string {
	userTurns := lo.Filter(turns, func(t models.Turn, _ int) bool {
		return t.Sender == models.SenderUser
	})
	return lo.Map(userTurns, func(t models.Turn, _ int) string {
		return t.Text
	})
}

// ExtractTripParams maps the user's answers onto trip fields by position:
// destination, dates, travelers, interests, food preferences, budget, pace.
// Missing or empty answers become models.NotSpecified.
func ExtractTripParams(turns []models.Turn) models.TripParams {
	answers := UserAnswers(turns)

	at := func(i int) string {
		if i < len(answers) && answers[i] != "" {
			return answers[i]
		}
		return models.NotSpecified
	}

	return models.TripParams{
		Destination:     at(0),
		Dates:           at(1),
		Travelers:       at(2),
		Interests:       at(3),
		FoodPreferences: at(4),
		Budget:          at(5),
		Pace:            at(6),
	}
}
