// Package prompts renders the text sent to the language model.
package prompts

import (
	"strings"

	"github.com/dmitrijs2005/chanakya/internal/server/models"
)

const defaultUserName = "there"

const conversationGuidelines = `Based on the conversation above, respond as "The Modern Chanakya" with the next appropriate message. 

RESPONSE GUIDELINES:
- Keep responses SHORT and conversational (max 2-3 sentences)
- Ask ONE clear, simple follow-up question
- Use casual, friendly tone with emojis naturally
- Be quick and to the point - like WhatsApp chatting
- Reference their previous answers briefly to show you're listening
- After 5-6 exchanges, if you have destination + dates + basic preferences, indicate readiness to generate itinerary

CONVERSATION FLOW (6-7 questions max):
1. Destination in India (where in Bharat?)
2. Travel dates (when?)  
3. Who's traveling (solo/family/friends?)
4. Main interests (what excites you most?)
5. Food preferences (vegetarian/non-vegetarian/vegan/jain/any specific dietary needs?)
6. Budget range (budget/mid-range/luxury?)
7. Ready to generate if enough info, otherwise ask about pace/special requirements

Keep it snappy and WhatsApp-friendly! No long paragraphs.

IMPORTANT: Keep responses under 100 words. Be conversational, not formal.`

// SubscriptionLabel is how the account tier is described to the model.
func SubscriptionLabel(isPremium bool) string {
	if isPremium {
		return "Premium ✨"
	}
	return "Free (Limited)"
}

// RenderTranscript writes turns as "User:" / "Assistant:" lines in order.
// Turns from any other sender are skipped.
func RenderTranscript(turns []models.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		switch t.Sender {
		case models.SenderUser:
			b.WriteString("User: ")
		case models.SenderSystem:
			b.WriteString("Assistant: ")
		default:
			continue
		}
		b.WriteString(t.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// Conversational builds the prompt for the next chat reply. An empty
// userName is rendered as "there".
func Conversational(systemPrompt string, turns []models.Turn, userName string, isPremium bool) string {
	if strings.TrimSpace(userName) == "" {
		userName = defaultUserName
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(systemPrompt)
	b.WriteString("\n\nCONVERSATION SO FAR:\n")
	b.WriteString(RenderTranscript(turns))
	b.WriteString("\nUSER NAME: ")
	b.WriteString(userName)
	b.WriteString("\nUSER SUBSCRIPTION: ")
	b.WriteString(SubscriptionLabel(isPremium))
	b.WriteString("\n\n")
	b.WriteString(conversationGuidelines)
	return b.String()
}
