package services

import (
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/dmitrijs2005/chanakya/internal/server/quota"
)

// SubscriptionStatus is the quota summary shown to the client.
// Remaining counters are -1 when the account is unlimited.
type SubscriptionStatus struct {
	SubscriptionStatus     string `json:"subscription_status"`
	HasPremiumSubscription bool   `json:"has_premium_subscription"`
	ChatMessagesUsed       int    `json:"chat_messages_used"`
	ChatMessagesRemaining  int    `json:"chat_messages_remaining"`
	FreeChatLimit          int    `json:"free_chat_limit"`
	ItinerariesCreated     int    `json:"itineraries_created"`
	FreeItineraryUsed      bool   `json:"free_itinerary_used"`
	CanGenerateItinerary   bool   `json:"can_generate_itinerary"`
	UpgradedAt             string `json:"upgraded_at,omitempty"`
	DowngradedAt           string `json:"downgraded_at,omitempty"`
}

func StatusOf(u *models.User) SubscriptionStatus {
	acct := quota.AccountOf(u)

	st := SubscriptionStatus{
		SubscriptionStatus:     u.SubscriptionStatus,
		HasPremiumSubscription: u.HasPremiumSubscription,
		ChatMessagesUsed:       u.ChatMessagesUsed,
		ChatMessagesRemaining:  -1,
		FreeChatLimit:          quota.FreeChatLimit,
		ItinerariesCreated:     u.ItinerariesCreated,
		FreeItineraryUsed:      u.FreeItineraryUsed,
		CanGenerateItinerary:   quota.Decide(quota.OpGenerateItinerary, acct) == quota.Allow,
	}
	if quota.CountsChatTurns(acct) {
		st.ChatMessagesRemaining = max(quota.FreeChatLimit-u.ChatMessagesUsed, 0)
	}
	if u.UpgradedAt != nil {
		st.UpgradedAt = u.UpgradedAt.Format(timeLayout)
	}
	if u.DowngradedAt != nil {
		st.DowngradedAt = u.DowngradedAt.Format(timeLayout)
	}
	return st
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type Price struct {
	INR float64 `json:"inr"`
	USD float64 `json:"usd"`
}

const (
	PlanPremiumMonthly = "premium_monthly"
	PlanPremiumYearly  = "premium_yearly"
)

type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    Price    `json:"price"`
	Interval string   `json:"interval"`
	Features []string `json:"features"`
}

var premiumFeatures = []string{
	"Unlimited chat conversations",
	"Unlimited itinerary generation",
	"Premium itinerary details",
	"Save and revisit every trip",
}

// Plans is the static premium catalogue.
func Plans() []Plan {
	return []Plan{
		{
			ID:       PlanPremiumMonthly,
			Name:     "Premium Monthly",
			Price:    Price{INR: 299, USD: 3.99},
			Interval: "month",
			Features: premiumFeatures,
		},
		{
			ID:       PlanPremiumYearly,
			Name:     "Premium Yearly",
			Price:    Price{INR: 2499, USD: 29.99},
			Interval: "year",
			Features: append([]string{"Two months free compared to monthly"}, premiumFeatures...),
		},
	}
}
