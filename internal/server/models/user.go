// Package models defines the records persisted by the server and the typed
// views derived from them.
package models

import (
	"time"

	"github.com/dmitrijs2005/chanakya/internal/common"
)

// User is an account together with its quota state.
//
// HasPremiumSubscription is authoritative over SubscriptionStatus when the
// two disagree.
type User struct {
	ID                     string
	Email                  string
	PasswordHash           string
	Name                   string
	SubscriptionStatus     string
	HasPremiumSubscription bool
	ItinerariesCreated     int
	FreeItineraryUsed      bool
	ChatMessagesUsed       int
	CreatedAt              time.Time
	UpgradedAt             *time.Time
	DowngradedAt           *time.Time
}

// NewUser returns a free-tier account with zeroed counters.
func NewUser(email, name, passwordHash string) *User {
	return &User{
		Email:              email,
		Name:               name,
		PasswordHash:       passwordHash,
		SubscriptionStatus: common.SubscriptionFree,
		CreatedAt:          time.Now().UTC(),
	}
}
