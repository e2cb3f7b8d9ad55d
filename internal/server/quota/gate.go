// Package quota decides whether an account may take a chat turn or generate
// an itinerary. It only decides; counters are updated by the callers.
package quota

import (
	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
)

// FreeChatLimit is the number of chat turns available without premium.
const FreeChatLimit = 20

type Operation int

const (
	OpChatTurn Operation = iota
	OpGenerateItinerary
)

func (o Operation) String() string {
	switch o {
	case OpChatTurn:
		return "chat_turn"
	case OpGenerateItinerary:
		return "generate_itinerary"
	default:
		return "unknown"
	}
}

type Decision int

const (
	Allow Decision = iota
	BlockChatLimit
	BlockFreeItineraryUsed
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case BlockChatLimit:
		return "block_chat_limit"
	case BlockFreeItineraryUsed:
		return "block_free_itinerary_used"
	default:
		return "unknown"
	}
}

// Account is the slice of user state the gate looks at.
type Account struct {
	HasPremium        bool
	Tier              string
	FreeItineraryUsed bool
	ChatMessagesUsed  int
}

func AccountOf(u *models.User) Account {
	return Account{
		HasPremium:        u.HasPremiumSubscription,
		Tier:              u.SubscriptionStatus,
		FreeItineraryUsed: u.FreeItineraryUsed,
		ChatMessagesUsed:  u.ChatMessagesUsed,
	}
}

// Decide applies the limits for op. An active premium subscription bypasses
// every limit whatever the tier string says.
func Decide(op Operation, acct Account) Decision {
	if acct.HasPremium {
		return Allow
	}

	switch op {
	case OpChatTurn:
		if acct.ChatMessagesUsed >= FreeChatLimit {
			return BlockChatLimit
		}
	case OpGenerateItinerary:
		if acct.Tier == common.SubscriptionFree && acct.FreeItineraryUsed {
			return BlockFreeItineraryUsed
		}
	}
	return Allow
}

// ConsumesFreeItinerary reports whether a successful generation must latch
// the free itinerary rather than only bump the counter.
func ConsumesFreeItinerary(acct Account) bool {
	return !acct.HasPremium && acct.Tier == common.SubscriptionFree
}

// CountsChatTurns reports whether chat turns are metered for acct.
func CountsChatTurns(acct Account) bool {
	return !acct.HasPremium
}
