package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/chanakya/internal/logging"
	"github.com/dmitrijs2005/chanakya/internal/server/llm"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/dmitrijs2005/chanakya/internal/server/prompts"
	"github.com/dmitrijs2005/chanakya/internal/server/quota"
	"github.com/dmitrijs2005/chanakya/internal/server/repositories/repomanager"
	"github.com/samber/lo"
)

// Readiness heuristic for offering itinerary generation.
const (
	ReadyTurnCount     = 12
	ReadyUserTurnCount = 6
)

var ReadyPhrases = []string{"ready to generate", "work my magic", "create your itinerary"}

const (
	ChatLimitReply = "🔒 You've reached your free chat limit! Upgrade to premium for unlimited conversations and premium itinerary features. 💎✨"

	ChatProviderFailureReply = "Hey! 👋 I'd love to help plan your trip to India! Where would you like to visit? From the mountains of Himachal to the beaches of Goa, I can help you discover the perfect destination!"

	ChatFailureReply = "Hey! 👋 Ready to explore incredible India? Kahan jaana hai? Where do you want to go?"
)

type ChatRequest struct {
	SystemPrompt string        `json:"system_prompt"`
	History      []models.Turn `json:"conversation_history"`
	UserName     string        `json:"user_name"`
}

// ChatReply is the body of a chat-conversation response. Optional counters
// are nil in the bare failure reply.
type ChatReply struct {
	Response             string `json:"response"`
	ReadyForItinerary    bool   `json:"ready_for_itinerary"`
	SubscriptionRequired bool   `json:"subscription_required"`
	LimitReached         bool   `json:"limit_reached"`
	MessagesUsed         *int   `json:"messages_used,omitempty"`
	FreeLimit            *int   `json:"free_limit,omitempty"`
	HasPremium           *bool  `json:"has_premium,omitempty"`
}

// FailureReply is returned when the request could not be processed at all.
func FailureReply() *ChatReply {
	return &ChatReply{Response: ChatFailureReply}
}

type ChatService struct {
	repomanager repomanager.RepositoryManager
	completer   llm.Completer
	logger      logging.Logger
}

func NewChatService(m repomanager.RepositoryManager, c llm.Completer, l logging.Logger) *ChatService {
	return &ChatService{repomanager: m, completer: c, logger: l.With("module", "chat")}
}

// Converse produces the assistant's next turn. It never fails: a blocked
// account gets the upsell reply and a provider or store failure gets a canned
// reply without consuming a turn.
func (s *ChatService) Converse(ctx context.Context, user *models.User, req ChatRequest) *ChatReply {
	acct := quota.AccountOf(user)
	used := user.ChatMessagesUsed

	if quota.Decide(quota.OpChatTurn, acct) == quota.BlockChatLimit {
		s.logger.Info(ctx, "chat limit reached", "email", user.Email, "messages_used", used)
		return &ChatReply{
			Response:             ChatLimitReply,
			SubscriptionRequired: true,
			LimitReached:         true,
			MessagesUsed:         lo.ToPtr(used),
			FreeLimit:            lo.ToPtr(quota.FreeChatLimit),
		}
	}

	name := lo.CoalesceOrEmpty(req.UserName, user.Name)
	prompt := prompts.Conversational(req.SystemPrompt, req.History, name, acct.HasPremium)

	reply, err := s.completer.Complete(ctx, prompt, llm.ConversationOptions)
	if err == nil && quota.CountsChatTurns(acct) {
		used, err = s.repomanager.Users().IncrementChatMessages(ctx, user.Email)
	}
	if err != nil {
		s.logger.Warn(ctx, "chat turn failed, sending canned reply", "email", user.Email, "error", err)
		return s.reply(ChatProviderFailureReply, false, acct.HasPremium, user.ChatMessagesUsed)
	}

	reply = strings.TrimSpace(reply)
	return s.reply(reply, IsReadyForItinerary(req.History, reply), acct.HasPremium, used)
}

func (s *ChatService) reply(text string, ready, premium bool, used int) *ChatReply {
	if premium {
		used = -1
	}
	return &ChatReply{
		Response:          text,
		ReadyForItinerary: ready,
		MessagesUsed:      lo.ToPtr(used),
		FreeLimit:         lo.ToPtr(quota.FreeChatLimit),
		HasPremium:        lo.ToPtr(premium),
	}
}

// IsReadyForItinerary reports whether the conversation has gathered enough to
// offer generation: a long enough transcript, enough user answers, or the
// assistant saying so in reply.
func IsReadyForItinerary(history []models.Turn, reply string) bool {
	if len(history) >= ReadyTurnCount {
		return true
	}
	if len(prompts.UserAnswers(history)) >= ReadyUserTurnCount {
		return true
	}
	lower := strings.ToLower(reply)
	return lo.SomeBy(ReadyPhrases, func(p string) bool { return strings.Contains(lower, p) })
}
