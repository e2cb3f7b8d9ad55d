package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/logging"
	"github.com/dmitrijs2005/chanakya/internal/server/llm"
	"github.com/dmitrijs2005/chanakya/internal/server/llmjson"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/dmitrijs2005/chanakya/internal/server/prompts"
	"github.com/dmitrijs2005/chanakya/internal/server/quota"
	"github.com/dmitrijs2005/chanakya/internal/server/repositories/itineraries"
	"github.com/dmitrijs2005/chanakya/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chanakya/internal/server/repositories/users"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFallback
	OutcomeBlocked
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFallback:
		return "fallback"
	case OutcomeBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

const (
	GeneratedMessage = "Your premium itinerary is ready. Every detail has been crafted for your journey."
	FallbackMessage  = "Here's a sample itinerary to get you started. For a fully personalized plan, please try again."
	BlockedMessage   = "You have already used your free itinerary. Please upgrade to premium for unlimited itinerary generation and enhanced features."
)

// GenerationResult is what Generate hands back for every non-error outcome.
// Itinerary is nil when blocked.
type GenerationResult struct {
	Outcome   Outcome
	Itinerary map[string]any
	Message   string
}

type ItineraryService struct {
	repomanager repomanager.RepositoryManager
	completer   llm.Completer
	logger      logging.Logger
	now         func() time.Time
}

func NewItineraryService(m repomanager.RepositoryManager, c llm.Completer, l logging.Logger) *ItineraryService {
	return &ItineraryService{
		repomanager: m,
		completer:   c,
		logger:      l.With("module", "itineraries"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Generate turns a finished conversation into a stored itinerary.
//
// A blocked account never reaches the provider and keeps its counters. A
// provider failure or an unparsable reply yields the fallback plan, which is
// neither stored nor counted. Only store failures are returned as errors.
func (s *ItineraryService) Generate(ctx context.Context, user *models.User, turns []models.Turn) (*GenerationResult, error) {
	acct := quota.AccountOf(user)
	if quota.Decide(quota.OpGenerateItinerary, acct) != quota.Allow {
		return blocked(), nil
	}

	params := prompts.ExtractTripParams(turns)

	raw, err := s.completer.Complete(ctx, prompts.Itinerary(params), llm.ItineraryOptions)
	if err != nil {
		s.logger.Warn(ctx, "provider call failed, serving fallback", "email", user.Email, "error", err)
		return fallback(params), nil
	}

	payload, err := llmjson.Recover(raw)
	if err != nil {
		s.logger.Warn(ctx, "provider reply is not a JSON object, serving fallback",
			"email", user.Email, "reply_length", len(raw))
		return fallback(params), nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode itinerary: %w", err)
	}

	now := s.now()
	it := &models.Itinerary{
		UserID:    user.ID,
		UserEmail: user.Email,
		UserName:  user.Name,
		Trip:      params,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	consumeFree := quota.ConsumesFreeItinerary(acct)

	var id string
	err = s.repomanager.WithinTx(ctx, func(ctx context.Context, ur users.Repository, ir itineraries.Repository) error {
		var err error
		if id, err = ir.Create(ctx, it); err != nil {
			return err
		}
		if err := ur.RecordItinerary(ctx, user.Email, consumeFree); err != nil {
			// Postgres rolls the insert back with the transaction; other
			// backends keep it unless it is removed here.
			if errors.Is(err, common.ErrQuotaExhausted) || s.repomanager.Backend() != repomanager.BackendPostgres {
				if _, delErr := ir.Delete(ctx, user.Email, id); delErr != nil {
					s.logger.Error(ctx, "failed to remove uncounted itinerary", "itinerary_id", id, "error", delErr)
				}
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrQuotaExhausted) {
			s.logger.Info(ctx, "free itinerary consumed concurrently", "email", user.Email)
			return blocked(), nil
		}
		return nil, fmt.Errorf("store itinerary: %w", err)
	}

	payload["itinerary_id"] = id
	s.logger.Info(ctx, "itinerary generated", "email", user.Email, "itinerary_id", id)

	return &GenerationResult{Outcome: OutcomeSuccess, Itinerary: payload, Message: GeneratedMessage}, nil
}

func blocked() *GenerationResult {
	return &GenerationResult{Outcome: OutcomeBlocked, Message: BlockedMessage}
}

func fallback(params models.TripParams) *GenerationResult {
	return &GenerationResult{
		Outcome:   OutcomeFallback,
		Itinerary: FallbackItinerary(params.Destination),
		Message:   FallbackMessage,
	}
}

func (s *ItineraryService) List(ctx context.Context, email string) ([]models.Summary, error) {
	return s.repomanager.Itineraries().ListSummaries(ctx, email)
}

func (s *ItineraryService) Get(ctx context.Context, email, id string) (*ItineraryView, error) {
	it, err := s.repomanager.Itineraries().Get(ctx, email, id)
	if err != nil {
		return nil, err
	}
	return NewItineraryView(it), nil
}

// Delete removes the caller's itinerary. Missing and foreign ids both yield
// common.ErrNotFound.
func (s *ItineraryService) Delete(ctx context.Context, email, id string) error {
	n, err := s.repomanager.Itineraries().Delete(ctx, email, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	s.logger.Info(ctx, "itinerary deleted", "email", email, "itinerary_id", id)
	return nil
}
