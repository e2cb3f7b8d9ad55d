// Package llm talks to the hosted text-completion provider.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrProvider matches every *ProviderError via errors.Is.
var ErrProvider = errors.New("llm provider error")

// ProviderError wraps any transport, timeout, or provider-side failure.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrProvider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// Options are the sampling parameters of a single completion.
type Options struct {
	Temperature float64
	MaxTokens   int64
	TopP        float64
	// JSONResponse asks the provider to emit a JSON object.
	JSONResponse bool
}

var (
	ConversationOptions = Options{Temperature: 0.8, MaxTokens: 150, TopP: 1}
	ItineraryOptions    = Options{Temperature: 0.6, MaxTokens: 26571, TopP: 1, JSONResponse: true}
)

// Completer turns a prompt into raw model text. Failures are *ProviderError.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}
