package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/logging"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

var errEmptyReply = errors.New("empty completion")

// GroqClient calls Groq's OpenAI-compatible chat completions endpoint.
// Requests are never retried; each one is bounded by timeout.
type GroqClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
	apiKey  string
	logger  logging.Logger
}

func NewGroqClient(apiKey, baseURL, model string, timeout time.Duration, l logging.Logger) *GroqClient {
	c := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	)
	return &GroqClient{
		client:  c,
		model:   model,
		timeout: timeout,
		apiKey:  apiKey,
		logger:  l.With("module", "llm"),
	}
}

// Configured reports whether an API key is present.
func (g *GroqClient) Configured() bool {
	return g.apiKey != ""
}

func (g *GroqClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(opts.Temperature),
		MaxCompletionTokens: openai.Int(opts.MaxTokens),
		TopP:                openai.Float(opts.TopP),
		ReasoningEffort:     shared.ReasoningEffortMedium,
	}
	if opts.JSONResponse {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	started := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		g.logger.Warn(ctx, "completion failed", "error", err, "elapsed", time.Since(started))
		return "", &ProviderError{Op: "chat completion", Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &ProviderError{Op: "chat completion", Err: errEmptyReply}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &ProviderError{Op: "chat completion", Err: errEmptyReply}
	}

	g.logger.Debug(ctx, "completion received", "chars", len(text), "elapsed", time.Since(started))
	return text, nil
}
