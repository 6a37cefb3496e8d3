// Package openai proposes fields through an OpenAI-compatible chat completion
// endpoint using JSON object output.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/goliatone/go-formprompt/internal/instructions"
	"github.com/goliatone/go-formprompt/pkg/history"
	"github.com/goliatone/go-formprompt/pkg/proposal"
)

// Name is the registry key for this backend.
const Name = "openai"

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// Option customises a Proposer.
type Option func(*Proposer)

// WithModel selects the chat model.
func WithModel(model string) Option {
	return func(p *Proposer) {
		if model != "" {
			p.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float32) Option {
	return func(p *Proposer) {
		p.temperature = temperature
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(maxTokens int) Option {
	return func(p *Proposer) {
		if maxTokens > 0 {
			p.maxTokens = maxTokens
		}
	}
}

// WithBaseURL points the client at an OpenAI-compatible API.
func WithBaseURL(baseURL string) Option {
	return func(p *Proposer) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Proposer) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithInstructions supplies the message builder.
func WithInstructions(builder *instructions.Builder) Option {
	return func(p *Proposer) {
		if builder != nil {
			p.instructions = builder
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Proposer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Proposer implements proposal.Proposer on top of go-openai.
type Proposer struct {
	client       *goopenai.Client
	instructions *instructions.Builder
	logger       *zap.Logger

	model       string
	temperature float32
	maxTokens   int
	baseURL     string
	httpClient  *http.Client
}

var _ proposal.Proposer = (*Proposer)(nil)

// New constructs a Proposer. apiKey is required.
func New(apiKey string, options ...Option) (*Proposer, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	p := &Proposer{
		logger:      zap.NewNop(),
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	if p.instructions == nil {
		builder, err := instructions.New()
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		p.instructions = builder
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	cfg.HTTPClient = p.httpClient
	p.client = goopenai.NewClientWithConfig(cfg)
	return p, nil
}

// Propose sends the request as a chat completion and validates the reply.
func (p *Proposer) Propose(ctx context.Context, req proposal.Request) (proposal.Response, error) {
	messages, err := p.instructions.Messages(req)
	if err != nil {
		return proposal.Response{}, err
	}

	started := time.Now()
	completion, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    chatMessages(messages),
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return proposal.Response{}, translateErr(err)
	}
	if len(completion.Choices) == 0 {
		return proposal.Response{}, fmt.Errorf("%w: no choices returned", proposal.ErrMalformedResponse)
	}

	content := completion.Choices[0].Message.Content
	p.logger.Debug("openai completion",
		zap.String("model", p.model),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("prompt_tokens", completion.Usage.PromptTokens),
		zap.Int("completion_tokens", completion.Usage.CompletionTokens),
	)
	return proposal.ParseText(content)
}

func chatMessages(messages []history.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := goopenai.ChatMessageRoleUser
		switch msg.Role {
		case history.RoleSystem:
			role = goopenai.ChatMessageRoleSystem
		case history.RoleAssistant:
			role = goopenai.ChatMessageRoleAssistant
		}
		out = append(out, goopenai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out
}

func translateErr(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai: %w", &proposal.ServiceError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message})
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openai: %w", &proposal.ServiceError{Status: reqErr.HTTPStatusCode, Message: reqErr.Error()})
	}
	return fmt.Errorf("openai: %w", err)
}
