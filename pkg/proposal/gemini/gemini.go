// Package gemini proposes fields through the Google Gen AI SDK with JSON
// response output.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/goliatone/go-formprompt/internal/instructions"
	"github.com/goliatone/go-formprompt/pkg/history"
	"github.com/goliatone/go-formprompt/pkg/proposal"
)

// Name is the registry key for this backend.
const Name = "gemini"

const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// Option customises a Proposer.
type Option func(*Proposer)

// WithModel selects the model.
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

// WithMaxTokens caps the output length.
func WithMaxTokens(maxTokens int32) Option {
	return func(p *Proposer) {
		if maxTokens > 0 {
			p.maxTokens = maxTokens
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

// Proposer implements proposal.Proposer on top of genai.
type Proposer struct {
	client       *genai.Client
	instructions *instructions.Builder
	logger       *zap.Logger

	model       string
	temperature float32
	maxTokens   int32
}

var _ proposal.Proposer = (*Proposer)(nil)

// New constructs a Proposer backed by the Gemini API.
func New(ctx context.Context, apiKey string, options ...Option) (*Proposer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	p := &Proposer{
		logger:      zap.NewNop(),
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
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
			return nil, fmt.Errorf("gemini: %w", err)
		}
		p.instructions = builder
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	p.client = client
	return p, nil
}

// Propose sends the request to GenerateContent and validates the reply.
func (p *Proposer) Propose(ctx context.Context, req proposal.Request) (proposal.Response, error) {
	messages, err := p.instructions.Messages(req)
	if err != nil {
		return proposal.Response{}, err
	}
	system, contents := splitMessages(messages)

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(p.temperature),
		MaxOutputTokens:  p.maxTokens,
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	started := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return proposal.Response{}, translateErr(err)
	}
	text := result.Text()
	p.logger.Debug("gemini completion",
		zap.String("model", p.model),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("chars", len(text)),
	)
	return proposal.ParseText(text)
}

// splitMessages folds system messages into one instruction block and maps the
// rest to user/model turns.
func splitMessages(messages []history.Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case history.RoleSystem:
			system = append(system, msg.Content)
		case history.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

func translateErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gemini: %w", &proposal.ServiceError{Status: apiErr.Code, Message: apiErr.Message})
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return fmt.Errorf("gemini: %w", &proposal.ServiceError{Status: apiErrPtr.Code, Message: apiErrPtr.Message})
	}
	return fmt.Errorf("gemini: %w", err)
}
