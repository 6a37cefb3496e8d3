// Package remote proposes fields by calling another formprompt server's
// POST /api/forms/prompt endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formprompt/pkg/history"
	"github.com/goliatone/go-formprompt/pkg/model"
	"github.com/goliatone/go-formprompt/pkg/proposal"
)

// Name is the registry key for this backend.
const Name = "remote"

// PromptPath is the endpoint path appended to the base URL.
const PromptPath = "/api/forms/prompt"

const maxBodyBytes = 1 << 20

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client implements proposal.Proposer over HTTP.
type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	logger   *zap.Logger
}

var _ proposal.Proposer = (*Client)(nil)

// New builds a Client for the server at baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("remote: base url is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("remote: invalid base url %q", baseURL)
	}

	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + PromptPath,
		http:     http.DefaultClient,
		timeout:  60 * time.Second,
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

type requestBody struct {
	Prompt        string            `json:"prompt"`
	CurrentFields []model.Field     `json:"currentFields"`
	History       []history.Message `json:"history"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Propose posts the request and validates the returned fields.
func (c *Client) Propose(ctx context.Context, req proposal.Request) (proposal.Response, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return proposal.Response{}, proposal.ErrEmptyPrompt
	}

	body := requestBody{Prompt: prompt, CurrentFields: req.CurrentFields, History: req.History}
	if body.CurrentFields == nil {
		body.CurrentFields = []model.Field{}
	}
	if body.History == nil {
		body.History = []history.Message{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return proposal.Response{}, fmt.Errorf("remote: encode request: %w", err)
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return proposal.Response{}, fmt.Errorf("remote: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return proposal.Response{}, fmt.Errorf("remote: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return proposal.Response{}, fmt.Errorf("remote: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure errorBody
		_ = json.Unmarshal(data, &failure)
		c.logger.Warn("remote proposal failed",
			zap.String("endpoint", c.endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("error", failure.Error),
		)
		return proposal.Response{}, fmt.Errorf("remote: %w", &proposal.ServiceError{Status: resp.StatusCode, Message: failure.Error})
	}
	return proposal.Parse(data)
}
