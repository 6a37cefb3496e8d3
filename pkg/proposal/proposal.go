package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-formprompt/pkg/history"
	"github.com/goliatone/go-formprompt/pkg/model"
)

var (
	// ErrEmptyPrompt is returned when a request carries no prompt text.
	ErrEmptyPrompt = errors.New("proposal: prompt is required")
	// ErrMalformedResponse marks service output that failed validation.
	ErrMalformedResponse = errors.New("proposal: malformed response")
)

// Request is the context sent to the proposal service. CurrentFields only
// carries editable fields.
type Request struct {
	Prompt        string            `json:"prompt"`
	CurrentFields []model.Field     `json:"currentFields"`
	History       []history.Message `json:"history"`
}

// Response holds validated candidate fields.
type Response struct {
	Fields []model.Field `json:"fields"`
}

// Serialize renders the response as stored in the conversation log.
func (r Response) Serialize() string {
	fields := r.Fields
	if fields == nil {
		fields = []model.Field{}
	}
	data, err := json.Marshal(Response{Fields: fields})
	if err != nil {
		return `{"fields":[]}`
	}
	return string(data)
}

// Proposer proposes candidate fields for a prompt.
type Proposer interface {
	Propose(ctx context.Context, req Request) (Response, error)
}

// Func adapts a function into a Proposer.
type Func func(ctx context.Context, req Request) (Response, error)

// Propose implements Proposer.
func (f Func) Propose(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// ServiceError reports a non-success answer from a proposal backend.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("proposal: service returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("proposal: service returned %d %s", e.Status, http.StatusText(e.Status))
}

// StatusCode exposes the upstream status.
func (e *ServiceError) StatusCode() int {
	return e.Status
}
