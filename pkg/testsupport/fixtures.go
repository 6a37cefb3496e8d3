// Package testsupport holds fixture loaders and fakes shared by package tests.
package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formprompt/pkg/model"
	"github.com/goliatone/go-formprompt/pkg/proposal"
)

// MustLoadForm loads a JSON fixture into a Form.
func MustLoadForm(t *testing.T, path string) model.Form {
	t.Helper()

	form, err := LoadForm(path)
	if err != nil {
		t.Fatalf("load form: %v", err)
	}
	return form
}

// LoadForm reads a JSON fixture into a Form, returning an error for callers
// managing setup outside of *testing.T.
func LoadForm(path string) (model.Form, error) {
	if path == "" {
		return model.Form{}, errors.New("testsupport: form path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Form{}, fmt.Errorf("testsupport: read form: %w", err)
	}
	var out model.Form
	if err := json.Unmarshal(data, &out); err != nil {
		return model.Form{}, fmt.Errorf("testsupport: unmarshal form: %w", err)
	}
	return out, nil
}

// MustLoadProposal reads a raw service reply and runs it through the proposal
// parse boundary.
func MustLoadProposal(t *testing.T, path string) proposal.Response {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read proposal: %v", err)
	}
	resp, err := proposal.Parse(data)
	if err != nil {
		t.Fatalf("parse proposal %s: %v", path, err)
	}
	return resp
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// ScriptedProposer replays queued responses in order and records every
// request. Once the queue is empty it returns an empty proposal.
type ScriptedProposer struct {
	mu        sync.Mutex
	responses []proposal.Response
	errs      []error
	requests  []proposal.Request
}

var _ proposal.Proposer = (*ScriptedProposer)(nil)

// NewScriptedProposer queues responses.
func NewScriptedProposer(responses ...proposal.Response) *ScriptedProposer {
	return &ScriptedProposer{responses: responses}
}

// FailNext makes the next call return err instead of a response.
func (p *ScriptedProposer) FailNext(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
}

// Propose implements proposal.Proposer.
func (p *ScriptedProposer) Propose(ctx context.Context, req proposal.Request) (proposal.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)
	if err := ctx.Err(); err != nil {
		return proposal.Response{}, err
	}
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return proposal.Response{}, err
	}
	if len(p.responses) == 0 {
		return proposal.Response{Fields: []model.Field{}}, nil
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

// Requests returns the recorded requests.
func (p *ScriptedProposer) Requests() []proposal.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]proposal.Request(nil), p.requests...)
}
