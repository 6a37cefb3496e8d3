package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formprompt/pkg/catalog"
	"github.com/goliatone/go-formprompt/pkg/history"
	"github.com/goliatone/go-formprompt/pkg/merge"
	"github.com/goliatone/go-formprompt/pkg/model"
	"github.com/goliatone/go-formprompt/pkg/proposal"
	"github.com/goliatone/go-formprompt/pkg/store"
)

// Option customises a Session.
type Option func(*Session)

// WithID sets the session identifier. A random UUID is used otherwise.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithEngine sets the merge engine.
func WithEngine(engine *merge.Engine) Option {
	return func(s *Session) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for activity tracking and the log.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Outcome describes an applied prompt.
type Outcome struct {
	// Skipped is true when the prompt was blank and nothing happened.
	Skipped   bool            `json:"skipped,omitempty"`
	Added     []model.Field   `json:"added"`
	Discarded []merge.Discard `json:"-"`
	Form      model.Form      `json:"form"`
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	ID         string          `json:"id"`
	Category   string          `json:"category"`
	Base       *model.Form     `json:"baseForm"`
	Current    *model.Form     `json:"currentForm"`
	History    []history.Entry `json:"history"`
	Prompt     string          `json:"prompt"`
	Busy       bool            `json:"busy"`
	LastActive time.Time       `json:"lastActive"`
}

// Session is one operator's editing state: a selected category, its base
// form, the current form and the conversation log. Methods are safe for
// concurrent use; at most one external call is outstanding at a time.
type Session struct {
	id       string
	fetcher  catalog.Fetcher
	proposer proposal.Proposer
	engine   *merge.Engine
	logger   *zap.Logger
	now      func() time.Time
	log      *history.Log

	mu         sync.Mutex
	category   string
	base       *model.Form
	current    *model.Form
	prompt     string
	generation uint64
	cancel     context.CancelFunc
	lastActive time.Time
}

// New creates an empty session: no category, no form, empty log.
func New(fetcher catalog.Fetcher, proposer proposal.Proposer, options ...Option) (*Session, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("session: fetcher is required")
	}
	if proposer == nil {
		return nil, fmt.Errorf("session: proposer is required")
	}
	s := &Session{
		fetcher:  fetcher,
		proposer: proposer,
		engine:   merge.New(),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.logger = s.logger.With(zap.String("session", s.id))
	s.log = history.NewLog(history.WithClock(s.now))
	s.lastActive = s.now()
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SelectCategory clears the log and prompt buffer, then loads the base form
// for code. An empty code drops both forms. A fetch failure keeps the previous
// category and forms. Any outstanding call is superseded.
func (s *Session) SelectCategory(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)

	s.mu.Lock()
	s.supersedeLocked()
	s.log.Clear()
	s.prompt = ""
	s.touchLocked()
	if code == "" {
		s.category = ""
		s.base = nil
		s.current = nil
		s.mu.Unlock()
		s.logger.Debug("category cleared")
		return nil
	}
	callCtx, gen := s.beginLocked(ctx)
	s.mu.Unlock()

	form, err := s.fetcher.Fetch(callCtx, code)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finishLocked(gen) {
		return ErrSuperseded
	}
	if err != nil {
		s.logger.Warn("category fetch failed", zap.String("category", code), zap.Error(err))
		return &TriggerError{Trigger: TriggerSelectCategory, Err: err}
	}

	base := model.Form{ID: form.ID, Fields: model.LockAll(form.Fields)}
	if base.Fields == nil {
		base.Fields = []model.Field{}
	}
	current := base.Clone()
	s.category = code
	s.base = &base
	s.current = &current
	s.logger.Debug("category selected", zap.String("category", code), zap.Int("fields", len(base.Fields)))
	return nil
}

// SubmitPrompt asks the proposer for candidate fields and merges them into the
// current form. Blank text is a no-op. A proposer failure leaves the form and
// the prompt buffer unchanged.
func (s *Session) SubmitPrompt(ctx context.Context, text string) (Outcome, error) {
	prompt := strings.TrimSpace(text)
	if prompt == "" {
		return Outcome{Skipped: true}, nil
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return Outcome{}, ErrBusy
	}
	if s.current == nil {
		s.mu.Unlock()
		return Outcome{}, ErrNoForm
	}
	req := proposal.Request{
		Prompt:        prompt,
		CurrentFields: s.current.Editable(),
		History:       s.log.Messages(),
	}
	if req.CurrentFields == nil {
		req.CurrentFields = []model.Field{}
	}
	s.touchLocked()
	callCtx, gen := s.beginLocked(ctx)
	s.mu.Unlock()

	resp, err := s.proposer.Propose(callCtx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finishLocked(gen) {
		return Outcome{}, ErrSuperseded
	}
	if err != nil {
		s.logger.Warn("proposal failed", zap.Error(err))
		return Outcome{}, &TriggerError{Trigger: TriggerSubmitPrompt, Err: err}
	}

	result := s.engine.Merge(s.current.Fields, resp.Fields)
	s.current.Fields = result.Fields()
	s.log.Append(prompt, resp.Serialize())
	s.prompt = ""

	for _, discard := range result.Discarded {
		s.logger.Debug("candidate discarded",
			zap.String("name", discard.Field.Name),
			zap.String("reason", string(discard.Reason)),
		)
	}
	s.logger.Debug("prompt merged",
		zap.String("policy", string(result.Policy)),
		zap.Int("added", len(result.Added)),
		zap.Int("discarded", len(result.Discarded)),
	)
	return Outcome{
		Added:     result.Added,
		Discarded: result.Discarded,
		Form:      s.current.Clone(),
	}, nil
}

// Reset restores the current form to the base form and clears the log and
// the prompt buffer.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.supersedeLocked()
	if s.base != nil {
		current := s.base.Clone()
		s.current = &current
	}
	s.prompt = ""
	s.log.Clear()
	s.touchLocked()
}

// Clear drops the category, both forms, the prompt buffer and the log.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.supersedeLocked()
	s.category = ""
	s.base = nil
	s.current = nil
	s.prompt = ""
	s.log.Clear()
	s.touchLocked()
}

// RemoveField deletes an editable field from the current form.
func (s *Session) RemoveField(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNoForm
	}
	for i, field := range s.current.Fields {
		if field.ID != id {
			continue
		}
		if field.Locked {
			return fmt.Errorf("%w: %s", ErrFieldLocked, id)
		}
		s.current.Fields = append(s.current.Fields[:i:i], s.current.Fields[i+1:]...)
		s.touchLocked()
		return nil
	}
	return fmt.Errorf("%w: %s", ErrFieldNotFound, id)
}

// SetPrompt stores the operator's unsent prompt text.
func (s *Session) SetPrompt(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = text
	s.touchLocked()
}

// Prompt returns the unsent prompt text.
func (s *Session) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:         s.id,
		Category:   s.category,
		History:    s.log.Entries(),
		Prompt:     s.prompt,
		Busy:       s.cancel != nil,
		LastActive: s.lastActive,
	}
	if s.base != nil {
		base := s.base.Clone()
		snap.Base = &base
	}
	if s.current != nil {
		current := s.current.Clone()
		snap.Current = &current
	}
	return snap
}

// LastActive reports when the session last changed.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Busy reports whether an external call is outstanding.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Submit persists the current form to kv.
func (s *Session) Submit(ctx context.Context, kv store.KV) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return ErrNoForm
	}
	form := s.current.Clone()
	s.mu.Unlock()

	if err := store.SaveForm(ctx, kv, form); err != nil {
		return err
	}
	s.logger.Info("form submitted", zap.String("form", form.ID), zap.Int("fields", len(form.Fields)))
	return nil
}

// Export renders the current form as indented JSON with a download filename.
func (s *Session) Export() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, "", ErrNoForm
	}
	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("session: export: %w", err)
	}
	return data, "form-" + s.category + ".json", nil
}

// beginLocked registers a new outstanding call and returns its context and
// generation. s.mu must be held.
func (s *Session) beginLocked(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)
	s.generation++
	s.cancel = cancel
	return ctx, s.generation
}

// finishLocked releases the call started at gen. It reports false when a later
// operation superseded it. s.mu must be held.
func (s *Session) finishLocked(gen uint64) bool {
	if gen != s.generation {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return true
}

// supersedeLocked cancels any outstanding call so its result is discarded.
func (s *Session) supersedeLocked() {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.logger.Debug("outstanding request superseded")
	}
}

func (s *Session) touchLocked() {
	s.lastActive = s.now()
}
