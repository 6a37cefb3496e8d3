package merge

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formprompt/pkg/identity"
	"github.com/goliatone/go-formprompt/pkg/model"
)

// Policy selects how candidate fields combine with the current editable set.
type Policy string

const (
	// PolicyAdditive treats candidates as new fields appended to the editable
	// set; candidates whose name already exists are dropped.
	PolicyAdditive Policy = "additive"
	// PolicyReplacement treats candidates as the authoritative editable set.
	PolicyReplacement Policy = "replacement"
)

// DefaultPolicy is used when no policy is configured.
const DefaultPolicy = PolicyAdditive

// ParsePolicy resolves a configured policy name. The empty string maps to
// DefaultPolicy.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return DefaultPolicy, nil
	case PolicyAdditive:
		return PolicyAdditive, nil
	case PolicyReplacement:
		return PolicyReplacement, nil
	default:
		return "", fmt.Errorf("merge: unknown policy %q", raw)
	}
}

// Reason explains why a candidate was not merged.
type Reason string

const (
	ReasonLockedName    Reason = "locked-name"
	ReasonDuplicateName Reason = "duplicate-name"
)

// Discard records a candidate rejected during a merge.
type Discard struct {
	Field  model.Field
	Reason Reason
}

// Result is the outcome of a merge. Locked is copied from the current field
// list and never from candidates.
type Result struct {
	Policy    Policy
	Locked    []model.Field
	Editable  []model.Field
	Added     []model.Field
	Discarded []Discard
}

// Fields returns the final form sequence: locked fields, then editable ones.
func (r Result) Fields() []model.Field {
	return model.Compose(r.Locked, r.Editable)
}

// Option customises an Engine.
type Option func(*Engine)

// WithPolicy sets the merge policy. Empty values are ignored.
func WithPolicy(policy Policy) Option {
	return func(e *Engine) {
		if policy != "" {
			e.policy = policy
		}
	}
}

// Engine reconciles proposal candidates with a form's current fields. It holds
// no per-merge state and is safe for concurrent use.
type Engine struct {
	policy Policy
}

// New constructs an Engine using DefaultPolicy unless overridden.
func New(options ...Option) *Engine {
	e := &Engine{policy: DefaultPolicy}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// Policy reports the configured policy.
func (e *Engine) Policy() Policy {
	if e == nil {
		return DefaultPolicy
	}
	return e.policy
}

// Merge produces the next editable field set from the current fields (locked
// and editable) and the candidates returned by the proposal service.
func (e *Engine) Merge(current, candidates []model.Field) Result {
	locked, editable := model.Partition(current)
	result := Result{
		Policy: e.Policy(),
		Locked: locked,
	}

	switch result.Policy {
	case PolicyReplacement:
		survivors, discarded := filterCandidates(candidates, model.Names(locked), nil)
		result.Discarded = discarded
		result.Editable = identity.Allocate(locked, survivors)
		result.Added = newFields(editable, result.Editable)
	default:
		survivors, discarded := filterCandidates(candidates, model.Names(locked), model.Names(editable))
		result.Discarded = discarded
		result.Added = identity.Allocate(current, survivors)
		result.Editable = append(editable, result.Added...)
	}

	if result.Editable == nil {
		result.Editable = []model.Field{}
	}
	return result
}

// filterCandidates drops candidates that collide with a locked name, an
// existing editable name, or an earlier candidate in the same batch. Survivors
// are forced editable.
func filterCandidates(candidates []model.Field, lockedNames, editableNames map[string]struct{}) ([]model.Field, []Discard) {
	var (
		survivors []model.Field
		discarded []Discard
	)
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		field := candidate.Clone()
		field.Locked = false

		if _, ok := lockedNames[field.Name]; ok {
			discarded = append(discarded, Discard{Field: field, Reason: ReasonLockedName})
			continue
		}
		if _, ok := editableNames[field.Name]; ok {
			discarded = append(discarded, Discard{Field: field, Reason: ReasonDuplicateName})
			continue
		}
		if _, ok := seen[field.Name]; ok {
			discarded = append(discarded, Discard{Field: field, Reason: ReasonDuplicateName})
			continue
		}
		seen[field.Name] = struct{}{}
		survivors = append(survivors, field)
	}
	return survivors, discarded
}

// newFields returns the fields of next whose name was not present in prev.
func newFields(prev, next []model.Field) []model.Field {
	names := model.Names(prev)
	var out []model.Field
	for _, field := range next {
		if _, ok := names[field.Name]; ok {
			continue
		}
		out = append(out, field.Clone())
	}
	return out
}
