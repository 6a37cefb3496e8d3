package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoForm is returned when an operation needs a form but no category is
	// selected.
	ErrNoForm = errors.New("session: no form selected")
	// ErrBusy is returned when a prompt is submitted while another external
	// call is outstanding.
	ErrBusy = errors.New("session: another request is in flight")
	// ErrSuperseded is returned to a caller whose external call was overtaken
	// by a later category change, reset or clear. Its result was discarded.
	ErrSuperseded = errors.New("session: request superseded")
	// ErrFieldLocked is returned when removing a locked field.
	ErrFieldLocked = errors.New("session: field is locked")
	// ErrFieldNotFound is returned when a field id is unknown.
	ErrFieldNotFound = errors.New("session: field not found")
)

// Trigger names the session operation that failed.
type Trigger string

const (
	TriggerSelectCategory Trigger = "select-category"
	TriggerSubmitPrompt   Trigger = "submit-prompt"
)

// TriggerError wraps a recoverable collaborator failure. Session state is left
// as it was before the trigger.
type TriggerError struct {
	Trigger Trigger
	Err     error
}

func (e *TriggerError) Error() string {
	return fmt.Sprintf("session: %s failed: %v", e.Trigger, e.Err)
}

func (e *TriggerError) Unwrap() error {
	return e.Err
}
