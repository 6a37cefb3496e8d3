// Package fillin walks a persisted form in the terminal and collects one
// answer per field, the read-only client side of a submitted form.
package fillin

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-formprompt/pkg/model"
)

var (
	// ErrAborted signals the user interrupted input.
	ErrAborted = errors.New("fillin: aborted")
	// ErrInvalidAnswer is returned when an answer fails field validation.
	ErrInvalidAnswer = errors.New("fillin: invalid answer")
)

// DateLayout is the accepted format for date fields.
const DateLayout = "2006-01-02"

var telPattern = regexp.MustCompile(`^\+?[0-9][0-9 ().-]{5,}$`)

// Option customises a Filler.
type Option func(*Filler)

// WithPromptDriver swaps the terminal driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// Filler prompts for each field of a form.
type Filler struct {
	driver PromptDriver
}

// New builds a Filler using the survey driver unless overridden.
func New(options ...Option) *Filler {
	f := &Filler{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver()
	}
	return f
}

// Fill asks for every field in order and returns answers keyed by field name.
// Checkbox fields without options yield bool, multi-option checkboxes yield
// []string, everything else yields string.
func (f *Filler) Fill(ctx context.Context, form model.Form) (map[string]any, error) {
	if len(form.Fields) == 0 {
		return map[string]any{}, nil
	}
	if form.ID != "" {
		if err := f.driver.Info(ctx, "Form "+form.ID); err != nil {
			return nil, err
		}
	}

	answers := make(map[string]any, len(form.Fields))
	for _, field := range form.Fields {
		value, err := f.ask(ctx, field)
		if err != nil {
			return nil, fmt.Errorf("fillin: field %q: %w", field.Name, err)
		}
		answers[field.Name] = value
	}
	return answers, nil
}

func (f *Filler) ask(ctx context.Context, field model.Field) (any, error) {
	message := field.Label
	if message == "" {
		message = field.Name
	}
	if field.Required {
		message += " *"
	}
	defaultText, _ := field.Value.(string)

	switch field.Type {
	case model.FieldTypeCheckbox:
		if len(field.Options) == 0 {
			defaultBool, _ := field.Value.(bool)
			return f.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: defaultBool, Help: field.Placeholder})
		}
		labels := optionLabels(field.Options)
		picked, err := f.driver.MultiSelect(ctx, SelectConfig{Message: message, Options: labels, Help: field.Placeholder})
		if err != nil {
			return nil, err
		}
		values := make([]string, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(field.Options) {
				values = append(values, field.Options[idx].Value)
			}
		}
		if field.Required && len(values) == 0 {
			return nil, fmt.Errorf("%w: at least one option is required", ErrInvalidAnswer)
		}
		return values, nil

	case model.FieldTypeSelect:
		if len(field.Options) == 0 {
			break
		}
		labels := optionLabels(field.Options)
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      labels,
			DefaultIndex: defaultIndex(field.Options, defaultText),
			Help:         field.Placeholder,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(field.Options) {
			return nil, fmt.Errorf("%w: selection out of range", ErrInvalidAnswer)
		}
		return field.Options[idx].Value, nil

	case model.FieldTypeTextarea:
		validate := Validator(field)
		text, err := f.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: defaultText, Help: field.Placeholder, Validator: validate})
		if err != nil {
			return nil, err
		}
		if err := validate(text); err != nil {
			return nil, err
		}
		return text, nil
	}

	validate := Validator(field)
	text, err := f.driver.Input(ctx, InputConfig{Message: message, Default: defaultText, Help: field.Placeholder, Validator: validate})
	if err != nil {
		return nil, err
	}
	if err := validate(text); err != nil {
		return nil, err
	}
	return strings.TrimSpace(text), nil
}

// Validator returns the answer check for a text-like field.
func Validator(field model.Field) func(string) error {
	return func(raw string) error {
		text := strings.TrimSpace(raw)
		if text == "" {
			if field.Required {
				return fmt.Errorf("%w: value is required", ErrInvalidAnswer)
			}
			return nil
		}
		switch field.Type {
		case model.FieldTypeEmail:
			addr, err := mail.ParseAddress(text)
			if err != nil || addr.Address != text {
				return fmt.Errorf("%w: %q is not an email address", ErrInvalidAnswer, text)
			}
		case model.FieldTypeTel:
			if !telPattern.MatchString(text) {
				return fmt.Errorf("%w: %q is not a phone number", ErrInvalidAnswer, text)
			}
		case model.FieldTypeDate:
			if _, err := time.Parse(DateLayout, text); err != nil {
				return fmt.Errorf("%w: %q is not a date (YYYY-MM-DD)", ErrInvalidAnswer, text)
			}
		}
		return nil
	}
}

func optionLabels(options []model.Option) []string {
	labels := make([]string, len(options))
	for i, opt := range options {
		labels[i] = opt.Label
		if labels[i] == "" {
			labels[i] = opt.Value
		}
	}
	return labels
}

func defaultIndex(options []model.Option, value string) int {
	for i, opt := range options {
		if value != "" && opt.Value == value {
			return i
		}
	}
	return 0
}
