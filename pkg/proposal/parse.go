package proposal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-formprompt/pkg/model"
)

type rawResponse struct {
	Fields *[]json.RawMessage `json:"fields"`
}

type rawCandidate struct {
	ID          *string         `json:"id"`
	Type        *string         `json:"type"`
	Label       *string         `json:"label"`
	Name        *string         `json:"name"`
	Placeholder *string         `json:"placeholder"`
	Required    *bool           `json:"required"`
	Options     []model.Option  `json:"options"`
	Value       json.RawMessage `json:"value"`
}

// Parse validates a proposal payload. The payload must be a JSON object with a
// "fields" array; every entry must be an object with a non-empty name. Missing
// optional attributes are coerced (type → text, label → name), markup is
// stripped from display strings, and locked is always false. A single bad
// candidate rejects the whole payload.
func Parse(raw []byte) (Response, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Response{}, fmt.Errorf("%w: empty payload", ErrMalformedResponse)
	}

	var envelope rawResponse
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if envelope.Fields == nil {
		return Response{}, fmt.Errorf("%w: missing fields array", ErrMalformedResponse)
	}

	fields := make([]model.Field, 0, len(*envelope.Fields))
	for idx, item := range *envelope.Fields {
		field, err := parseCandidate(item)
		if err != nil {
			return Response{}, fmt.Errorf("%w: field %d: %v", ErrMalformedResponse, idx, err)
		}
		fields = append(fields, field)
	}
	return Response{Fields: fields}, nil
}

// Normalize runs already decoded fields through the same validation as Parse.
func Normalize(fields []model.Field) ([]model.Field, error) {
	out := make([]model.Field, 0, len(fields))
	for idx, field := range fields {
		normalized, err := normalizeField(field)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d: %v", ErrMalformedResponse, idx, err)
		}
		out = append(out, normalized)
	}
	return out, nil
}

func parseCandidate(raw json.RawMessage) (model.Field, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.Field{}, fmt.Errorf("candidate must be an object")
	}

	var candidate rawCandidate
	if err := json.Unmarshal(trimmed, &candidate); err != nil {
		return model.Field{}, err
	}

	field := model.Field{
		ID:          deref(candidate.ID),
		Type:        model.FieldType(deref(candidate.Type)),
		Label:       deref(candidate.Label),
		Name:        deref(candidate.Name),
		Placeholder: deref(candidate.Placeholder),
		Options:     candidate.Options,
	}
	if candidate.Required != nil {
		field.Required = *candidate.Required
	}
	if value, ok, err := decodeValue(candidate.Value); err != nil {
		return model.Field{}, err
	} else if ok {
		field.Value = value
	}

	return normalizeField(field)
}

func normalizeField(field model.Field) (model.Field, error) {
	field.Name = strings.TrimSpace(field.Name)
	if field.Name == "" {
		return model.Field{}, fmt.Errorf("name is required")
	}
	if strings.ContainsAny(field.Name, " \t\r\n") {
		return model.Field{}, fmt.Errorf("name %q contains whitespace", field.Name)
	}

	field.ID = strings.TrimSpace(field.ID)
	field.Type = model.FieldType(strings.ToLower(strings.TrimSpace(string(field.Type))))
	if field.Type == "" {
		field.Type = model.FieldTypeText
	}

	field.Label = sanitizeText(field.Label)
	if field.Label == "" {
		field.Label = field.Name
	}
	field.Placeholder = sanitizeText(field.Placeholder)

	options := make([]model.Option, 0, len(field.Options))
	for _, opt := range field.Options {
		opt.Value = strings.TrimSpace(opt.Value)
		opt.Label = sanitizeText(opt.Label)
		if opt.Value == "" && opt.Label == "" {
			continue
		}
		if opt.Label == "" {
			opt.Label = opt.Value
		}
		options = append(options, opt)
	}
	field.Options = options
	field.Locked = false
	return field, nil
}

func decodeValue(raw json.RawMessage) (any, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false, nil
	}
	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, false, err
	}
	switch v := value.(type) {
	case string, bool:
		return v, true, nil
	default:
		return nil, false, fmt.Errorf("value must be a string or boolean")
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
