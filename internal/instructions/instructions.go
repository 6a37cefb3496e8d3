// Package instructions renders the message sequence sent to chat-based
// proposal backends from embedded pongo2 templates.
package instructions

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formprompt/pkg/history"
	"github.com/goliatone/go-formprompt/pkg/merge"
	"github.com/goliatone/go-formprompt/pkg/model"
	"github.com/goliatone/go-formprompt/pkg/proposal"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

const (
	systemTemplate  = "system.tpl"
	contextTemplate = "context.tpl"
)

// Hint describes a frequently requested field so the model maps it to a
// stable name.
type Hint struct {
	Topic       string
	Name        string
	Type        model.FieldType
	Label       string
	Placeholder string
}

// DefaultHints mirrors the fields operators ask for most often.
var DefaultHints = []Hint{
	{Topic: "Phone", Name: "phoneNumber", Type: model.FieldTypeTel, Label: "Numéro de téléphone", Placeholder: "Votre numéro de téléphone"},
	{Topic: "Email", Name: "email", Type: model.FieldTypeEmail, Label: "Email", Placeholder: "Votre adresse email"},
	{Topic: "Postal code", Name: "postalCode", Type: model.FieldTypeText, Label: "Code postal", Placeholder: "Votre code postal"},
	{Topic: "Company", Name: "company", Type: model.FieldTypeText, Label: "Société", Placeholder: "Nom de votre société"},
	{Topic: "Message", Name: "message", Type: model.FieldTypeTextarea, Label: "Message", Placeholder: "Votre message"},
	{Topic: "Date", Name: "date", Type: model.FieldTypeDate, Label: "Date", Placeholder: "Sélectionnez une date"},
	{Topic: "City", Name: "city", Type: model.FieldTypeText, Label: "Ville", Placeholder: "Votre ville"},
	{Topic: "Address line 2", Name: "deliveryAddress2", Type: model.FieldTypeText, Label: "Adresse de livraison 2", Placeholder: "Complément d'adresse (optionnel)"},
}

type config struct {
	templates fs.FS
	language  string
	policy    merge.Policy
	hints     []Hint
}

// Option customises a Builder.
type Option func(*config)

// WithTemplates overrides the embedded templates. The filesystem must provide
// system.tpl and context.tpl at its root.
func WithTemplates(fsys fs.FS) Option {
	return func(c *config) {
		if fsys != nil {
			c.templates = fsys
		}
	}
}

// WithLanguage sets the language for labels and placeholders.
func WithLanguage(language string) Option {
	return func(c *config) {
		if strings.TrimSpace(language) != "" {
			c.language = strings.TrimSpace(language)
		}
	}
}

// WithPolicy tells the model how its answer is merged.
func WithPolicy(policy merge.Policy) Option {
	return func(c *config) {
		if policy != "" {
			c.policy = policy
		}
	}
}

// WithHints replaces the common field hints.
func WithHints(hints []Hint) Option {
	return func(c *config) {
		c.hints = append([]Hint(nil), hints...)
	}
}

// Builder renders instruction messages. It is safe for concurrent use.
type Builder struct {
	system  *pongo2.Template
	context *pongo2.Template
	data    pongo2.Context
}

// New compiles the instruction templates.
func New(options ...Option) (*Builder, error) {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, fmt.Errorf("instructions: open embedded templates: %w", err)
	}
	cfg := &config{
		templates: sub,
		language:  "French",
		policy:    merge.DefaultPolicy,
		hints:     DefaultHints,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	set := pongo2.NewSet("formprompt", pongo2.NewFSLoader(cfg.templates))
	system, err := set.FromFile(systemTemplate)
	if err != nil {
		return nil, fmt.Errorf("instructions: compile %s: %w", systemTemplate, err)
	}
	context, err := set.FromFile(contextTemplate)
	if err != nil {
		return nil, fmt.Errorf("instructions: compile %s: %w", contextTemplate, err)
	}

	return &Builder{
		system:  system,
		context: context,
		data: pongo2.Context{
			"language": cfg.language,
			"policy":   string(cfg.policy),
			"hints":    cfg.hints,
			"types": []model.FieldType{
				model.FieldTypeText, model.FieldTypeEmail, model.FieldTypeTel, model.FieldTypeDate,
				model.FieldTypeTextarea, model.FieldTypeSelect, model.FieldTypeCheckbox,
			},
		},
	}, nil
}

// System renders the system instructions.
func (b *Builder) System() (string, error) {
	return execute(b.system, b.data)
}

// Context renders the CURRENT_FIELDS message for the editable fields.
func (b *Builder) Context(fields []model.Field) (string, error) {
	if fields == nil {
		fields = []model.Field{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("instructions: encode current fields: %w", err)
	}
	return execute(b.context, pongo2.Context{"fields": string(payload)})
}

// Messages returns the chat sequence for a request: system instructions, the
// current fields context, prior history, then the trimmed prompt.
func (b *Builder) Messages(req proposal.Request) ([]history.Message, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, proposal.ErrEmptyPrompt
	}

	system, err := b.System()
	if err != nil {
		return nil, err
	}
	current, err := b.Context(req.CurrentFields)
	if err != nil {
		return nil, err
	}

	messages := make([]history.Message, 0, len(req.History)+3)
	messages = append(messages,
		history.Message{Role: history.RoleSystem, Content: system},
		history.Message{Role: history.RoleSystem, Content: current},
	)
	messages = append(messages, req.History...)
	messages = append(messages, history.Message{Role: history.RoleUser, Content: prompt})
	return messages, nil
}

func execute(tmpl *pongo2.Template, data pongo2.Context) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(data, &buf); err != nil {
		return "", fmt.Errorf("instructions: execute template: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
