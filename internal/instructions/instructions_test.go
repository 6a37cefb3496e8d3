package instructions

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formprompt/pkg/history"
	"github.com/goliatone/go-formprompt/pkg/merge"
	"github.com/goliatone/go-formprompt/pkg/model"
	"github.com/goliatone/go-formprompt/pkg/proposal"
)

func TestBuilder_MessagesOrder(t *testing.T) {
	builder, err := New()
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}

	req := proposal.Request{
		Prompt: "  add a phone number  ",
		CurrentFields: []model.Field{
			{ID: "field_1", Type: model.FieldTypeEmail, Label: "Email", Name: "email", Options: []model.Option{}},
		},
		History: []history.Message{
			{Role: history.RoleUser, Content: "add email"},
			{Role: history.RoleAssistant, Content: `{"fields":[]}`},
		},
	}

	messages, err := builder.Messages(req)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(messages))
	}

	roles := make([]history.Role, 0, len(messages))
	for _, msg := range messages {
		roles = append(roles, msg.Role)
	}
	wantRoles := []history.Role{history.RoleSystem, history.RoleSystem, history.RoleUser, history.RoleAssistant, history.RoleUser}
	if diff := cmp.Diff(wantRoles, roles); diff != "" {
		t.Fatalf("roles mismatch (-want +got):\n%s", diff)
	}

	wantContext := `CURRENT_FIELDS: [{"id":"field_1","type":"email","label":"Email","name":"email","placeholder":"","required":false,"options":[]}]`
	if messages[1].Content != wantContext {
		t.Fatalf("context mismatch:\nwant %s\ngot  %s", wantContext, messages[1].Content)
	}
	if messages[4].Content != "add a phone number" {
		t.Fatalf("expected trimmed prompt, got %q", messages[4].Content)
	}
}

func TestBuilder_ContextWithoutFields(t *testing.T) {
	builder, err := New()
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	got, err := builder.Context(nil)
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if got != "CURRENT_FIELDS: []" {
		t.Fatalf("unexpected context %q", got)
	}
}

func TestBuilder_SystemReflectsOptions(t *testing.T) {
	builder, err := New(
		WithLanguage("English"),
		WithPolicy(merge.PolicyReplacement),
		WithHints([]Hint{{Topic: "Shoe size", Name: "shoeSize", Type: model.FieldTypeSelect, Label: "Shoe size"}}),
	)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	system, err := builder.System()
	if err != nil {
		t.Fatalf("system: %v", err)
	}

	for _, want := range []string{
		"written in English",
		"COMPLETE list of editable fields",
		`name "shoeSize"`,
		"text, email, tel, date, textarea, select, checkbox",
	} {
		if !strings.Contains(system, want) {
			t.Fatalf("expected system prompt to contain %q:\n%s", want, system)
		}
	}
	if strings.Contains(system, "phoneNumber") {
		t.Fatalf("expected default hints to be replaced")
	}
}

func TestBuilder_DefaultSystemIsAdditive(t *testing.T) {
	builder, err := New()
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	system, err := builder.System()
	if err != nil {
		t.Fatalf("system: %v", err)
	}
	if !strings.Contains(system, "Return only the fields to add") {
		t.Fatalf("expected additive guidance:\n%s", system)
	}
	if !strings.Contains(system, "Complément d'adresse (optionnel)") {
		t.Fatalf("expected hints to render unescaped:\n%s", system)
	}
}

func TestBuilder_RejectsEmptyPrompt(t *testing.T) {
	builder, err := New()
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	if _, err := builder.Messages(proposal.Request{Prompt: "   "}); !errors.Is(err, proposal.ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
}

func TestNew_CustomTemplates(t *testing.T) {
	fsys := fstest.MapFS{
		"system.tpl":  {Data: []byte("Answer in {{ language }}.")},
		"context.tpl": {Data: []byte("FIELDS={{ fields|safe }}")},
	}
	builder, err := New(WithTemplates(fsys), WithLanguage("German"))
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	system, err := builder.System()
	if err != nil {
		t.Fatalf("system: %v", err)
	}
	if system != "Answer in German." {
		t.Fatalf("unexpected system %q", system)
	}
}

func TestNew_MissingTemplate(t *testing.T) {
	if _, err := New(WithTemplates(fstest.MapFS{})); err == nil {
		t.Fatalf("expected error for missing templates")
	}
}
