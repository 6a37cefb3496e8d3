package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/goliatone/go-formprompt/pkg/fillin"
	"github.com/goliatone/go-formprompt/pkg/model"
	"github.com/goliatone/go-formprompt/pkg/proposal"
	"github.com/goliatone/go-formprompt/pkg/store"
	"github.com/goliatone/go-formprompt/pkg/testsupport"
)

// scriptedDriver answers prompts from queues and fails when a queue runs dry.
type scriptedDriver struct {
	inputs   []string
	selects  []int
	confirms []bool
	infos    []string
}

func (d *scriptedDriver) Input(_ context.Context, cfg fillin.InputConfig) (string, error) {
	if len(d.inputs) == 0 {
		return "", fmt.Errorf("unexpected input %q", cfg.Message)
	}
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	if cfg.Validator != nil {
		if err := cfg.Validator(v); err != nil {
			return "", err
		}
	}
	return v, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg fillin.ConfirmConfig) (bool, error) {
	if len(d.confirms) == 0 {
		return false, fmt.Errorf("unexpected confirm %q", cfg.Message)
	}
	v := d.confirms[0]
	d.confirms = d.confirms[1:]
	return v, nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg fillin.SelectConfig) (int, error) {
	if len(d.selects) == 0 {
		return 0, fmt.Errorf("unexpected select %q", cfg.Message)
	}
	v := d.selects[0]
	d.selects = d.selects[1:]
	if v < 0 || v >= len(cfg.Options) {
		return 0, fmt.Errorf("select %q: index %d out of range", cfg.Message, v)
	}
	return v, nil
}

func (d *scriptedDriver) MultiSelect(_ context.Context, cfg fillin.SelectConfig) ([]int, error) {
	return nil, fmt.Errorf("unexpected multi-select %q", cfg.Message)
}

func (d *scriptedDriver) TextArea(_ context.Context, cfg fillin.TextAreaConfig) (string, error) {
	return "", fmt.Errorf("unexpected textarea %q", cfg.Message)
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func actionIndex(t *testing.T, action string) int {
	t.Helper()
	for i, a := range editActions {
		if a == action {
			return i
		}
	}
	t.Fatalf("unknown action %q", action)
	return -1
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a.out = &out
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCategoriesCommand_ListsEmbeddedCatalog(t *testing.T) {
	out, err := run(t, &app{}, "categories")
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if !strings.Contains(out, "5411") || !strings.Contains(out, "Grocery Stores/Supermarkets") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Index(out, "4111") > strings.Index(out, "5411") {
		t.Fatalf("expected categories ordered by code:\n%s", out)
	}
}

func TestCategoriesCommand_CatalogDirFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formprompt.yaml")
	cfg := "catalog:\n  dir: ../../testdata/catalog\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := run(t, &app{}, "categories", "--config", path)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if !strings.Contains(out, "5462") || strings.Contains(out, "5411") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestEditCommand_PromptAndSubmit(t *testing.T) {
	kv := store.NewMemory()
	proposer := testsupport.NewScriptedProposer(proposal.Response{Fields: []model.Field{
		{Type: model.FieldTypeTel, Label: "Téléphone", Name: "phoneNumber", Required: true},
		{Type: model.FieldTypeText, Label: "Prénom", Name: "firstName"},
	}})
	driver := &scriptedDriver{
		// 5411 is third in code order in the embedded catalog.
		selects: []int{
			2,
			actionIndex(t, actionPrompt),
			actionIndex(t, actionSubmit),
			actionIndex(t, actionQuit),
		},
		inputs: []string{"ajoute un numéro de téléphone"},
	}
	a := &app{driver: driver, proposer: proposer, kv: kv}

	out, err := run(t, a, "edit")
	if err != nil {
		t.Fatalf("edit: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Added 1 field(s).") || !strings.Contains(out, "Form saved for clients.") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	saved, err := store.LoadForm(context.Background(), kv)
	if err != nil {
		t.Fatalf("load saved form: %v", err)
	}
	if saved.ID != "form_5411" || len(saved.Fields) != 4 {
		t.Fatalf("unexpected saved form: %#v", saved)
	}
	last := saved.Fields[3]
	if last.ID != "field_4" || last.Name != "phoneNumber" || last.Locked {
		t.Fatalf("unexpected added field: %#v", last)
	}

	requests := proposer.Requests()
	if len(requests) != 1 || len(requests[0].CurrentFields) != 0 {
		t.Fatalf("expected one request with no editable fields, got %#v", requests)
	}
}

func TestEditCommand_FailureKeepsSession(t *testing.T) {
	kv := store.NewMemory()
	proposer := testsupport.NewScriptedProposer()
	proposer.FailNext(&proposal.ServiceError{Status: 500, Message: "upstream down"})
	driver := &scriptedDriver{
		selects: []int{
			actionIndex(t, actionPrompt),
			actionIndex(t, actionRemove),
			actionIndex(t, actionQuit),
		},
		inputs: []string{"add phone"},
	}
	a := &app{driver: driver, proposer: proposer, kv: kv}

	out, err := run(t, a, "edit", "--category", "5812")
	if err != nil {
		t.Fatalf("edit: %v\n%s", err, out)
	}
	if !strings.Contains(out, "upstream down") || !strings.Contains(out, "No editable fields.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestFillCommand_FromFile(t *testing.T) {
	form := model.Form{ID: "form_5411", Fields: []model.Field{
		{ID: "field_1", Type: model.FieldTypeText, Label: "Prénom", Name: "firstName", Required: true, Locked: true},
		{ID: "field_4", Type: model.FieldTypeEmail, Label: "Email", Name: "email"},
		{ID: "field_5", Type: model.FieldTypeCheckbox, Label: "Newsletter", Name: "newsletter"},
	}}
	data, err := json.Marshal(form)
	if err != nil {
		t.Fatalf("marshal form: %v", err)
	}
	path := filepath.Join(t.TempDir(), "form.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write form: %v", err)
	}

	driver := &scriptedDriver{inputs: []string{"Ada", "ada@example.com"}, confirms: []bool{true}}
	out, err := run(t, &app{driver: driver}, "fill", "--file", path)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	var answers map[string]any
	if err := json.Unmarshal([]byte(out), &answers); err != nil {
		t.Fatalf("decode answers: %v\n%s", err, out)
	}
	if answers["firstName"] != "Ada" || answers["email"] != "ada@example.com" || answers["newsletter"] != true {
		t.Fatalf("unexpected answers: %#v", answers)
	}
}

func TestFillCommand_NothingSubmitted(t *testing.T) {
	_, err := run(t, &app{driver: &scriptedDriver{}, kv: store.NewMemory()}, "fill")
	if err == nil || !strings.Contains(err.Error(), "no form saved") {
		t.Fatalf("expected no form error, got %v", err)
	}
}
