package proposal

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formprompt/pkg/model"
)

func TestParse_CoercesOptionalAttributes(t *testing.T) {
	raw := `{"fields":[
		{"name":"phoneNumber","type":"tel","label":"Phone","required":true},
		{"name":"notes"},
		{"name":"size","type":"SELECT","options":["S",{"value":2,"label":""}],"locked":true}
	]}`

	resp, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := []model.Field{
		{Type: model.FieldTypeTel, Label: "Phone", Name: "phoneNumber", Required: true, Options: []model.Option{}},
		{Type: model.FieldTypeText, Label: "notes", Name: "notes", Options: []model.Option{}},
		{
			Type:    model.FieldTypeSelect,
			Label:   "size",
			Name:    "size",
			Options: []model.Option{model.StringOption("S"), {Value: "2", Label: "2"}},
		},
	}
	if diff := cmp.Diff(want, resp.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_StripsMarkupFromDisplayStrings(t *testing.T) {
	raw := `{"fields":[{"name":"email","label":"<b>Email</b> address","placeholder":"<i>you@example.com</i>"},{"name":"fullName","label":"Nom & prénom"}]}`

	resp, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := resp.Fields[0].Label; got != "Email address" {
		t.Fatalf("expected markup stripped from label, got %q", got)
	}
	if got := resp.Fields[0].Placeholder; got != "you@example.com" {
		t.Fatalf("expected markup stripped from placeholder, got %q", got)
	}
	if got := resp.Fields[1].Label; got != "Nom & prénom" {
		t.Fatalf("expected entities decoded, got %q", got)
	}
}

func TestParse_RejectsMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"empty":             ``,
		"not json":          `sure, here are your fields`,
		"array root":        `[{"name":"email"}]`,
		"missing fields":    `{"items":[]}`,
		"fields not array":  `{"fields":{"name":"email"}}`,
		"candidate string":  `{"fields":["email"]}`,
		"missing name":      `{"fields":[{"type":"email"}]}`,
		"blank name":        `{"fields":[{"name":"   "}]}`,
		"name whitespace":   `{"fields":[{"name":"first name"}]}`,
		"one bad candidate": `{"fields":[{"name":"ok"},{"label":"no name"}]}`,
		"object value":      `{"fields":[{"name":"ok","value":{"a":1}}]}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestParse_EmptyFieldsArrayIsValid(t *testing.T) {
	resp, err := Parse([]byte(`{"fields":[]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(resp.Fields) != 0 {
		t.Fatalf("expected no fields, got %d", len(resp.Fields))
	}
}

func TestParse_KeepsScalarValues(t *testing.T) {
	resp, err := Parse([]byte(`{"fields":[{"name":"terms","type":"checkbox","value":true},{"name":"city","value":"Lyon"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if resp.Fields[0].Value != true || resp.Fields[1].Value != "Lyon" {
		t.Fatalf("unexpected values: %#v %#v", resp.Fields[0].Value, resp.Fields[1].Value)
	}
}

func TestNormalize_ForcesEditable(t *testing.T) {
	fields, err := Normalize([]model.Field{{Name: "email", Locked: true}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if fields[0].Locked {
		t.Fatalf("expected candidate to be editable")
	}
	if fields[0].Type != model.FieldTypeText || fields[0].Label != "email" {
		t.Fatalf("expected defaults applied, got %#v", fields[0])
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"fields":[]}`, want: `{"fields":[]}`},
		{name: "fenced", in: "Here you go:\n```json\n{\"fields\":[]}\n```", want: `{"fields":[]}`},
		{name: "prose around", in: `Sure! {"fields":[{"name":"a"}]} Enjoy.`, want: `{"fields":[{"name":"a"}]}`},
		{name: "trailing comma", in: `{"fields":[{"name":"a",},]}`, want: `{"fields":[{"name":"a"}]}`},
		{name: "trailing comma with newline", in: "{\"fields\":[{\"name\":\"a\"},\n]}", want: "{\"fields\":[{\"name\":\"a\"}\n]}"},
		{name: "comma inside string kept on repair", in: `{"fields":[{"name":"a","label":"x, ]",},]}`, want: `{"fields":[{"name":"a","label":"x, ]"}]}`},
		{name: "escaped quote in string", in: `{"fields":[{"name":"a","label":"say \", }",},]}`, want: `{"fields":[{"name":"a","label":"say \", }"}]}`},
		{name: "valid json untouched", in: `{"fields":[{"name":"a","label":"S, M, ]"}]}`, want: `{"fields":[{"name":"a","label":"S, M, ]"}]}`},
		{name: "none", in: `no json here`, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON(tc.in); got != tc.want {
				t.Fatalf("ExtractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseText_KeepsPunctuationInsideStrings(t *testing.T) {
	raw := `{"fields":[{"name":"sizes","label":"Tailles (S, M, ]","placeholder":"ex: {a, }"}]}`

	resp, err := ParseText(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fields := resp.Fields
	if len(fields) != 1 {
		t.Fatalf("expected one field, got %d", len(fields))
	}
	if fields[0].Label != "Tailles (S, M, ]" {
		t.Fatalf("label altered: %q", fields[0].Label)
	}
	if fields[0].Placeholder != "ex: {a, }" {
		t.Fatalf("placeholder altered: %q", fields[0].Placeholder)
	}
}

func TestParseText_RepairsTrailingCommas(t *testing.T) {
	raw := "```json\n{\"fields\":[{\"name\":\"sizes\",\"label\":\"S, M, ]\",},]}\n```"

	resp, err := ParseText(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fields := resp.Fields
	if len(fields) != 1 || fields[0].Name != "sizes" || fields[0].Label != "S, M, ]" {
		t.Fatalf("unexpected fields %#v", fields)
	}
}

func TestResponse_Serialize(t *testing.T) {
	if got := (Response{}).Serialize(); got != `{"fields":[]}` {
		t.Fatalf("unexpected empty serialization %q", got)
	}
	resp := Response{Fields: []model.Field{{ID: "field_1", Type: model.FieldTypeText, Label: "A", Name: "a", Options: []model.Option{}}}}
	want := `{"fields":[{"id":"field_1","type":"text","label":"A","name":"a","placeholder":"","required":false,"options":[]}]}`
	if got := resp.Serialize(); got != want {
		t.Fatalf("serialize mismatch:\nwant %s\ngot  %s", want, got)
	}
}
