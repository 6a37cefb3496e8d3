package gemini

import (
	"errors"
	"net/http"
	"testing"

	"google.golang.org/genai"

	"github.com/goliatone/go-formprompt/pkg/history"
	"github.com/goliatone/go-formprompt/pkg/proposal"
)

func TestSplitMessages(t *testing.T) {
	system, contents := splitMessages([]history.Message{
		{Role: history.RoleSystem, Content: "rules"},
		{Role: history.RoleSystem, Content: "CURRENT_FIELDS: []"},
		{Role: history.RoleUser, Content: "add email"},
		{Role: history.RoleAssistant, Content: `{"fields":[]}`},
		{Role: history.RoleUser, Content: "add phone"},
	})

	if system != "rules\n\nCURRENT_FIELDS: []" {
		t.Fatalf("unexpected system instruction %q", system)
	}
	if len(contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(contents))
	}
	wantRoles := []string{"user", "model", "user"}
	for i, content := range contents {
		if content.Role != wantRoles[i] {
			t.Fatalf("content %d: expected role %q, got %q", i, wantRoles[i], content.Role)
		}
	}
	if contents[2].Parts[0].Text != "add phone" {
		t.Fatalf("expected prompt last, got %q", contents[2].Parts[0].Text)
	}
}

func TestTranslateErr_APIError(t *testing.T) {
	err := translateErr(genai.APIError{Code: http.StatusServiceUnavailable, Message: "overloaded"})

	var svcErr *proposal.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.Status != http.StatusServiceUnavailable || svcErr.Message != "overloaded" {
		t.Fatalf("unexpected service error %+v", svcErr)
	}
}

func TestTranslateErr_Other(t *testing.T) {
	base := errors.New("dial failed")
	if err := translateErr(base); !errors.Is(err, base) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
