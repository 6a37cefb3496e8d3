package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-formprompt/pkg/history"
	"github.com/goliatone/go-formprompt/pkg/model"
	"github.com/goliatone/go-formprompt/pkg/proposal"
)

type capturedRequest struct {
	Model          string `json:"model"`
	Temperature    float32
	MaxTokens      int `json:"max_tokens"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, content string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  DefaultModel,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProposer_SendsOrderedMessagesAndParsesFields(t *testing.T) {
	var captured capturedRequest
	srv := completionServer(t, `{"fields":[{"name":"phoneNumber","type":"tel","label":"Phone"}]}`, &captured)

	p, err := New("test-key", WithBaseURL(srv.URL+"/v1"))
	if err != nil {
		t.Fatalf("new proposer: %v", err)
	}

	resp, err := p.Propose(context.Background(), proposal.Request{
		Prompt:        "add phone",
		CurrentFields: []model.Field{{ID: "field_1", Name: "email", Type: model.FieldTypeEmail}},
		History: []history.Message{
			{Role: history.RoleUser, Content: "add email"},
			{Role: history.RoleAssistant, Content: `{"fields":[]}`},
		},
	})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	if len(resp.Fields) != 1 || resp.Fields[0].Name != "phoneNumber" || resp.Fields[0].Type != model.FieldTypeTel {
		t.Fatalf("unexpected fields: %#v", resp.Fields)
	}
	if captured.Model != DefaultModel || captured.MaxTokens != DefaultMaxTokens {
		t.Fatalf("unexpected model settings: %+v", captured)
	}
	if captured.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %q", captured.ResponseFormat.Type)
	}

	roles := make([]string, 0, len(captured.Messages))
	for _, msg := range captured.Messages {
		roles = append(roles, msg.Role)
	}
	want := []string{"system", "system", "user", "assistant", "user"}
	if len(roles) != len(want) {
		t.Fatalf("expected roles %v, got %v", want, roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("expected roles %v, got %v", want, roles)
		}
	}
	if captured.Messages[4].Content != "add phone" {
		t.Fatalf("expected prompt last, got %q", captured.Messages[4].Content)
	}
}

func TestProposer_MalformedContent(t *testing.T) {
	srv := completionServer(t, `I could not decide`, nil)
	p, err := New("test-key", WithBaseURL(srv.URL+"/v1"))
	if err != nil {
		t.Fatalf("new proposer: %v", err)
	}

	_, err = p.Propose(context.Background(), proposal.Request{Prompt: "add phone"})
	if !errors.Is(err, proposal.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestProposer_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	p, err := New("test-key", WithBaseURL(srv.URL+"/v1"))
	if err != nil {
		t.Fatalf("new proposer: %v", err)
	}

	_, err = p.Propose(context.Background(), proposal.Request{Prompt: "add phone"})
	var svcErr *proposal.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.Status != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", svcErr.Status)
	}
}

func TestProposer_EmptyPromptSkipsCall(t *testing.T) {
	p, err := New("test-key", WithBaseURL("http://127.0.0.1:0/v1"))
	if err != nil {
		t.Fatalf("new proposer: %v", err)
	}
	if _, err := p.Propose(context.Background(), proposal.Request{Prompt: " "}); !errors.Is(err, proposal.ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected missing key error")
	}
}
