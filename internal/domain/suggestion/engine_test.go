package suggestion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func chatServer(t *testing.T, status int, content string) (*httptest.Server, *chatRequest) {
	t.Helper()
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestChatEngine_Suggest(t *testing.T) {
	srv, got := chatServer(t, http.StatusOK, `{"recommended_food":{"name":"Quinoa","portion":"70g"}}`)
	e := NewChatEngine(srv.URL, "test-key", "gpt-4o-mini", 5*time.Second)

	answer, err := e.Suggest(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed struct {
		RecommendedFood struct {
			Name string `json:"name"`
		} `json:"recommended_food"`
	}
	if err := json.Unmarshal(answer, &parsed); err != nil || parsed.RecommendedFood.Name != "Quinoa" {
		t.Errorf("unexpected answer %s (%v)", answer, err)
	}
	if got.Model != "gpt-4o-mini" || got.ResponseFormat["type"] != "json_object" {
		t.Errorf("unexpected request: %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "hello" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
}

func TestChatEngine_StripsCodeFence(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, "```json\n{\"ok\":true}\n```")
	e := NewChatEngine(srv.URL, "test-key", "m", time.Second)

	answer, err := e.Suggest(context.Background(), "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(answer) != `{"ok":true}` {
		t.Errorf("unexpected answer %s", answer)
	}
}

func TestChatEngine_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{"server error", http.StatusInternalServerError, "{}"},
		{"not json", http.StatusOK, "Try quinoa instead."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := chatServer(t, tt.status, tt.content)
			e := NewChatEngine(srv.URL, "test-key", "m", time.Second)
			if _, err := e.Suggest(context.Background(), "p"); !errors.Is(err, ErrEngine) {
				t.Errorf("expected ErrEngine, got %v", err)
			}
		})
	}
}

func TestChatEngine_Unreachable(t *testing.T) {
	e := NewChatEngine("http://127.0.0.1:1/v1/chat/completions", "", "m", time.Second)
	if _, err := e.Suggest(context.Background(), "p"); !errors.Is(err, ErrEngine) {
		t.Errorf("expected ErrEngine, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	for in, want := range map[string]string{
		`{"a":1}`:               `{"a":1}`,
		"  {\"a\":1}\n":         `{"a":1}`,
		"```\n{\"a\":1}\n```":   `{"a":1}`,
		"```json {\"a\":1} ```": `{"a":1}`,
	} {
		if got := stripFences(in); got != want {
			t.Errorf("stripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
