package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/bna-dev/prospector/internal/domain"
)

func completionServer(t *testing.T, content string, tokens int, onRequest func(body []byte)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if onRequest != nil {
			onRequest(body)
		}

		resp := map[string]any{
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens": tokens,
				"total_tokens":  tokens,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestCompleter_Complete(t *testing.T) {
	var gotBody []byte
	server := completionServer(t, "the answer", 30, func(body []byte) {
		gotBody = body
	})
	defer server.Close()

	c := NewCompleter(&Config{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		ChatModel: "test-model",
		Logger:    zap.NewNop(),
	})

	result, err := c.Complete(context.Background(), domain.CompletionRequest{
		System:      "you are helpful",
		Messages:    []domain.Message{{Role: domain.RoleUser, Content: "question"}},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if result.Content != "the answer" {
		t.Errorf("Content = %q, expected 'the answer'", result.Content)
	}
	if result.TotalTokens != 30 {
		t.Errorf("TotalTokens = %d, expected 30", result.TotalTokens)
	}

	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Temperature float32 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	}
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 messages (system + user), got %d", len(req.Messages))
	}
	if req.Messages[0].Role != "system" {
		t.Errorf("first message role = %q, expected system", req.Messages[0].Role)
	}
	if req.MaxTokens != 1000 {
		t.Errorf("MaxTokens = %d, expected 1000", req.MaxTokens)
	}
}

func TestCompleter_JSONOutput(t *testing.T) {
	var gotBody []byte
	server := completionServer(t, `{"ok":true}`, 10, func(body []byte) {
		gotBody = body
	})
	defer server.Close()

	c := NewCompleter(&Config{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		ChatModel: "test-model",
		Logger:    zap.NewNop(),
	})

	_, err := c.Complete(context.Background(), domain.CompletionRequest{
		Messages:   []domain.Message{{Role: domain.RoleUser, Content: "give json"}},
		JSONOutput: true,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	var req struct {
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}
	if req.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format.type = %q, expected json_object", req.ResponseFormat.Type)
	}
}

func TestCompleter_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "overloaded",
				"type":    "server_error",
			},
		})
	}))
	defer server.Close()

	c := NewCompleter(&Config{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		ChatModel: "test-model",
		Logger:    zap.NewNop(),
	})

	_, err := c.Complete(context.Background(), domain.CompletionRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}
