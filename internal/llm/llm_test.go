package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clipstory/clipstory/internal/logging"
)

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestOpenAI_Generate(t *testing.T) {
	var gotAuth, gotModel, gotPrompt string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotModel = body.Model
		if len(body.Messages) == 1 {
			gotPrompt = body.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`[{"scene":1}]`))
	}))
	defer server.Close()

	gen := NewOpenAI("sk-test", "test-model", server.URL, 5*time.Second, logging.Discard())
	out, err := gen.Generate(context.Background(), "write a script")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if out != `[{"scene":1}]` {
		t.Errorf("output = %q", out)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth = %q, want %q", gotAuth, "Bearer sk-test")
	}
	if gotModel != "test-model" {
		t.Errorf("model = %q, want test-model", gotModel)
	}
	if gotPrompt != "write a script" {
		t.Errorf("prompt = %q", gotPrompt)
	}
}

func TestOpenAI_Generate_StatusError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	gen := NewOpenAI("sk-test", "", server.URL, 5*time.Second, logging.Discard())
	_, err := gen.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error %q should mention the status", err.Error())
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retries)", calls)
	}
}

func TestOpenAI_Generate_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion("   "))
	}))
	defer server.Close()

	gen := NewOpenAI("sk-test", "m", server.URL, 5*time.Second, logging.Discard())
	if _, err := gen.Generate(context.Background(), "prompt"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("error = %v, want ErrEmptyResponse", err)
	}
}

func TestGemini_Generate(t *testing.T) {
	var gotKey, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": `[{"scene":1,"narration":"n","keyword":"k"}]`}},
				},
			}},
		})
	}))
	defer server.Close()

	gen, err := newGemini(context.Background(), "g-key", "gemini-test", server.URL+"/", 5*time.Second, logging.Discard())
	if err != nil {
		t.Fatalf("newGemini() error = %v", err)
	}

	out, err := gen.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(out, `"keyword":"k"`) {
		t.Errorf("output = %q", out)
	}
	if !strings.HasSuffix(gotPath, "models/gemini-test:generateContent") {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "g-key" {
		t.Errorf("api key header = %q", gotKey)
	}
}

func TestNewGemini_RequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), "", "", time.Second, logging.Discard()); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	gen, err := New(context.Background(), Config{Provider: "OpenAI", OpenAIAPIKey: "k"}, logging.Discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	o, ok := gen.(*OpenAI)
	if !ok {
		t.Fatalf("New() returned %T, want *OpenAI", gen)
	}
	if o.model != defaultOpenAIModel || o.timeout != defaultTimeout {
		t.Errorf("defaults not applied: model=%q timeout=%s", o.model, o.timeout)
	}

	gen, err = New(context.Background(), Config{GeminiAPIKey: "k"}, logging.Discard())
	if err != nil {
		t.Fatalf("New() gemini error = %v", err)
	}
	if _, ok := gen.(*Gemini); !ok {
		t.Fatalf("New() returned %T, want *Gemini", gen)
	}

	if _, err := New(context.Background(), Config{Provider: "claude"}, logging.Discard()); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
