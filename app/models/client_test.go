package models

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

func newFakeProvider(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *LLMClient) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client := NewLLMClient(ClientConfig{APIKey: "test-key", BaseURL: ts.URL, Dimension: 3})
	return ts, client
}

func embeddingsResponse(inputs []string) map[string]any {
	data := make([]map[string]any, len(inputs))
	// Deliberately out of order so placement must follow the index field.
	for i := range inputs {
		j := len(inputs) - 1 - i
		data[i] = map[string]any{
			"object":    "embedding",
			"index":     j,
			"embedding": []float32{float32(j), float32(j) + 0.5, 0},
		}
	}
	return map[string]any{"object": "list", "data": data}
}

func TestNewWithoutAPIKey(t *testing.T) {
	embedder, completer := New(ClientConfig{})
	if embedder.Available() || completer.Available() {
		t.Fatalf("expected both capabilities disabled")
	}

	vectors := embedder.EmbedBatch(context.Background(), []string{"a", "b"})
	if len(vectors) != 2 || vectors[0] != nil || vectors[1] != nil {
		t.Fatalf("expected absent vectors, got %#v", vectors)
	}

	if _, err := completer.Complete(context.Background(), "sys", "usr"); err == nil ||
		!strings.Contains(err.Error(), "OPENAI_API_KEY not set") {
		t.Fatalf("expected unavailable error with reason, got %v", err)
	}
}

func TestEmbedBatchEmpty(t *testing.T) {
	_, client := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected for empty batch")
	})
	vectors := client.EmbedBatch(context.Background(), nil)
	if len(vectors) != 0 {
		t.Fatalf("unexpected vectors: %#v", vectors)
	}
}

func TestEmbedBatchOrderAndCleaning(t *testing.T) {
	var got embeddingsRequest
	_, client := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(embeddingsResponse(got.Input))
	})

	vectors := client.EmbedBatch(context.Background(), []string{"first\nline", "second"})
	if len(got.Input) != 2 || got.Input[0] != "first line" {
		t.Fatalf("newlines not cleaned: %#v", got.Input)
	}
	if len(vectors) != 2 {
		t.Fatalf("unexpected vector count: %d", len(vectors))
	}
	for i, vec := range vectors {
		if vec == nil || vec[0] != float32(i) {
			t.Fatalf("vector %d out of order: %#v", i, vec)
		}
	}
}

func TestEmbedBatchSplitsLargeBatches(t *testing.T) {
	var sizes []int
	_, client := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		sizes = append(sizes, len(req.Input))
		json.NewEncoder(w).Encode(embeddingsResponse(req.Input))
	})

	texts := make([]string, 150)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	vectors := client.EmbedBatch(context.Background(), texts)
	if len(sizes) != 2 || sizes[0] != 100 || sizes[1] != 50 {
		t.Fatalf("unexpected sub-batch sizes: %v", sizes)
	}
	for i, vec := range vectors {
		if vec == nil {
			t.Fatalf("vector %d missing", i)
		}
	}
}

func TestEmbedBatchProviderFailure(t *testing.T) {
	_, client := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	})

	vectors := client.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if len(vectors) != 3 {
		t.Fatalf("failure must preserve length, got %d", len(vectors))
	}
	for i, vec := range vectors {
		if vec != nil {
			t.Fatalf("vector %d should be absent after failure: %#v", i, vec)
		}
	}
}

func TestComplete(t *testing.T) {
	var got chatRequest
	_, client := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  the answer  "}},
			},
		})
	})

	answer, err := client.Complete(context.Background(), "be helpful", "what is up?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "the answer" {
		t.Fatalf("answer not trimmed: %q", answer)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "what is up?" {
		t.Fatalf("unexpected messages: %#v", got.Messages)
	}
	if got.MaxTokens != 500 || got.Temperature != 0.3 {
		t.Fatalf("unexpected sampling settings: max_tokens=%d temperature=%v", got.MaxTokens, got.Temperature)
	}
}

func TestCompleteProviderFailure(t *testing.T) {
	_, client := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	})
	if _, err := client.Complete(context.Background(), "sys", "usr"); err == nil {
		t.Fatalf("expected error from provider failure")
	}
}
