package kimi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voice-outbound-service/internal/service/generation"
	"voice-outbound-service/internal/service/remote"
)

func newServer(t *testing.T, known map[string]bool, chat http.HandlerFunc) *Adapter {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		var data []map[string]any
		for id := range known {
			data = append(data, map[string]any{"id": id, "object": "model"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
	})
	mux.HandleFunc("/v1/models/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/v1/models/")
		if !known[id] {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"resource_not_found_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "object": "model"})
	})
	mux.HandleFunc("/v1/chat/completions", chat)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL + "/v1"
	cfg.Timeout = 2 * time.Second
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	return a
}

func reply(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []any{map[string]any{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": text},
				"finish_reason": "stop",
			}},
		})
	}
}

func TestNew_MissingKey(t *testing.T) {
	if _, err := New(DefaultConfig()); !remote.IsKind(err, remote.KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestGenerate(t *testing.T) {
	var got map[string]any
	a := newServer(t, map[string]bool{"moonshot-v1-8k": true}, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		reply("  en \n")(w, r)
	})

	out, err := a.Generate(context.Background(), generation.Request{
		Purpose: generation.PurposeLanguage,
		Prompt:  "which language?",
		Params:  generation.LanguageParams,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "en" {
		t.Errorf("expected trimmed answer, got %q", out)
	}
	if got["model"] != "moonshot-v1-8k" {
		t.Errorf("expected model moonshot-v1-8k, got %v", got["model"])
	}
	if got["max_tokens"] != float64(10) {
		t.Errorf("expected max_tokens 10, got %v", got["max_tokens"])
	}
}

func TestModel_Discovery(t *testing.T) {
	a := newServer(t, map[string]bool{"moonshot-v1-128k": true}, reply("ok"))

	id, err := a.Model(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "moonshot-v1-128k" {
		t.Errorf("expected moonshot-v1-128k, got %s", id)
	}
}

func TestGenerate_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   remote.Kind
	}{
		{"rate limit", http.StatusTooManyRequests, `{"error":{"message":"rate limit reached","type":"rate_limit_reached_error"}}`, remote.KindRateLimit},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"Invalid Authentication","type":"invalid_authentication_error"}}`, remote.KindConfig},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"internal","type":"server_error"}}`, remote.KindHTTP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newServer(t, map[string]bool{"moonshot-v1-8k": true}, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := a.Generate(context.Background(), generation.Request{Prompt: "x"})
			if kind := remote.KindOf(err); kind != tt.want {
				t.Errorf("expected %s, got %s (%v)", tt.want, kind, err)
			}
		})
	}
}
