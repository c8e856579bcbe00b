package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		want    Kind
	}{
		{"too many requests", http.StatusTooManyRequests, "", KindRateLimit},
		{"quota text on 400", http.StatusBadRequest, "Quota exceeded for this project", KindRateLimit},
		{"resource exhausted", http.StatusInternalServerError, "RESOURCE_EXHAUSTED", KindRateLimit},
		{"unauthorized", http.StatusUnauthorized, "", KindConfig},
		{"forbidden", http.StatusForbidden, "no access", KindConfig},
		{"server error", http.StatusBadGateway, "upstream", KindHTTP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus("gradium", "tts", tt.status, tt.message)
			if err.Kind != tt.want {
				t.Errorf("expected kind %s, got %s", tt.want, err.Kind)
			}
			if err.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, err.Status)
			}
		})
	}
}

func TestRateLimitCarriesRemediation(t *testing.T) {
	err := FromStatus("gemini", "generate", http.StatusTooManyRequests, "quota exceeded")
	if err.Remediation != RemediationRateLimit {
		t.Errorf("expected remediation %q, got %q", RemediationRateLimit, err.Remediation)
	}
	if !strings.Contains(err.Error(), RemediationRateLimit) {
		t.Errorf("expected message to contain remediation, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "gemini generate") {
		t.Errorf("expected message to name the service, got %q", err.Error())
	}
}

func TestFromTransport_TimeoutIsDistinct(t *testing.T) {
	err := FromTransport("notion", "query", fmt.Errorf("post: %w", context.DeadlineExceeded), 30*time.Second)
	if err.Kind != KindTimeout {
		t.Errorf("expected timeout, got %s", err.Kind)
	}

	err = FromTransport("notion", "query", errors.New("connection refused"), 30*time.Second)
	if err.Kind != KindConnection {
		t.Errorf("expected connection, got %s", err.Kind)
	}
}

func TestWrapKeepsInnerClassification(t *testing.T) {
	inner := New(KindRateLimit, "kimi", "chat", "quota")
	wrapped := fmt.Errorf("generate_script: %w", inner)

	if got := Wrap(KindHTTP, "pipeline", "generate", wrapped); !IsKind(got, KindRateLimit) {
		t.Errorf("expected rate_limit to survive wrapping, got %v", KindOf(got))
	}
	if Wrap(KindHTTP, "x", "y", nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestClient_DoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient("test", time.Second, srv.Client())

	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.DoJSON(context.Background(), "get", http.MethodGet, srv.URL, map[string]string{"X-Key": "secret"}, nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.OK {
		t.Error("expected ok=true")
	}

	err := c.DoJSON(context.Background(), "get", http.MethodGet, srv.URL, nil, nil, &out)
	if !IsKind(err, KindConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient("slow", 50*time.Millisecond, srv.Client())
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	_, err := c.Do(context.Background(), "get", req)
	if !IsKind(err, KindTimeout) {
		t.Errorf("expected timeout error, got %v", err)
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient("test", time.Second, srv.Client())
	var out map[string]any
	err := c.DoJSON(context.Background(), "get", http.MethodGet, srv.URL, nil, nil, &out)
	if !IsKind(err, KindDecode) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestClient_RedactsQueryCredentials(t *testing.T) {
	c := NewClient("hunter", time.Second, nil)

	err := c.DoJSON(context.Background(), "domain search", http.MethodGet,
		"http://127.0.0.1:1/domain-search?api_key=SECRET&domain=acme.com", nil, nil, nil)
	if !IsKind(err, KindConnection) {
		t.Fatalf("expected connection error, got %v", err)
	}
	if strings.Contains(err.Error(), "SECRET") {
		t.Errorf("expected the key to be redacted in %q", err.Error())
	}
	if !strings.Contains(err.Error(), "domain=acme.com") {
		t.Errorf("expected the other parameters to remain in %q", err.Error())
	}
}

func TestClient_ErrorDecoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad prompt"}}`))
	}))
	defer srv.Close()

	c := NewClient("gemini", time.Second, nil).WithErrorDecoder(func(_ *http.Response, body []byte) string {
		if strings.Contains(string(body), "bad prompt") {
			return "bad prompt"
		}
		return ""
	})

	err := c.DoJSON(context.Background(), "generate content", http.MethodPost, srv.URL, nil, map[string]string{}, nil)
	var typed *Error
	if !errors.As(err, &typed) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if typed.Message != "bad prompt" || typed.Kind != KindHTTP {
		t.Errorf("expected decoded http error, got %+v", typed)
	}
}
