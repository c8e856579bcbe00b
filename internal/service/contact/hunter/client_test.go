package hunter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voice-outbound-service/internal/service/contact"
	"voice-outbound-service/internal/service/remote"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/domain-search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "k" || r.URL.Query().Has("api_key") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if d := r.URL.Query().Get("domain"); d != "acme.com" {
			t.Errorf("expected cleaned domain acme.com, got %s", d)
		}
		_, _ = w.Write([]byte(`{"data":{"emails":[
			{"value":"jean.dupont@acme.com","first_name":"Jean","last_name":"Dupont","position":"CRO"},
			{"value":"marie@acme.com","first_name":"Marie","last_name":"","position":null}
		]}}`))
	})
	mux.HandleFunc("/email-verifier", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("email") == "limit@acme.com" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"status":"valid","score":96,"result":"deliverable"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchDomain(t *testing.T) {
	srv := newServer(t)
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Timeout: time.Second})

	people, err := c.SearchDomain(context.Background(), "Acme", "https://www.acme.com/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("expected 2 people, got %d", len(people))
	}
	if people[0].FullName != "Jean Dupont" || people[0].Title != "CRO" || people[0].Email != "jean.dupont@acme.com" || people[0].Company != "Acme" {
		t.Errorf("unexpected first person %+v", people[0])
	}
	if people[1].FullName != "Marie" || people[1].Title != "" {
		t.Errorf("unexpected second person %+v", people[1])
	}
}

func TestSearchDomain_Unauthorized(t *testing.T) {
	srv := newServer(t)
	c := NewClient(Config{APIKey: "wrong", BaseURL: srv.URL})

	if _, err := c.SearchDomain(context.Background(), "Acme", "acme.com"); !remote.IsKind(err, remote.KindConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	srv := newServer(t)
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	v, err := c.VerifyEmail(context.Background(), "jean@acme.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != "valid" || v.Score != 96 || v.Result != "deliverable" {
		t.Errorf("unexpected verification %+v", v)
	}

	v, err = c.VerifyEmail(context.Background(), "limit@acme.com")
	if !remote.IsKind(err, remote.KindRateLimit) || v.Status != contact.StatusUnknown {
		t.Errorf("expected rate limit with unknown status, got %+v, %v", v, err)
	}
}

func TestWithoutKey(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})

	people, err := c.SearchDomain(context.Background(), "Acme", "acme.com")
	if err != nil || people == nil || len(people) != 0 {
		t.Errorf("expected empty non-nil result, got %v, %v", people, err)
	}
	v, err := c.VerifyEmail(context.Background(), "jean@acme.com")
	if err != nil || v.Status != contact.StatusUnknown || v.Score != 0 {
		t.Errorf("expected neutral verification, got %+v, %v", v, err)
	}
}

func TestConnectionErrorHidesKey(t *testing.T) {
	c := NewClient(Config{APIKey: "SECRET-HUNTER-KEY", BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := c.SearchDomain(context.Background(), "Acme", "acme.com")
	if !remote.IsKind(err, remote.KindConnection) {
		t.Fatalf("expected connection error, got %v", err)
	}
	if strings.Contains(err.Error(), "SECRET-HUNTER-KEY") {
		t.Errorf("expected the key to stay out of %q", err.Error())
	}

	_, err = c.VerifyEmail(context.Background(), "jean@acme.com")
	if err == nil || strings.Contains(err.Error(), "SECRET-HUNTER-KEY") {
		t.Errorf("expected an error without the key, got %v", err)
	}
}
