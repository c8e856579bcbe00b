// Package hunter searches people by company domain and verifies email
// addresses with the Hunter.io API.
package hunter

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/service/contact"
	"voice-outbound-service/internal/service/remote"
)

const (
	ServiceName    = "hunter"
	DefaultBaseURL = "https://api.hunter.io/v2"

	// apiKeyHeader keeps the key out of URLs, which transport errors print.
	apiKeyHeader = "X-API-KEY"
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements contact.EnrichmentSource.
type Client struct {
	cfg    Config
	http   *remote.Client
	logger zerolog.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		http:   remote.NewClient(ServiceName, cfg.Timeout, nil),
		logger: log.With().Str("component", "enrichment-source").Str("service", ServiceName).Logger(),
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{apiKeyHeader: c.cfg.APIKey}
}

type domainSearchResponse struct {
	Data struct {
		Emails []struct {
			Value     string `json:"value"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Position  string `json:"position"`
		} `json:"emails"`
	} `json:"data"`
}

type verifierResponse struct {
	Data struct {
		Status string `json:"status"`
		Score  int    `json:"score"`
		Result string `json:"result"`
	} `json:"data"`
}

// SearchDomain lists the people Hunter knows at domain. Without an API key
// the result is empty.
func (c *Client) SearchDomain(ctx context.Context, company, domain string) ([]models.Contact, error) {
	if c.cfg.APIKey == "" {
		return []models.Contact{}, nil
	}

	q := url.Values{}
	q.Set("domain", contact.CleanDomain(domain))

	var resp domainSearchResponse
	if err := c.http.DoJSON(ctx, "domain search", http.MethodGet, c.cfg.BaseURL+"/domain-search?"+q.Encode(), c.headers(), nil, &resp); err != nil {
		return nil, err
	}

	people := make([]models.Contact, 0, len(resp.Data.Emails))
	for _, e := range resp.Data.Emails {
		people = append(people, models.Contact{
			FullName: strings.TrimSpace(e.FirstName + " " + e.LastName),
			Company:  company,
			Title:    e.Position,
			Email:    e.Value,
		})
	}
	c.logger.Debug().Str("domain", domain).Int("results", len(people)).Msg("Domain searched")
	return people, nil
}

// VerifyEmail checks one address. Without an API key the status is unknown.
func (c *Client) VerifyEmail(ctx context.Context, email string) (contact.Verification, error) {
	if c.cfg.APIKey == "" {
		return contact.Verification{Status: contact.StatusUnknown}, nil
	}

	q := url.Values{}
	q.Set("email", email)

	var resp verifierResponse
	if err := c.http.DoJSON(ctx, "email verifier", http.MethodGet, c.cfg.BaseURL+"/email-verifier?"+q.Encode(), c.headers(), nil, &resp); err != nil {
		return contact.Verification{Status: contact.StatusUnknown}, err
	}
	return contact.Verification{
		Status: resp.Data.Status,
		Score:  resp.Data.Score,
		Result: resp.Data.Result,
	}, nil
}
