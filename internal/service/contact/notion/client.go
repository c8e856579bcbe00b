// Package notion reads contact records from a Notion database.
package notion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/service/remote"
)

const (
	ServiceName    = "notion"
	DefaultBaseURL = "https://api.notion.com/v1"
	APIVersion     = "2022-06-28"
)

// Database column names.
const (
	propName      = "Nom"
	propTitle     = "Titre"
	propAccount   = "Compte"
	propStatus    = "Statut"
	propSector    = "Secteur"
	propSize      = "Taille"
	propEmail     = "Email"
	propNotes     = "Notes"
	propSituation = "Situation actuelle"
	propWebsite   = "Site web"
	propLanguage  = "Langue"
)

type Config struct {
	APIKey     string
	DatabaseID string
	BaseURL    string
	Timeout    time.Duration
}

// Client implements contact.NotesSource.
type Client struct {
	cfg    Config
	http   *remote.Client
	logger zerolog.Logger
}

// NewClient creates a client. Without an API key or database ID every lookup is a miss.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		http:   remote.NewClient(ServiceName, cfg.Timeout, nil),
		logger: log.With().Str("component", "notes-source").Str("service", ServiceName).Logger(),
	}
}

// Enabled reports whether the client has what it needs to query.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != "" && c.cfg.DatabaseID != ""
}

type queryRequest struct {
	Filter titleFilter `json:"filter"`
}

type titleFilter struct {
	Property string        `json:"property"`
	Title    containsMatch `json:"title"`
}

type containsMatch struct {
	Contains string `json:"contains"`
}

type queryResponse struct {
	Results []page `json:"results"`
}

type page struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

type property struct {
	Type     string       `json:"type"`
	Title    []richText   `json:"title"`
	RichText []richText   `json:"rich_text"`
	Select   *selectValue `json:"select"`
	URL      *string      `json:"url"`
}

type richText struct {
	PlainText string `json:"plain_text"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text"`
}

type selectValue struct {
	Name string `json:"name"`
}

// FindByName queries by first name and maps the first result.
func (c *Client) FindByName(ctx context.Context, fullName string) (*models.Contact, error) {
	if !c.Enabled() {
		c.logger.Debug().Msg("Notes source not configured, skipping lookup")
		return nil, nil
	}

	first := fullName
	if fields := strings.Fields(fullName); len(fields) > 0 {
		first = fields[0]
	}

	var resp queryResponse
	err := c.http.DoJSON(ctx, "query database", http.MethodPost,
		fmt.Sprintf("%s/databases/%s/query", c.cfg.BaseURL, c.cfg.DatabaseID),
		map[string]string{
			"Authorization":  "Bearer " + c.cfg.APIKey,
			"Notion-Version": APIVersion,
		},
		queryRequest{Filter: titleFilter{Property: propName, Title: containsMatch{Contains: first}}},
		&resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Str("query", first).Int("results", len(resp.Results)).Msg("Notes source queried")
	if len(resp.Results) == 0 {
		return nil, nil
	}
	contact := toContact(resp.Results[0])
	return &contact, nil
}

// SaveInteraction is disabled: the database is read-only for this service.
func (c *Client) SaveInteraction(_ context.Context, fullName, _ string) (bool, error) {
	c.logger.Debug().Str("contact", fullName).Msg("Interaction logging disabled")
	return true, nil
}

func toContact(p page) models.Contact {
	props := p.Properties
	contact := models.Contact{
		FullName:          title(props[propName]),
		Company:           text(props[propAccount]),
		Title:             selected(props[propTitle]),
		Status:            selected(props[propStatus]),
		Sector:            selected(props[propSector]),
		CompanySize:       selected(props[propSize]),
		PreferredLanguage: selected(props[propLanguage]),
		Email:             text(props[propEmail]),
		Website:           url(props[propWebsite]),
	}

	notes := text(props[propNotes])
	situation := text(props[propSituation])
	if notes != "" || situation != "" {
		contact.Notes = &models.EnrichedNotes{RawNotes: notes, Narrative: situation}
	}
	return contact
}

func title(p property) string {
	if p.Type != "title" || len(p.Title) == 0 {
		return ""
	}
	return content(p.Title[0])
}

// text concatenates every block of a rich_text property.
func text(p property) string {
	if p.Type != "rich_text" {
		return ""
	}
	var b strings.Builder
	for _, rt := range p.RichText {
		b.WriteString(content(rt))
	}
	return b.String()
}

func selected(p property) string {
	if p.Type != "select" || p.Select == nil {
		return ""
	}
	return p.Select.Name
}

func url(p property) string {
	if p.Type != "url" || p.URL == nil {
		return ""
	}
	return *p.URL
}

func content(rt richText) string {
	if rt.Text != nil {
		return rt.Text.Content
	}
	return rt.PlainText
}
