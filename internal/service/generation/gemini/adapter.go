// Package gemini provides a Google Gemini generation adapter over the
// Generative Language REST API.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"

	"voice-outbound-service/internal/service/generation"
	"voice-outbound-service/internal/service/model"
	"voice-outbound-service/internal/service/remote"
)

// ProviderName identifies this adapter in config, logs and errors.
const ProviderName = "gemini"

const (
	// DefaultEndpoint is the public Generative Language API root.
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

	apiKeyHeader          = "x-goog-api-key"
	methodGenerateContent = "generateContent"
	listPageSize          = "1000"
	maxListPages          = 20
)

// DefaultFallbacks are tried in order when the preferred model is unavailable.
var DefaultFallbacks = []string{
	"gemini-1.5-flash-latest",
	"gemini-1.5-flash",
	"gemini-1.5-flash-001",
	"gemini-1.5-pro-latest",
	"gemini-1.5-pro",
	"gemini-1.5-pro-001",
	"gemini-1.0-pro-latest",
	"gemini-1.0-pro",
	"gemini-pro",
}

// Tiers rank discovered Gemini models.
var Tiers = model.Tiers{
	Excluded: []string{"embed", "aqa", "imagen"},
	Fast:     []string{"flash"},
	Capable:  []string{"pro"},
}

// Config holds Gemini adapter configuration.
type Config struct {
	APIKey    string
	Model     string
	Fallbacks []string
	Endpoint  string // empty uses DefaultEndpoint
	Timeout   time.Duration
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Model:     "gemini-2.5-pro-preview-03-25",
		Fallbacks: DefaultFallbacks,
		Endpoint:  DefaultEndpoint,
		Timeout:   60 * time.Second,
	}
}

// Adapter implements generation.Adapter using the Generative Language API.
type Adapter struct {
	http     *remote.Client
	endpoint string
	apiKey   string
	resolver *model.Resolver
	logger   zerolog.Logger
}

// New creates a Gemini adapter. A missing API key is a configuration error.
func New(cfg Config) (*Adapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, remote.New(remote.KindConfig, ProviderName, "init", "GEMINI_API_KEY is not set")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	a := &Adapter{
		http:     remote.NewClient(ProviderName, cfg.Timeout, nil).WithErrorDecoder(decodeError),
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		logger:   log.With().Str("component", "generation").Str("provider", ProviderName).Logger(),
	}
	a.resolver = model.NewResolver(model.Config{
		Provider:  ProviderName,
		Preferred: cfg.Model,
		Fallbacks: cfg.Fallbacks,
		Tiers:     Tiers,
	}, &catalog{adapter: a})
	return a, nil
}

// Provider returns "gemini".
func (a *Adapter) Provider() string {
	return ProviderName
}

// Model resolves the model on first use and returns the cached name afterwards.
func (a *Adapter) Model(ctx context.Context) (string, error) {
	return a.resolver.Resolve(ctx)
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content *content `json:"content"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type modelInfo struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

type listResponse struct {
	Models        []modelInfo `json:"models"`
	NextPageToken string      `json:"nextPageToken"`
}

// Generate sends one user turn and concatenates the text parts of the first candidate.
func (a *Adapter) Generate(ctx context.Context, req generation.Request) (string, error) {
	id, err := a.Model(ctx)
	if err != nil {
		return "", err
	}

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:     req.Params.Temperature,
			TopP:            req.Params.TopP,
			TopK:            req.Params.TopK,
			MaxOutputTokens: req.Params.MaxOutputTokens,
		},
	}

	var resp generateResponse
	if err := a.http.DoJSON(ctx, "generate content", http.MethodPost,
		a.modelURL(id)+":"+methodGenerateContent, a.headers(), body, &resp); err != nil {
		return "", err
	}

	text := candidateText(resp)
	if text == "" {
		ev := a.logger.Warn().Str("model", id).Str("purpose", string(req.Purpose))
		if resp.PromptFeedback != nil {
			ev = ev.Str("blockReason", resp.PromptFeedback.BlockReason)
		}
		ev.Msg("Empty generation output")
	}
	return text, nil
}

func candidateText(resp generateResponse) string {
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			return text
		}
	}
	return ""
}

func (a *Adapter) headers() map[string]string {
	return map[string]string{apiKeyHeader: a.apiKey}
}

func (a *Adapter) modelURL(id string) string {
	return a.endpoint + "/" + resourceName(id)
}

// decodeError reads the Google error envelope {"error":{"code","message"}}.
func decodeError(resp *http.Response, body []byte) string {
	var gerr *googleapi.Error
	if errors.As(googleapi.CheckResponseWithBody(resp, body), &gerr) {
		return gerr.Message
	}
	return ""
}

// catalog exposes models.get and models.list to the resolver.
type catalog struct {
	adapter *Adapter
}

// Validate reads the model's metadata without generating anything.
func (c *catalog) Validate(ctx context.Context, id string) error {
	var m modelInfo
	if err := c.adapter.http.DoJSON(ctx, "get model", http.MethodGet,
		c.adapter.modelURL(id), c.adapter.headers(), nil, &m); err != nil {
		return err
	}
	if m.DisplayName == "" && m.Name == "" {
		return remote.New(remote.KindDecode, ProviderName, "get model", "model has no name")
	}
	return nil
}

// List returns the models that support generateContent, without the "models/" prefix.
func (c *catalog) List(ctx context.Context) ([]string, error) {
	var ids []string
	token := ""
	for page := 0; page < maxListPages; page++ {
		q := url.Values{}
		q.Set("pageSize", listPageSize)
		if token != "" {
			q.Set("pageToken", token)
		}

		var resp listResponse
		if err := c.adapter.http.DoJSON(ctx, "list models", http.MethodGet,
			c.adapter.endpoint+"/models?"+q.Encode(), c.adapter.headers(), nil, &resp); err != nil {
			return ids, err
		}
		for _, m := range resp.Models {
			if supports(m.SupportedGenerationMethods, methodGenerateContent) {
				ids = append(ids, strings.TrimPrefix(m.Name, "models/"))
			}
		}
		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken
	}
	return ids, nil
}

func supports(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

func resourceName(id string) string {
	if strings.HasPrefix(id, "models/") {
		return id
	}
	return "models/" + id
}
