// Package kimi provides a Moonshot Kimi generation adapter over the
// OpenAI-compatible chat completions API.
package kimi

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"voice-outbound-service/internal/observability/metrics"
	"voice-outbound-service/internal/service/generation"
	"voice-outbound-service/internal/service/model"
	"voice-outbound-service/internal/service/remote"
)

const ProviderName = "kimi"

// DefaultBaseURL is the Moonshot OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.moonshot.cn/v1"

var DefaultFallbacks = []string{
	"moonshot-v1-8k",
	"moonshot-v1-32k",
	"moonshot-v1-128k",
}

var Tiers = model.Tiers{
	Fast:    []string{"8k"},
	Capable: []string{"32k", "128k"},
}

type Config struct {
	APIKey    string
	Model     string
	Fallbacks []string
	BaseURL   string
	Timeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Model:     "moonshot-v1-8k",
		Fallbacks: DefaultFallbacks,
		BaseURL:   DefaultBaseURL,
		Timeout:   60 * time.Second,
	}
}

// Adapter implements generation.Adapter on top of go-openai.
type Adapter struct {
	client   *openai.Client
	resolver *model.Resolver
	timeout  time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// New creates a Kimi adapter. A missing API key is a configuration error.
func New(cfg Config) (*Adapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, remote.New(remote.KindConfig, ProviderName, "init", "KIMI_API_KEY is not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	a := &Adapter{
		client:  openai.NewClientWithConfig(oc),
		timeout: cfg.Timeout,
		logger:  log.With().Str("component", "generation").Str("provider", ProviderName).Logger(),
		metrics: metrics.DefaultMetrics,
	}
	a.resolver = model.NewResolver(model.Config{
		Provider:  ProviderName,
		Preferred: cfg.Model,
		Fallbacks: cfg.Fallbacks,
		Tiers:     Tiers,
	}, a)
	return a, nil
}

func (a *Adapter) Provider() string {
	return ProviderName
}

func (a *Adapter) Model(ctx context.Context) (string, error) {
	return a.resolver.Resolve(ctx)
}

// Generate sends the prompt as a single user message.
func (a *Adapter) Generate(ctx context.Context, req generation.Request) (string, error) {
	id, err := a.Model(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: id,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: float32(req.Params.Temperature),
		TopP:        float32(req.Params.TopP),
		MaxTokens:   req.Params.MaxOutputTokens,
	})
	if err != nil {
		err = a.classify("chat completion", err)
	}
	remote.Observe(a.metrics, ProviderName, "chat completion", start, err)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		a.logger.Warn().Str("model", id).Str("purpose", string(req.Purpose)).Msg("Empty generation output")
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Validate retrieves the model without generating anything.
func (a *Adapter) Validate(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	_, err := a.client.GetModel(ctx, id)
	if err != nil {
		err = a.classify("get model", err)
	}
	remote.Observe(a.metrics, ProviderName, "get model", start, err)
	return err
}

// List returns every model id visible to the key.
func (a *Adapter) List(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.client.ListModels(ctx)
	if err != nil {
		err = a.classify("list models", err)
	}
	remote.Observe(a.metrics, ProviderName, "list models", start, err)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (a *Adapter) classify(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := remote.FromStatus(ProviderName, op, apiErr.HTTPStatusCode, apiErr.Message)
		e.Cause = err
		return e
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		e := remote.FromStatus(ProviderName, op, reqErr.HTTPStatusCode, msg)
		e.Cause = err
		return e
	}
	return remote.FromTransport(ProviderName, op, err, a.timeout)
}
