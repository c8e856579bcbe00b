// Package gradium synthesizes speech with the Gradium TTS API, which answers
// with an NDJSON stream of base64 PCM chunks.
package gradium

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/observability/metrics"
	"voice-outbound-service/internal/service/audio"
	"voice-outbound-service/internal/service/remote"
	"voice-outbound-service/internal/service/synthesis"
)

const (
	ProviderName   = "gradium"
	DefaultBaseURL = "https://eu.api.gradium.ai"
	DefaultVoice   = "cNKK8o0PXiqK6BZT"
	ttsPath        = "/api/post/speech/tts"
)

var catalog = []synthesis.Voice{
	{ID: DefaultVoice, Name: "Brahim (custom, FR)", Language: models.LanguageFrench},
	{ID: DefaultVoice, Name: "Brahim (custom, EN)", Language: models.LanguageEnglish},
	{ID: "Elise", Name: "Elise, French female", Language: models.LanguageFrench},
	{ID: "Emma", Name: "Emma, US English female", Language: models.LanguageEnglish},
	{ID: "Kent", Name: "Kent, US English male", Language: models.LanguageEnglish},
}

type Config struct {
	APIKey       string
	BaseURL      string
	Voice        string
	SampleRateHz int
	Timeout      time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Voice:        DefaultVoice,
		SampleRateHz: audio.GradiumFormat.SampleRate,
		Timeout:      60 * time.Second,
	}
}

// Client implements synthesis.Synthesizer.
type Client struct {
	cfg     Config
	http    *remote.Client
	decoder *audio.Decoder
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewClient creates a Gradium client. The API key is required.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, remote.New(remote.KindConfig, ProviderName, "init", "GRADIUM_API_KEY is not set")
	}
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if !strings.Contains(cfg.BaseURL, "://") {
		cfg.BaseURL = "https://" + cfg.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Voice == "" {
		cfg.Voice = def.Voice
	}
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = def.SampleRateHz
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	format := audio.GradiumFormat
	format.SampleRate = cfg.SampleRateHz
	if err := format.Validate(); err != nil {
		return nil, remote.Wrap(remote.KindConfig, ProviderName, "init", err)
	}

	return &Client{
		cfg:     cfg,
		http:    remote.NewClient(ProviderName, cfg.Timeout, nil),
		decoder: audio.NewDecoder(format),
		logger:  log.With().Str("component", "synthesis").Str("provider", ProviderName).Logger(),
		metrics: metrics.DefaultMetrics,
	}, nil
}

func (c *Client) Provider() string {
	return ProviderName
}

func (c *Client) Voices(lang models.Language) []synthesis.Voice {
	return synthesis.FilterVoices(catalog, lang)
}

type ttsRequest struct {
	Text     string  `json:"text"`
	Voice    string  `json:"voice"`
	Language string  `json:"language"`
	Speed    float64 `json:"speed"`
	APIKey   string  `json:"api_key"`
}

// Synthesize posts the text and decodes the NDJSON stream into a WAV container.
func (c *Client) Synthesize(ctx context.Context, req synthesis.Request) (*models.AudioArtifact, error) {
	voice := req.Voice
	if voice == "" || voice == "default" {
		voice = c.cfg.Voice
	}
	speed := req.Speed
	if speed <= 0 {
		speed = 1
	}

	payload, err := json.Marshal(ttsRequest{
		Text:     req.Text,
		Voice:    voice,
		Language: string(req.Language),
		Speed:    speed,
		APIKey:   c.cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+ttsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, remote.Wrap(remote.KindConfig, ProviderName, "tts", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("voice", voice).Str("language", string(req.Language)).Int("chars", len(req.Text)).Msg("Requesting synthesis")
	body, err := c.http.Do(ctx, "tts", httpReq)
	if err != nil {
		return nil, err
	}

	wav, stats, err := c.decoder.Decode(bytes.NewReader(body))
	if err != nil {
		// The body is already in memory, so every failure here is a payload problem.
		e := remote.New(remote.KindDecode, ProviderName, "tts", err.Error())
		e.Cause = err
		return nil, e
	}

	c.logger.Info().
		Int("audioChunks", stats.AudioChunks).
		Int("textMessages", stats.TextMessages).
		Int("skipped", stats.Skipped).
		Int("pcmBytes", stats.PCMBytes).
		Msg("Synthesis stream decoded")
	c.metrics.RecordAudio(ProviderName, len(wav))

	return &models.AudioArtifact{
		Data:            wav,
		Format:          models.AudioFormatWAV,
		DurationSeconds: audio.EstimateDuration(req.Text, speed),
		Language:        req.Language,
	}, nil
}
