// Package polly synthesizes speech with Amazon Polly. Polly returns raw PCM,
// which is wrapped in the same WAV container as the Gradium stream.
package polly

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/observability/metrics"
	"voice-outbound-service/internal/service/audio"
	"voice-outbound-service/internal/service/remote"
	"voice-outbound-service/internal/service/synthesis"
)

const ProviderName = "polly"

type synthClient interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

var defaultVoices = map[models.Language]string{
	models.LanguageFrench:  "Lea",
	models.LanguageEnglish: "Joanna",
	models.LanguageSpanish: "Lucia",
	models.LanguageGerman:  "Vicki",
	models.LanguageItalian: "Bianca",
}

var catalog = []synthesis.Voice{
	{ID: "Lea", Name: "Léa, French female", Language: models.LanguageFrench},
	{ID: "Remi", Name: "Rémi, French male", Language: models.LanguageFrench},
	{ID: "Joanna", Name: "Joanna, US English female", Language: models.LanguageEnglish},
	{ID: "Matthew", Name: "Matthew, US English male", Language: models.LanguageEnglish},
	{ID: "Lucia", Name: "Lucia, Castilian Spanish female", Language: models.LanguageSpanish},
	{ID: "Vicki", Name: "Vicki, German female", Language: models.LanguageGerman},
	{ID: "Bianca", Name: "Bianca, Italian female", Language: models.LanguageItalian},
}

type Config struct {
	Region       string
	Engine       string
	SampleRateHz int
	Timeout      time.Duration
}

func DefaultConfig() Config {
	return Config{
		Region:       "eu-west-1",
		Engine:       "neural",
		SampleRateHz: 16000,
		Timeout:      60 * time.Second,
	}
}

// Client implements synthesis.Synthesizer. The AWS client is built lazily
// from the default credential chain on first use.
type Client struct {
	mu      sync.Mutex
	client  synthClient
	cfg     Config
	format  audio.Format
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewClient(cfg Config) (*Client, error) {
	return NewClientWithSDK(cfg, nil)
}

// NewClientWithSDK uses client instead of building one from the environment.
func NewClientWithSDK(cfg Config, client synthClient) (*Client, error) {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = def.Region
	}
	if strings.TrimSpace(cfg.Engine) == "" {
		cfg.Engine = def.Engine
	}
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = def.SampleRateHz
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	// Polly PCM is always signed 16-bit little-endian mono.
	format := audio.Format{SampleRate: cfg.SampleRateHz, Channels: 1, SampleWidth: 2}
	if err := format.Validate(); err != nil {
		return nil, remote.Wrap(remote.KindConfig, ProviderName, "init", err)
	}

	return &Client{
		client:  client,
		cfg:     cfg,
		format:  format,
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

// Synthesize requests PCM and wraps it in a WAV container. A speed other
// than 1 is sent as an SSML prosody rate.
func (c *Client) Synthesize(ctx context.Context, req synthesis.Request) (*models.AudioArtifact, error) {
	client, err := c.resolveClient(ctx)
	if err != nil {
		return nil, err
	}

	voice := req.Voice
	if voice == "" || voice == "default" {
		voice = defaultVoices[req.Language]
		if voice == "" {
			voice = defaultVoices[models.LanguageEnglish]
		}
	}
	speed := req.Speed
	if speed <= 0 {
		speed = 1
	}

	engine := pollytypes.EngineStandard
	if strings.EqualFold(c.cfg.Engine, "neural") {
		engine = pollytypes.EngineNeural
	}

	text, textType := req.Text, pollytypes.TextTypeText
	if speed != 1 {
		text, textType = ssml(req.Text, speed), pollytypes.TextTypeSsml
	}
	sampleRate := strconv.Itoa(c.cfg.SampleRateHz)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	pcm, err := c.synthesize(ctx, client, &polly.SynthesizeSpeechInput{
		Engine:       engine,
		OutputFormat: pollytypes.OutputFormatPcm,
		SampleRate:   &sampleRate,
		Text:         &text,
		TextType:     textType,
		VoiceId:      pollytypes.VoiceId(voice),
	})
	remote.Observe(c.metrics, ProviderName, "synthesize speech", start, err)
	if err != nil {
		return nil, err
	}

	wav, err := audio.WrapPCM(pcm, c.format)
	if err != nil {
		return nil, remote.Wrap(remote.KindDecode, ProviderName, "synthesize speech", err)
	}
	c.metrics.RecordAudio(ProviderName, len(wav))
	c.logger.Info().Str("voice", voice).Int("pcmBytes", len(pcm)).Msg("Speech synthesized")

	return &models.AudioArtifact{
		Data:            wav,
		Format:          models.AudioFormatWAV,
		DurationSeconds: audio.EstimateDuration(req.Text, speed),
		Language:        req.Language,
	}, nil
}

func (c *Client) synthesize(ctx context.Context, client synthClient, in *polly.SynthesizeSpeechInput) ([]byte, error) {
	out, err := client.SynthesizeSpeech(ctx, in)
	if err != nil {
		return nil, c.classify(err)
	}
	if out == nil || out.AudioStream == nil {
		return nil, remote.New(remote.KindDecode, ProviderName, "synthesize speech", "no audio payload received")
	}
	defer out.AudioStream.Close()

	pcm, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, remote.FromTransport(ProviderName, "synthesize speech", err, c.cfg.Timeout)
	}
	if len(pcm) == 0 {
		return nil, remote.New(remote.KindDecode, ProviderName, "synthesize speech", "no audio payload received")
	}
	return pcm, nil
}

func (c *Client) classify(err error) error {
	const op = "synthesize speech"
	if errors.Is(err, context.DeadlineExceeded) {
		return remote.FromTransport(ProviderName, op, err, c.cfg.Timeout)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		var e *remote.Error
		switch apiErr.ErrorCode() {
		case "TooManyRequestsException", "ThrottlingException":
			e = remote.New(remote.KindRateLimit, ProviderName, op, apiErr.ErrorMessage())
		case "UnrecognizedClientException", "InvalidSignatureException", "AccessDeniedException", "ExpiredTokenException":
			e = remote.New(remote.KindConfig, ProviderName, op, apiErr.ErrorMessage())
		default:
			e = remote.New(remote.KindHTTP, ProviderName, op, apiErr.ErrorCode()+": "+apiErr.ErrorMessage())
		}
		e.Cause = err
		return e
	}
	return remote.FromTransport(ProviderName, op, err, c.cfg.Timeout)
}

func (c *Client) resolveClient(ctx context.Context) (synthClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.cfg.Region))
	if err != nil {
		return nil, remote.Wrap(remote.KindConfig, ProviderName, "init", fmt.Errorf("load aws config: %w", err))
	}
	c.client = polly.NewFromConfig(awsCfg)
	return c.client, nil
}

func ssml(text string, speed float64) string {
	rate := strconv.Itoa(int(speed*100+0.5)) + "%"
	return `<speak><prosody rate="` + rate + `">` + html.EscapeString(text) + `</prosody></speak>`
}
