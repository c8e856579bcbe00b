// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted in LLM_PROVIDER and TTS_PROVIDER.
const (
	ProviderGemini  = "gemini"
	ProviderKimi    = "kimi"
	ProviderMock    = "mock"
	ProviderGradium = "gradium"
	ProviderPolly   = "polly"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	Observability ObservabilityConfig
	Sender        SenderConfig
	Notion        NotionConfig
	Hunter        HunterConfig
	LLMProvider   string
	Gemini        GeminiConfig
	Kimi          KimiConfig
	TTSProvider   string
	TTSSpeed      float64
	Gradium       GradiumConfig
	Polly         PollyConfig
	AudioOutput   string
	Kafka         KafkaConfig
}

type ServiceConfig struct {
	Name        string
	Principal   string
	HTTPPort    string
	GRPCPort    string
	MetricsPort string
}

type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// SenderConfig identifies who is calling, for the prompt.
type SenderConfig struct {
	Name    string
	Company string
	Profile string
}

type NotionConfig struct {
	APIKey     string
	DatabaseID string
	BaseURL    string
	Timeout    time.Duration
}

type HunterConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type GeminiConfig struct {
	APIKey    string
	Model     string
	Fallbacks []string
	Endpoint  string
	Timeout   time.Duration
}

type KimiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type GradiumConfig struct {
	APIKey       string
	BaseURL      string
	Voice        string
	SampleRateHz int
	Timeout      time.Duration
}

type PollyConfig struct {
	Region       string
	Engine       string
	SampleRateHz int
}

// KafkaConfig holds event publishing settings.
type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	TopicGenerated string
	TopicFailed    string
	Principal      string
}

var defaultGeminiFallbacks = []string{
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

// Load reads a .env file if present, then the environment.
func Load() *Config {
	_ = godotenv.Load()

	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-voice-outbound")

	return &Config{
		Service: ServiceConfig{
			Name:        envOrDefault("SERVICE_NAME", "voice-outbound-service"),
			Principal:   principal,
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:    envOrDefault("GRPC_PORT", "50051"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
		Sender: SenderConfig{
			Name:    envOrDefault("SENDER_NAME", "Alex Martin"),
			Company: envOrDefault("SENDER_COMPANY", "Gradium"),
			Profile: strings.ToLower(envOrDefault("PROMPT_PROFILE", "consultative")),
		},
		Notion: NotionConfig{
			APIKey:     os.Getenv("NOTION_API_KEY"),
			DatabaseID: os.Getenv("NOTION_DATABASE_ID"),
			BaseURL:    envOrDefault("NOTION_BASE_URL", "https://api.notion.com/v1"),
			Timeout:    envOrDefaultDuration("NOTION_TIMEOUT", 30*time.Second),
		},
		Hunter: HunterConfig{
			APIKey:  os.Getenv("HUNTER_API_KEY"),
			BaseURL: envOrDefault("HUNTER_BASE_URL", "https://api.hunter.io/v2"),
			Timeout: envOrDefaultDuration("HUNTER_TIMEOUT", 30*time.Second),
		},
		LLMProvider: strings.ToLower(envOrDefault("LLM_PROVIDER", ProviderGemini)),
		Gemini: GeminiConfig{
			APIKey:    os.Getenv("GEMINI_API_KEY"),
			Model:     envOrDefault("GEMINI_MODEL", "gemini-2.5-pro-preview-03-25"),
			Fallbacks: envOrDefaultList("GEMINI_FALLBACK_MODELS", defaultGeminiFallbacks),
			Endpoint:  os.Getenv("GEMINI_ENDPOINT"),
			Timeout:   envOrDefaultDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Kimi: KimiConfig{
			APIKey:  os.Getenv("KIMI_API_KEY"),
			Model:   envOrDefault("KIMI_MODEL", "moonshot-v1-8k"),
			BaseURL: envOrDefault("KIMI_BASE_URL", "https://api.moonshot.cn/v1"),
			Timeout: envOrDefaultDuration("KIMI_TIMEOUT", 60*time.Second),
		},
		TTSProvider: strings.ToLower(envOrDefault("TTS_PROVIDER", ProviderGradium)),
		TTSSpeed:    envOrDefaultFloat("TTS_SPEED", 1.0),
		Gradium: GradiumConfig{
			APIKey:       os.Getenv("GRADIUM_API_KEY"),
			BaseURL:      envOrDefault("GRADIUM_BASE_URL", "https://eu.api.gradium.ai"),
			Voice:        envOrDefault("GRADIUM_VOICE", "cNKK8o0PXiqK6BZT"),
			SampleRateHz: envOrDefaultInt("GRADIUM_SAMPLE_RATE_HZ", 48000),
			Timeout:      envOrDefaultDuration("GRADIUM_TIMEOUT", 60*time.Second),
		},
		Polly: PollyConfig{
			Region:       envOrDefault("POLLY_REGION", "eu-west-1"),
			Engine:       envOrDefault("POLLY_ENGINE", "neural"),
			SampleRateHz: envOrDefaultInt("POLLY_SAMPLE_RATE_HZ", 16000),
		},
		AudioOutput: envOrDefaultAllowEmpty("AUDIO_OUTPUT_DIR", "./outputs"),
		Kafka: KafkaConfig{
			Enabled:        envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:        envOrDefaultList("KAFKA_BROKERS", nil),
			TopicGenerated: envOrDefault("KAFKA_TOPIC_GENERATED", "voice.call.generated"),
			TopicFailed:    envOrDefault("KAFKA_TOPIC_FAILED", "voice.call.failed"),
			Principal:      envOrDefault("KAFKA_PRINCIPAL", principal),
		},
	}
}

// Validate reports every configuration error. These are fatal at startup.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLMProvider {
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini"))
		}
	case ProviderKimi:
		if c.Kimi.APIKey == "" {
			errs = append(errs, errors.New("KIMI_API_KEY is required when LLM_PROVIDER=kimi"))
		}
	case ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}

	switch c.TTSProvider {
	case ProviderGradium:
		if c.Gradium.APIKey == "" {
			errs = append(errs, errors.New("GRADIUM_API_KEY is required when TTS_PROVIDER=gradium"))
		}
	case ProviderPolly:
	default:
		errs = append(errs, fmt.Errorf("unknown TTS_PROVIDER %q", c.TTSProvider))
	}

	switch c.Sender.Profile {
	case "consultative", "assertive":
	default:
		errs = append(errs, fmt.Errorf("unknown PROMPT_PROFILE %q", c.Sender.Profile))
	}

	if c.TTSSpeed <= 0 {
		errs = append(errs, fmt.Errorf("TTS_SPEED must be positive, got %v", c.TTSSpeed))
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED=true"))
	}

	return errors.Join(errs...)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envOrDefaultAllowEmpty returns def only when key is unset, so an explicit
// empty value can switch a feature off.
func envOrDefaultAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// envOrDefaultList splits a comma-separated value, dropping empty entries.
func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
