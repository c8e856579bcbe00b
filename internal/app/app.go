package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"voice-outbound-service/internal/config"
	"voice-outbound-service/internal/events"
	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/observability/logging"
	"voice-outbound-service/internal/schema"
	"voice-outbound-service/internal/service/artifact"
	"voice-outbound-service/internal/service/contact"
	"voice-outbound-service/internal/service/contact/hunter"
	"voice-outbound-service/internal/service/contact/notion"
	"voice-outbound-service/internal/service/generation"
	"voice-outbound-service/internal/service/generation/gemini"
	"voice-outbound-service/internal/service/generation/kimi"
	"voice-outbound-service/internal/service/generation/mock"
	"voice-outbound-service/internal/service/pipeline"
	"voice-outbound-service/internal/service/prompt"
	"voice-outbound-service/internal/service/synthesis"
	"voice-outbound-service/internal/service/synthesis/gradium"
	"voice-outbound-service/internal/service/synthesis/polly"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	composer    *prompt.Composer
	contacts    *contact.Resolver
	synthesizer synthesis.Synthesizer
	artifacts   *artifact.Writer
	publisher   *events.Publisher
	ready       atomic.Bool
}

// New constructs an Application from cfg. Configuration errors are returned
// before anything is wired.
func New(cfg *config.Config) (*Application, error) {
	a := &Application{Cfg: cfg}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("method", "New").
		Logger()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	profile, err := prompt.ParseProfile(cfg.Sender.Profile)
	if err != nil {
		return nil, err
	}
	a.composer = prompt.NewComposer(prompt.Sender{Name: cfg.Sender.Name, Company: cfg.Sender.Company}, profile)
	a.contacts = a.newContactResolver()
	a.artifacts = artifact.NewWriter(cfg.AudioOutput)

	if a.synthesizer, err = a.newSynthesizer(); err != nil {
		return nil, err
	}

	validator, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("load event schemas: %w", err)
	}
	a.publisher = events.New(&events.Config{
		Enabled:        cfg.Kafka.Enabled,
		Brokers:        cfg.Kafka.Brokers,
		TopicGenerated: cfg.Kafka.TopicGenerated,
		TopicFailed:    cfg.Kafka.TopicFailed,
		Principal:      cfg.Kafka.Principal,
	}, validator)

	appLogger.Info().
		Str("llmProvider", cfg.LLMProvider).
		Str("ttsProvider", cfg.TTSProvider).
		Bool("notes", cfg.Notion.APIKey != "").
		Bool("enrichment", cfg.Hunter.APIKey != "").
		Msg("Voice outbound application created")
	return a, nil
}

// setupLogger configures zerolog for the service.
func (a *Application) setupLogger() {
	level := logging.Init(logging.Config{
		Level:   a.Cfg.Observability.LogLevel,
		Format:  a.Cfg.Observability.LogFormat,
		Service: a.Cfg.Service.Name,
	})
	a.Logger = logging.WithComponent("application")

	a.Logger.Info().
		Str("logLevel", level.String()).
		Str("logFormat", a.Cfg.Observability.LogFormat).
		Msg("Logger setup completed")
}

func (a *Application) newContactResolver() *contact.Resolver {
	var notes contact.NotesSource
	if nc := notion.NewClient(notion.Config{
		APIKey:     a.Cfg.Notion.APIKey,
		DatabaseID: a.Cfg.Notion.DatabaseID,
		BaseURL:    a.Cfg.Notion.BaseURL,
		Timeout:    a.Cfg.Notion.Timeout,
	}); nc.Enabled() {
		notes = nc
	}

	var enrichment contact.EnrichmentSource
	if a.Cfg.Hunter.APIKey != "" {
		enrichment = hunter.NewClient(hunter.Config{
			APIKey:  a.Cfg.Hunter.APIKey,
			BaseURL: a.Cfg.Hunter.BaseURL,
			Timeout: a.Cfg.Hunter.Timeout,
		})
	}
	return contact.NewResolver(notes, enrichment)
}

// NewGenerator builds a fresh generation adapter. Each adapter carries its
// own model resolution cache.
func (a *Application) NewGenerator(_ context.Context) (generation.Adapter, error) {
	switch a.Cfg.LLMProvider {
	case config.ProviderGemini:
		return gemini.New(gemini.Config{
			APIKey:    a.Cfg.Gemini.APIKey,
			Model:     a.Cfg.Gemini.Model,
			Fallbacks: a.Cfg.Gemini.Fallbacks,
			Endpoint:  a.Cfg.Gemini.Endpoint,
			Timeout:   a.Cfg.Gemini.Timeout,
		})
	case config.ProviderKimi:
		return kimi.New(kimi.Config{
			APIKey:  a.Cfg.Kimi.APIKey,
			Model:   a.Cfg.Kimi.Model,
			BaseURL: a.Cfg.Kimi.BaseURL,
			Timeout: a.Cfg.Kimi.Timeout,
		})
	case config.ProviderMock:
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", a.Cfg.LLMProvider)
	}
}

func (a *Application) newSynthesizer() (synthesis.Synthesizer, error) {
	switch a.Cfg.TTSProvider {
	case config.ProviderGradium:
		return gradium.NewClient(gradium.Config{
			APIKey:       a.Cfg.Gradium.APIKey,
			BaseURL:      a.Cfg.Gradium.BaseURL,
			Voice:        a.Cfg.Gradium.Voice,
			SampleRateHz: a.Cfg.Gradium.SampleRateHz,
			Timeout:      a.Cfg.Gradium.Timeout,
		})
	case config.ProviderPolly:
		return polly.NewClient(polly.Config{
			Region:       a.Cfg.Polly.Region,
			Engine:       a.Cfg.Polly.Engine,
			SampleRateHz: a.Cfg.Polly.SampleRateHz,
		})
	default:
		return nil, fmt.Errorf("unknown TTS provider %q", a.Cfg.TTSProvider)
	}
}

// NewOrchestrator wires a pipeline for one logical session.
func (a *Application) NewOrchestrator(ctx context.Context) (*pipeline.Orchestrator, error) {
	gen, err := a.NewGenerator(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Dependencies{
		Contacts:    a.contacts,
		Generator:   gen,
		Synthesizer: a.synthesizer,
		Composer:    a.composer,
		Artifacts:   a.artifacts,
		Events:      a.publisher,
	}), nil
}

// Run executes one call-generation run on a fresh pipeline.
func (a *Application) Run(ctx context.Context, in pipeline.Input) (*models.CallResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Speed <= 0 {
		in.Speed = a.Cfg.TTSSpeed
	}
	o, err := a.NewOrchestrator(ctx)
	if err != nil {
		return nil, err
	}
	return o.Run(ctx, in)
}

// Voices lists the synthesizer's voices for lang, or all voices when lang is empty.
func (a *Application) Voices(lang models.Language) []synthesis.Voice {
	return a.synthesizer.Voices(lang)
}

// Ready reports whether Start has completed and Shutdown has not begun.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	a.ready.Store(true)
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Voice outbound service starting")

	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	a.ready.Store(false)
	if err := a.publisher.Close(); err != nil {
		shutdownLogger.Warn().Err(err).Msg("Failed to close event publisher")
	}
	shutdownLogger.Info().Msg("Voice outbound service shutting down")
}
