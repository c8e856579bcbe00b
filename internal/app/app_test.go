package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"voice-outbound-service/internal/config"
	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/service/pipeline"
)

func testConfig() *config.Config {
	return &config.Config{
		Service:       config.ServiceConfig{Name: "voice-outbound-service"},
		Observability: config.ObservabilityConfig{LogLevel: "error", LogFormat: "json"},
		Sender:        config.SenderConfig{Name: "Alex Martin", Company: "Gradium", Profile: "assertive"},
		LLMProvider:   config.ProviderMock,
		TTSProvider:   config.ProviderPolly,
		TTSSpeed:      1,
		Polly:         config.PollyConfig{Region: "eu-west-1", Engine: "neural", SampleRateHz: 16000},
		Kimi:          config.KimiConfig{BaseURL: "http://127.0.0.1:1/v1"},
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.TTSProvider = config.ProviderGradium

	_, err := New(cfg)
	if err == nil || !strings.Contains(err.Error(), "GRADIUM_API_KEY") {
		t.Errorf("expected missing Gradium key error, got %v", err)
	}
}

func TestNewGenerator_PerProvider(t *testing.T) {
	a, err := New(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gen, err := a.NewGenerator(context.Background())
	if err != nil || gen.Provider() != "mock" {
		t.Errorf("expected mock generator, got %v (%v)", gen, err)
	}

	a.Cfg.LLMProvider = config.ProviderKimi
	a.Cfg.Kimi.APIKey = "sk-test"
	gen, err = a.NewGenerator(context.Background())
	if err != nil || gen.Provider() != "kimi" {
		t.Errorf("expected kimi generator, got %v (%v)", gen, err)
	}

	a.Cfg.LLMProvider = "unknown"
	if _, err := a.NewGenerator(context.Background()); err == nil {
		t.Error("expected unknown provider error")
	}
}

func TestNewOrchestrator_FreshGeneratorEachTime(t *testing.T) {
	a, err := New(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o1, err1 := a.NewOrchestrator(context.Background())
	o2, err2 := a.NewOrchestrator(context.Background())
	if err1 != nil || err2 != nil || o1 == o2 {
		t.Errorf("expected two distinct orchestrators, got %p %p (%v %v)", o1, o2, err1, err2)
	}
}

func TestRun_InvalidInputBuildsNothing(t *testing.T) {
	a, err := New(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.Cfg.LLMProvider = "unknown"

	_, err = a.Run(context.Background(), pipeline.Input{FullName: "Jean"})
	if !errors.Is(err, pipeline.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput before any wiring, got %v", err)
	}
}

func TestVoicesAndReadiness(t *testing.T) {
	a, err := New(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	voices := a.Voices(models.LanguageFrench)
	if len(voices) == 0 || voices[0].Language != models.LanguageFrench {
		t.Errorf("expected French voices, got %v", voices)
	}

	if a.Ready() {
		t.Error("expected not ready before Start")
	}
	if err := a.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if !a.Ready() {
		t.Error("expected ready after Start")
	}
	a.Shutdown()
	if a.Ready() {
		t.Error("expected not ready after Shutdown")
	}
}
