package pipeline

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/service/artifact"
	"voice-outbound-service/internal/service/audio"
	"voice-outbound-service/internal/service/contact"
	"voice-outbound-service/internal/service/generation"
	"voice-outbound-service/internal/service/remote"
	"voice-outbound-service/internal/service/script"
	"voice-outbound-service/internal/service/synthesis"
)

type fakeGenerator struct {
	script    string
	language  string
	genErr    error
	langErr   error
	modelErr  error
	requests  []generation.Request
}

func (f *fakeGenerator) Provider() string { return "fake" }

func (f *fakeGenerator) Model(_ context.Context) (string, error) {
	if f.modelErr != nil {
		return "", f.modelErr
	}
	return "fake-model", nil
}

func (f *fakeGenerator) Generate(_ context.Context, req generation.Request) (string, error) {
	f.requests = append(f.requests, req)
	if req.Purpose == generation.PurposeLanguage {
		return f.language, f.langErr
	}
	return f.script, f.genErr
}

type fakeSynth struct {
	err  error
	reqs []synthesis.Request
}

func (f *fakeSynth) Provider() string { return "fake-tts" }
func (f *fakeSynth) Voices(models.Language) []synthesis.Voice { return nil }

func (f *fakeSynth) Synthesize(_ context.Context, req synthesis.Request) (*models.AudioArtifact, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	wav, err := audio.WrapPCM([]byte{1, 0, 2, 0}, audio.GradiumFormat)
	if err != nil {
		return nil, err
	}
	return &models.AudioArtifact{
		Data:            wav,
		Format:          models.AudioFormatWAV,
		DurationSeconds: audio.EstimateDuration(req.Text, req.Speed),
		Language:        req.Language,
	}, nil
}

type recordedEvent struct {
	kind  string
	key   string
	event any
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakeEvents) PublishGenerated(_ context.Context, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{"generated", key, event})
	return f.err
}

func (f *fakeEvents) PublishFailed(_ context.Context, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{"failed", key, event})
	return f.err
}

type fakeNotes struct {
	found *models.Contact
}

func (f *fakeNotes) FindByName(context.Context, string) (*models.Contact, error) {
	if f.found == nil {
		return nil, nil
	}
	c := *f.found
	return &c, nil
}

func (f *fakeNotes) SaveInteraction(context.Context, string, string) (bool, error) {
	return true, nil
}

func fixedID() string { return "0123456789abcdef-run" }

func newTestOrchestrator(gen generation.Adapter, synth synthesis.Synthesizer, events EventPublisher, deps Dependencies) *Orchestrator {
	deps.Generator = gen
	deps.Synthesizer = synth
	deps.Events = events
	deps.NewID = fixedID
	return New(deps)
}

func TestRun_FrenchScenario(t *testing.T) {
	gen := &fakeGenerator{script: "Bonjour Jean,\n\nVotre expansion...\n\nNous aidons...\n\nAppelez-nous."}
	synth := &fakeSynth{}
	events := &fakeEvents{}
	o := newTestOrchestrator(gen, synth, events, Dependencies{})

	res, err := o.Run(context.Background(), Input{
		FullName:           "Jean Dupont",
		Company:            "Acme",
		TriggerType:        models.TriggerExpansion,
		TriggerDescription: "Ouverture d'un bureau à Lyon",
		Language:           models.LanguageFrench,
		Speed:              1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := res.Script
	if s.Introduction != "Bonjour Jean," || s.Body != "Votre expansion..." || s.ValueProposition != "Nous aidons..." || s.CallToAction != "Appelez-nous." {
		t.Errorf("unexpected script %+v", s)
	}
	if s.Objections == nil || len(s.Objections) != 0 {
		t.Errorf("expected empty objections, got %#v", s.Objections)
	}
	if s.DurationSeconds != script.GeneratedDurationSeconds || s.Language != models.LanguageFrench {
		t.Errorf("unexpected script metadata %+v", s)
	}

	if res.RunID != fixedID() || res.Language != models.LanguageFrench || res.AutoDetected {
		t.Errorf("unexpected result metadata %+v", res)
	}
	if res.Contact.FullName != "Jean Dupont" || res.Contact.Company != "Acme" {
		t.Errorf("expected minimal contact, got %+v", res.Contact)
	}
	if res.Provider != "fake" || res.Model != "fake-model" {
		t.Errorf("unexpected provider %s/%s", res.Provider, res.Model)
	}
	if len(res.Audio.Data) != audio.HeaderSize+4 || res.Audio.LocalPath != "" {
		t.Errorf("unexpected audio %d bytes, path %q", len(res.Audio.Data), res.Audio.LocalPath)
	}

	for _, req := range gen.requests {
		if req.Purpose == generation.PurposeLanguage {
			t.Error("expected no language detection for an explicit language")
		}
	}
	if len(synth.reqs) != 1 || synth.reqs[0].Text != s.FullText() {
		t.Errorf("expected the full script to be synthesized, got %+v", synth.reqs)
	}

	if len(events.events) != 1 || events.events[0].kind != "generated" || events.events[0].key != fixedID() {
		t.Fatalf("expected one generated event, got %+v", events.events)
	}
	ev := events.events[0].event.(models.CallGenerated)
	if ev.EventType != models.EventCallGenerated || ev.AudioBytes != len(res.Audio.Data) || ev.ScriptChars != len(s.FullText()) {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestRun_EmptyGenerationSpanish(t *testing.T) {
	o := newTestOrchestrator(&fakeGenerator{script: "   "}, &fakeSynth{}, nil, Dependencies{})

	res, err := o.Run(context.Background(), Input{
		FullName:           "Ana García",
		Company:            "Acme",
		TriggerDescription: "Nueva ronda",
		Language:           models.LanguageSpanish,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := script.Default(models.LanguageSpanish)
	if !reflect.DeepEqual(res.Script, want) {
		t.Errorf("expected Spanish defaults %+v, got %+v", want, res.Script)
	}
	if res.Script.CallToAction != script.DefaultCallToAction(models.LanguageSpanish) {
		t.Errorf("unexpected call to action %q", res.Script.CallToAction)
	}
}

func TestRun_AutoLanguage(t *testing.T) {
	gen := &fakeGenerator{script: "Hallo Jens,\n\nText body here.", language: "de"}
	o := newTestOrchestrator(gen, &fakeSynth{}, nil, Dependencies{})

	res, err := o.Run(context.Background(), Input{FullName: "Jens", Company: "Acme", TriggerDescription: "funding", Language: models.LanguageAuto})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Language != models.LanguageGerman || !res.AutoDetected {
		t.Errorf("expected auto-detected German, got %s (%v)", res.Language, res.AutoDetected)
	}
}

func TestRun_LanguageDetectionFailureDegrades(t *testing.T) {
	gen := &fakeGenerator{script: "Bonjour,\n\nCorps du message.", langErr: errors.New("connection reset")}
	o := newTestOrchestrator(gen, &fakeSynth{}, nil, Dependencies{})

	res, err := o.Run(context.Background(), Input{FullName: "Jean", Company: "Dupont SAS", TriggerDescription: "x"})
	if err != nil {
		t.Fatalf("expected the run to survive detection failure, got %v", err)
	}
	if res.Language != models.LanguageFrench {
		t.Errorf("expected heuristic French, got %s", res.Language)
	}
}

func TestRun_GenerationFailureIsFatal(t *testing.T) {
	cause := remote.New(remote.KindRateLimit, "gemini", "generate content", "quota exceeded")
	synth := &fakeSynth{}
	events := &fakeEvents{}
	o := newTestOrchestrator(&fakeGenerator{genErr: cause}, synth, events, Dependencies{})

	res, err := o.Run(context.Background(), Input{FullName: "Jean", Company: "Acme", TriggerDescription: "x", Language: models.LanguageFrench})
	if res != nil {
		t.Error("expected no partial result")
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageGenerateScript {
		t.Fatalf("expected GENERATE_SCRIPT stage error, got %v", err)
	}
	if !remote.IsKind(err, remote.KindRateLimit) || !strings.Contains(err.Error(), remote.RemediationRateLimit) {
		t.Errorf("expected rate limit with remediation, got %v", err)
	}
	if len(synth.reqs) != 0 {
		t.Error("expected synthesis to be skipped")
	}

	if len(events.events) != 1 || events.events[0].kind != "failed" {
		t.Fatalf("expected one failed event, got %+v", events.events)
	}
	ev := events.events[0].event.(models.CallFailed)
	if ev.Stage != "generate_script" || ev.Error != err.Error() {
		t.Errorf("unexpected failed event %+v", ev)
	}
}

func TestRun_ModelResolutionFailureIsFatal(t *testing.T) {
	cause := remote.New(remote.KindConfig, "gemini", "resolve model", "no usable generation model")
	o := newTestOrchestrator(&fakeGenerator{modelErr: cause}, &fakeSynth{}, nil, Dependencies{})

	_, err := o.Run(context.Background(), Input{FullName: "Jean", Company: "Acme", TriggerDescription: "x", Language: models.LanguageEnglish})
	if !remote.IsKind(err, remote.KindConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestRun_SynthesisFailureIsFatal(t *testing.T) {
	cause := remote.New(remote.KindTimeout, "gradium", "tts", "timeout after 60s")
	o := newTestOrchestrator(&fakeGenerator{script: "Hello there,\n\nBody text here."}, &fakeSynth{err: cause}, nil, Dependencies{})

	_, err := o.Run(context.Background(), Input{FullName: "Jean", Company: "Acme", TriggerDescription: "x", Language: models.LanguageEnglish})
	if err == nil || err.Error() != "synthesize_audio: gradium tts: timeout: timeout after 60s" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRun_PublishFailureDoesNotFailRun(t *testing.T) {
	events := &fakeEvents{err: errors.New("broker down")}
	o := newTestOrchestrator(&fakeGenerator{script: "Hello there,\n\nBody text here."}, &fakeSynth{}, events, Dependencies{})

	if _, err := o.Run(context.Background(), Input{FullName: "Jean", Company: "Acme", TriggerDescription: "x", Language: models.LanguageEnglish}); err != nil {
		t.Errorf("expected success despite publish failure, got %v", err)
	}
}

func TestRun_MissingInputRunsNothing(t *testing.T) {
	gen := &fakeGenerator{}
	o := newTestOrchestrator(gen, &fakeSynth{}, nil, Dependencies{})

	_, err := o.Run(context.Background(), Input{FullName: "Jean"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var ie *InputError
	if !errors.As(err, &ie) || !reflect.DeepEqual(ie.Missing, []string{"company", "triggerDescription"}) {
		t.Errorf("unexpected missing fields %v", err)
	}
	if len(gen.requests) != 0 {
		t.Error("expected no generation call")
	}
}

func TestRun_NotesNarrativeAndArtifact(t *testing.T) {
	notes := &fakeNotes{found: &models.Contact{
		FullName: "Jean Dupont",
		Company:  "Acme",
		Notes:    &models.EnrichedNotes{RawNotes: "Lève 10M", Narrative: "Equipe sales saturée"},
	}}
	dir := t.TempDir()
	gen := &fakeGenerator{script: "Bonjour Jean,\n\nCorps du message."}
	o := newTestOrchestrator(gen, &fakeSynth{}, nil, Dependencies{
		Contacts:  contact.NewResolver(notes, nil),
		Artifacts: artifact.NewWriter(dir),
	})

	res, err := o.Run(context.Background(), Input{FullName: "Jean Dupont", Company: "Acme", TriggerDescription: "Levée de fonds", Language: models.LanguageFrench})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantDesc := "Levée de fonds\n\n" + contextLabel + "Equipe sales saturée"
	if res.Trigger.Description != wantDesc {
		t.Errorf("expected enriched description %q, got %q", wantDesc, res.Trigger.Description)
	}
	if !strings.Contains(gen.requests[len(gen.requests)-1].Prompt, "Lève 10M") {
		t.Error("expected raw notes in the script prompt")
	}

	if res.Audio.LocalPath == "" {
		t.Fatal("expected a local path")
	}
	data, err := os.ReadFile(res.Audio.LocalPath)
	if err != nil || len(data) != len(res.Audio.Data) {
		t.Errorf("expected written WAV, got %d bytes (%v)", len(data), err)
	}
	if !strings.HasSuffix(res.Audio.LocalPath, "call_acme_01234567.wav") {
		t.Errorf("unexpected file name %s", res.Audio.LocalPath)
	}
}

func TestBuildTrigger_Defaults(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	tr := BuildTrigger(Input{TriggerDescription: " desc "}, models.Contact{}, now)

	if tr.Type != models.TriggerOther || tr.Description != "desc" || !tr.OccurredAt.Equal(now) {
		t.Errorf("unexpected trigger %+v", tr)
	}
}
