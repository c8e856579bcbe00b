package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/observability/logging"
	"voice-outbound-service/internal/observability/metrics"
	"voice-outbound-service/internal/service/artifact"
	"voice-outbound-service/internal/service/contact"
	"voice-outbound-service/internal/service/generation"
	"voice-outbound-service/internal/service/language"
	"voice-outbound-service/internal/service/prompt"
	"voice-outbound-service/internal/service/script"
	"voice-outbound-service/internal/service/synthesis"
)

// ErrInvalidInput is returned before any stage runs when a required field is missing.
var ErrInvalidInput = errors.New("invalid input")

// contextLabel introduces the notes narrative appended to a trigger description.
const contextLabel = "Detailed context from the notes source:\n"

// Input is what a caller supplies for one run.
type Input struct {
	FullName           string
	Company            string
	TriggerType        string
	TriggerDescription string
	TriggerDate        time.Time
	TriggerSource      string
	Language           models.Language // empty or auto means detect
	Tone               string
	Voice              string
	Speed              float64
}

// Validate checks the required fields.
func (in Input) Validate() error {
	var missing []string
	if strings.TrimSpace(in.FullName) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Company) == "" {
		missing = append(missing, "company")
	}
	if strings.TrimSpace(in.TriggerDescription) == "" {
		missing = append(missing, "triggerDescription")
	}
	if len(missing) > 0 {
		return &InputError{Missing: missing}
	}
	return nil
}

// InputError lists missing required fields.
type InputError struct {
	Missing []string
}

func (e *InputError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// EventPublisher receives run outcomes. Failures to publish never fail a run.
type EventPublisher interface {
	PublishGenerated(ctx context.Context, key string, event any) error
	PublishFailed(ctx context.Context, key string, event any) error
}

// Dependencies are the collaborators of one orchestrator. Generator and
// Synthesizer are required; every other field has a usable zero value.
type Dependencies struct {
	Contacts    *contact.Resolver
	Generator   generation.Adapter
	Synthesizer synthesis.Synthesizer
	Composer    *prompt.Composer
	Extractor   *script.Extractor
	Artifacts   *artifact.Writer
	Events      EventPublisher
	NewID       IDGenerator
	Now         func() time.Time
}

// Orchestrator sequences the stages of a run. One orchestrator holds one
// generation adapter and therefore one model resolution cache; use a fresh
// orchestrator per logical session.
type Orchestrator struct {
	deps     Dependencies
	detector *language.Detector
	metrics  *metrics.Metrics
}

// New creates an orchestrator, filling defaults for optional dependencies.
func New(deps Dependencies) *Orchestrator {
	if deps.Contacts == nil {
		deps.Contacts = contact.NewResolver(nil, nil)
	}
	if deps.Composer == nil {
		deps.Composer = prompt.NewComposer(prompt.Sender{}, prompt.ProfileConsultative)
	}
	if deps.Extractor == nil {
		deps.Extractor = script.New()
	}
	if deps.Artifacts == nil {
		deps.Artifacts = artifact.NewWriter("")
	}
	if deps.NewID == nil {
		deps.NewID = NewRunID
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{
		deps:     deps,
		detector: language.NewDetector(deps.Generator),
		metrics:  metrics.DefaultMetrics,
	}
}

// run carries the state of one execution between stages.
type run struct {
	id        string
	lc        *Lifecycle
	logger    zerolog.Logger
	in        Input
	contact   models.Contact
	decision  language.Decision
	trigger   models.Trigger
	model     string
	script    models.Script
	audio     *models.AudioArtifact
	stageFrom time.Time
}

// Run executes every stage in order. GENERATE_SCRIPT and SYNTHESIZE_AUDIO
// failures end the run with a *StageError and no partial result.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*models.CallResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	r := &run{id: o.deps.NewID(), in: in}
	r.lc = NewLifecycle(r.id)
	r.logger = logging.WithRun(r.id)

	start := o.deps.Now()
	o.metrics.RecordRunStart()
	r.logger.Info().Str("contact", in.FullName).Str("company", in.Company).Msg("Run started")

	steps := []struct {
		stage Stage
		fn    func(context.Context, *run) error
	}{
		{StageResolveContact, o.resolveContact},
		{StageResolveLanguage, o.resolveLanguage},
		{StageBuildTrigger, o.buildTrigger},
		{StageGenerateScript, o.generateScript},
		{StageSynthesizeAudio, o.synthesizeAudio},
		{StageAssembleResult, o.assembleAudio},
	}

	for _, step := range steps {
		if err := r.lc.Enter(step.stage); err != nil {
			return nil, o.fail(ctx, r, start, err)
		}
		r.stageFrom = o.deps.Now()
		if err := step.fn(ctx, r); err != nil {
			return nil, o.fail(ctx, r, start, &StageError{Stage: step.stage, Err: err})
		}
		o.metrics.RecordStage(step.stage.Label(), o.deps.Now().Sub(r.stageFrom).Seconds())
	}

	if err := r.lc.Complete(); err != nil {
		return nil, o.fail(ctx, r, start, err)
	}

	result := &models.CallResult{
		RunID:        r.id,
		Contact:      r.contact,
		Trigger:      r.trigger,
		Script:       r.script,
		Audio:        *r.audio,
		Language:     r.decision.Language,
		AutoDetected: r.decision.AutoDetected,
		Provider:     o.deps.Generator.Provider(),
		Model:        r.model,
		Voice:        in.Voice,
		CreatedAt:    o.deps.Now().UTC(),
	}

	o.metrics.RecordRunEnd("", o.deps.Now().Sub(start).Seconds())
	o.publishGenerated(ctx, r, result)
	r.logger.Info().
		Str("language", string(result.Language)).
		Bool("autoDetected", result.AutoDetected).
		Int("audioBytes", len(result.Audio.Data)).
		Dur("elapsed", o.deps.Now().Sub(start)).
		Msg("Run completed")
	return result, nil
}

func (o *Orchestrator) resolveContact(ctx context.Context, r *run) error {
	res := o.deps.Contacts.Resolve(ctx, r.in.FullName, r.in.Company)
	r.contact = res.Contact
	r.logger.Debug().Str("stage", StageResolveContact.Label()).Str("origin", res.Origin).Msg("Contact resolved")
	return nil
}

func (o *Orchestrator) resolveLanguage(ctx context.Context, r *run) error {
	r.decision = o.detector.Resolve(ctx, r.contact, r.in.Language)
	r.logger.Debug().
		Str("stage", StageResolveLanguage.Label()).
		Str("language", string(r.decision.Language)).
		Str("source", r.decision.Source).
		Msg("Language resolved")
	return nil
}

func (o *Orchestrator) buildTrigger(_ context.Context, r *run) error {
	r.trigger = BuildTrigger(r.in, r.contact, o.deps.Now())
	return nil
}

// BuildTrigger makes the run's trigger, appending the contact's notes
// narrative to the description when there is one.
func BuildTrigger(in Input, c models.Contact, now time.Time) models.Trigger {
	t := models.Trigger{
		Type:        strings.TrimSpace(in.TriggerType),
		Description: strings.TrimSpace(in.TriggerDescription),
		OccurredAt:  in.TriggerDate,
		Source:      in.TriggerSource,
	}
	if t.Type == "" {
		t.Type = models.TriggerOther
	}
	if t.OccurredAt.IsZero() {
		t.OccurredAt = now
	}
	if c.Notes != nil && strings.TrimSpace(c.Notes.Narrative) != "" {
		t.Description += "\n\n" + contextLabel + c.Notes.Narrative
	}
	return t
}

func (o *Orchestrator) generateScript(ctx context.Context, r *run) error {
	model, err := o.deps.Generator.Model(ctx)
	if err != nil {
		return err
	}
	r.model = model

	raw, err := o.deps.Generator.Generate(ctx, generation.Request{
		Purpose: generation.PurposeScript,
		Prompt:  o.deps.Composer.Compose(r.contact, r.trigger, r.decision.Language, r.in.Tone),
		Params:  generation.ScriptParams,
	})
	if err != nil {
		return err
	}
	r.script = o.deps.Extractor.Extract(raw, r.decision.Language)
	r.logger.Debug().Str("stage", StageGenerateScript.Label()).Str("model", model).Int("rawChars", len(raw)).Msg("Script generated")
	return nil
}

func (o *Orchestrator) synthesizeAudio(ctx context.Context, r *run) error {
	art, err := o.deps.Synthesizer.Synthesize(ctx, synthesis.Request{
		Text:     r.script.FullText(),
		Language: r.decision.Language,
		Voice:    r.in.Voice,
		Speed:    r.in.Speed,
	})
	if err != nil {
		return err
	}
	r.audio = art
	return nil
}

// assembleAudio stores the artifact when an output directory is configured.
// A write failure is logged and leaves LocalPath empty.
func (o *Orchestrator) assembleAudio(_ context.Context, r *run) error {
	if !o.deps.Artifacts.Enabled() {
		return nil
	}
	path, err := o.deps.Artifacts.Write(r.contact.Company, r.id, r.audio.Format, r.audio.Data)
	if err != nil {
		r.logger.Warn().Err(err).Str("stage", StageAssembleResult.Label()).Msg("Failed to write audio file")
		o.metrics.RecordDegraded(StageAssembleResult.Label(), "write_failed")
		return nil
	}
	r.audio.LocalPath = path
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, r *run, start time.Time, err error) error {
	r.lc.Fail()
	stage, _ := r.lc.FailedStage()

	o.metrics.RecordRunEnd(stage.Label(), o.deps.Now().Sub(start).Seconds())
	logger := logging.WithStage(r.id, stage.Label())
	logger.Error().Err(err).Msg("Run failed")

	if o.deps.Events != nil {
		event := models.CallFailed{
			EventType:   models.EventCallFailed,
			RunID:       r.id,
			ContactName: r.in.FullName,
			Company:     r.in.Company,
			Stage:       stage.Label(),
			Error:       err.Error(),
			Timestamp:   o.deps.Now().UnixMilli(),
		}
		if perr := o.deps.Events.PublishFailed(ctx, r.id, event); perr != nil {
			r.logger.Warn().Err(perr).Msg("Failed to publish failure event")
		}
	}
	return err
}

func (o *Orchestrator) publishGenerated(ctx context.Context, r *run, res *models.CallResult) {
	if o.deps.Events == nil {
		return
	}
	event := models.CallGenerated{
		EventType:       models.EventCallGenerated,
		RunID:           res.RunID,
		ContactName:     res.Contact.FullName,
		Company:         res.Contact.Company,
		Language:        res.Language,
		AutoDetected:    res.AutoDetected,
		Provider:        res.Provider,
		Model:           res.Model,
		ScriptChars:     len(res.Script.FullText()),
		AudioBytes:      len(res.Audio.Data),
		DurationSeconds: res.Audio.DurationSeconds,
		Timestamp:       res.CreatedAt.UnixMilli(),
	}
	if err := o.deps.Events.PublishGenerated(ctx, res.RunID, event); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to publish generated event")
	}
}
