// Package language decides which language a call is made in.
package language

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/observability/metrics"
	"voice-outbound-service/internal/service/generation"
	"voice-outbound-service/internal/service/prompt"
)

// Sources of a resolved language.
const (
	SourceRequested = "requested"
	SourceModel     = "model"
	SourceHeuristic = "heuristic"
)

// Decision is the outcome of language resolution.
type Decision struct {
	Language     models.Language
	AutoDetected bool
	Source       string
	Rule         string // heuristic rule, when Source is heuristic
}

// Detector resolves "auto" with one narrow generation call and falls back to
// Heuristic on any failure, including transport errors.
type Detector struct {
	gen     generation.Adapter
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewDetector creates a detector backed by gen.
func NewDetector(gen generation.Adapter) *Detector {
	return &Detector{
		gen:     gen,
		logger:  log.With().Str("component", "language").Logger(),
		metrics: metrics.DefaultMetrics,
	}
}

// Resolve returns requested unchanged unless it is auto.
func (d *Detector) Resolve(ctx context.Context, contact models.Contact, requested models.Language) Decision {
	if requested != models.LanguageAuto && requested != "" {
		return Decision{Language: requested, Source: SourceRequested}
	}

	answer, err := d.gen.Generate(ctx, generation.Request{
		Purpose: generation.PurposeLanguage,
		Prompt:  prompt.ComposeLanguageDetection(contact),
		Params:  generation.LanguageParams,
	})
	if err == nil {
		if lang, ok := ParseAnswer(answer); ok {
			d.logger.Debug().Str("language", string(lang)).Msg("Language detected by model")
			return Decision{Language: lang, AutoDetected: true, Source: SourceModel}
		}
	}

	// Transport failures land here too and are indistinguishable from an
	// unusable answer once logged.
	lang, rule := Heuristic(contact)
	reason := "unparseable_answer"
	ev := d.logger.Warn().Str("answer", answer)
	if err != nil {
		reason = "generation_error"
		ev = d.logger.Warn().Err(err)
	}
	ev.Str("language", string(lang)).Str("rule", rule).Msg("Language detection degraded to heuristics")
	d.metrics.RecordDegraded("resolve_language", reason)

	return Decision{Language: lang, AutoDetected: true, Source: SourceHeuristic, Rule: rule}
}
