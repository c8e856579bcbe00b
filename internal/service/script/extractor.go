// Package script turns free-form generated text into a five-section call script.
//
// Extraction never fails. Strategies run in order and each fills only the
// fields that are still empty, so the last strategy (canned defaults)
// guarantees a complete record.
package script

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/observability/metrics"
)

// MinParagraphLength is the shortest paragraph the positional fallback keeps.
const MinParagraphLength = 10

// Extractor applies an ordered list of strategies.
type Extractor struct {
	strategies []Strategy
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// New returns an extractor with the standard strategy chain:
// markers, then paragraphs, then defaults.
func New() *Extractor {
	return NewWithStrategies(
		MarkerStrategy{},
		ParagraphStrategy{MinLength: MinParagraphLength},
		DefaultStrategy{},
	)
}

// NewWithStrategies builds an extractor from a custom chain.
func NewWithStrategies(strategies ...Strategy) *Extractor {
	return &Extractor{
		strategies: strategies,
		logger:     log.With().Str("component", "script-extractor").Logger(),
		metrics:    metrics.DefaultMetrics,
	}
}

// Extract returns a complete script for raw in lang.
func (e *Extractor) Extract(raw string, lang models.Language) models.Script {
	if strings.TrimSpace(raw) == "" {
		e.logger.Warn().Str("language", string(lang)).Msg("Empty generation output, using default script")
		e.metrics.RecordExtraction("empty")
		return Default(lang)
	}

	var s models.Script
	for _, st := range e.strategies {
		partial, ok := st.Extract(raw, lang, s)
		if !ok {
			continue
		}
		if n := merge(&s, partial); n > 0 {
			e.metrics.RecordExtraction(st.Name())
			e.logger.Debug().Str("strategy", st.Name()).Int("fields", n).Msg("Strategy filled script fields")
		}
		if complete(s) {
			break
		}
	}

	if s.Objections == nil {
		s.Objections = []string{}
	}
	s.Language = lang
	s.DurationSeconds = GeneratedDurationSeconds
	return s
}

// merge copies src fields into the empty fields of dst and returns how many it filled.
func merge(dst *models.Script, src models.Script) int {
	n := 0
	fill := func(d *string, v string) {
		if *d == "" && v != "" {
			*d = v
			n++
		}
	}
	fill(&dst.Introduction, src.Introduction)
	fill(&dst.Body, src.Body)
	fill(&dst.ValueProposition, src.ValueProposition)
	fill(&dst.CallToAction, src.CallToAction)
	if len(dst.Objections) == 0 && len(src.Objections) > 0 {
		dst.Objections = append([]string(nil), src.Objections...)
		n++
	}
	return n
}

func complete(s models.Script) bool {
	return s.Introduction != "" && s.Body != "" && s.ValueProposition != "" &&
		s.CallToAction != "" && len(s.Objections) > 0
}
