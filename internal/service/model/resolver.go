// Package model picks a working generation model for one adapter instance.
//
// Resolution tries, in order: the preferred identifier, each fallback
// candidate, then live discovery from the provider's catalog. The first
// identifier that validates is cached for the lifetime of the Resolver.
package model

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voice-outbound-service/internal/observability/metrics"
	"voice-outbound-service/internal/service/remote"
)

// Resolution steps, reported in logs and metrics.
const (
	StepPreferred = "preferred"
	StepFallback  = "fallback"
	StepDiscovery = "discovery"
	StepFailed    = "failed"
)

// Catalog is the provider side of resolution.
type Catalog interface {
	// Validate checks that id exists and is usable without generating anything.
	Validate(ctx context.Context, id string) error
	// List returns every model identifier visible to the credential.
	List(ctx context.Context) ([]string, error)
}

// Tiers are case-insensitive name fragments used to rank discovered models.
type Tiers struct {
	Excluded []string // non-generative models, e.g. "embed"
	Fast     []string // preferred tier, e.g. "flash"
	Capable  []string // second tier, e.g. "pro"
}

// Config describes what to try before discovery.
type Config struct {
	Provider  string
	Preferred string
	Fallbacks []string
	Tiers     Tiers
}

// Resolver resolves once and remembers the outcome.
type Resolver struct {
	cfg     Config
	catalog Catalog
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	done     bool
	resolved string
	step     string
	err      error
}

// NewResolver creates a resolver bound to one catalog.
func NewResolver(cfg Config, catalog Catalog) *Resolver {
	return &Resolver{
		cfg:     cfg,
		catalog: catalog,
		logger: log.With().
			Str("component", "model-resolver").
			Str("provider", cfg.Provider).
			Logger(),
		metrics: metrics.DefaultMetrics,
	}
}

// Resolved returns the cached identifier and the step that produced it, if any.
func (r *Resolver) Resolved() (id, step string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolved, r.step, r.done && r.err == nil
}

// Resolve returns a validated model identifier. A failure is terminal: the
// same error is returned on every later call.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return r.resolved, r.err
	}

	id, step, err := r.resolve(ctx)
	r.done = true
	r.resolved, r.step, r.err = id, step, err
	r.metrics.RecordModelResolution(r.cfg.Provider, step)

	if err != nil {
		r.logger.Error().Err(err).Msg("No usable generation model")
	} else {
		r.logger.Info().Str("model", id).Str("step", step).Msg("Generation model resolved")
	}
	return id, err
}

func (r *Resolver) resolve(ctx context.Context) (string, string, error) {
	var lastErr error

	preferred := strings.TrimSpace(r.cfg.Preferred)
	if preferred != "" {
		err := r.catalog.Validate(ctx, preferred)
		if err == nil {
			return preferred, StepPreferred, nil
		}
		lastErr = err
		r.logger.Warn().Err(err).Str("model", preferred).Msg("Preferred model unavailable")
	}

	for _, candidate := range r.cfg.Fallbacks {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || sameModel(candidate, preferred) {
			continue
		}
		if err := r.catalog.Validate(ctx, candidate); err != nil {
			lastErr = err
			r.logger.Debug().Err(err).Str("model", candidate).Msg("Fallback model unavailable")
			continue
		}
		return candidate, StepFallback, nil
	}

	available, err := r.catalog.List(ctx)
	if err != nil {
		lastErr = err
	} else if id := Select(available, r.cfg.Tiers); id != "" {
		return id, StepDiscovery, nil
	}

	e := remote.New(remote.KindConfig, r.cfg.Provider, "resolve model",
		"no usable generation model; check the API key and its permissions")
	e.Cause = lastErr
	if lastErr == nil {
		e.Cause = errors.New("catalog returned no generative model")
	}
	return "", StepFailed, e
}

// Select ranks discovered identifiers: fast tier first, then capable tier,
// then any remaining model. Excluded names never qualify.
func Select(available []string, tiers Tiers) string {
	var generative []string
	for _, id := range available {
		if id == "" || matchesAny(id, tiers.Excluded) {
			continue
		}
		generative = append(generative, id)
	}

	for _, tier := range [][]string{tiers.Fast, tiers.Capable} {
		for _, id := range generative {
			if matchesAny(id, tier) {
				return id
			}
		}
	}
	if len(generative) > 0 {
		return generative[0]
	}
	return ""
}

func matchesAny(id string, fragments []string) bool {
	lower := strings.ToLower(id)
	for _, f := range fragments {
		if f != "" && strings.Contains(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// sameModel compares identifiers ignoring a "models/" resource prefix.
func sameModel(a, b string) bool {
	return strings.TrimPrefix(a, "models/") == strings.TrimPrefix(b, "models/")
}
