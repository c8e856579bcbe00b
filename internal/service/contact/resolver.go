package contact

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/observability/metrics"
)

// Where a resolved contact came from.
const (
	OriginNotes      = "notes"
	OriginEnrichment = "enrichment"
	OriginMinimal    = "minimal"
)

// Resolution is the contact for one run and where it was found.
type Resolution struct {
	Contact models.Contact
	Origin  string
	Filled  []string // fields added by enrichment
}

// Resolver looks a contact up in the notes source, then in the enrichment
// source, and finally builds a minimal record. It never fails: source errors
// are logged and treated as misses.
type Resolver struct {
	notes      NotesSource
	enrichment EnrichmentSource
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewResolver creates a resolver. Either source may be nil.
func NewResolver(notes NotesSource, enrichment EnrichmentSource) *Resolver {
	return &Resolver{
		notes:      notes,
		enrichment: enrichment,
		logger:     log.With().Str("component", "contact-resolver").Logger(),
		metrics:    metrics.DefaultMetrics,
	}
}

// Resolve returns the best contact record available for fullName at company.
func (r *Resolver) Resolve(ctx context.Context, fullName, company string) Resolution {
	logger := r.logger.With().Str("contact", fullName).Str("company", company).Logger()

	if found := r.fromNotes(ctx, logger, fullName); found != nil {
		if found.FullName == "" {
			found.FullName = fullName
		}
		if found.Company == "" {
			found.Company = company
		}
		filled := r.Enrich(ctx, found)
		logger.Info().Strs("enriched", filled).Msg("Contact found in notes source")
		return Resolution{Contact: *found, Origin: OriginNotes, Filled: filled}
	}

	if found, ok := r.fromEnrichment(ctx, logger, fullName, company); ok {
		// The domain was just searched, so only the email is left to check.
		filled := r.verifyEmail(ctx, &found)
		logger.Info().Strs("enriched", filled).Msg("Contact found by domain search")
		return Resolution{Contact: found, Origin: OriginEnrichment, Filled: filled}
	}

	logger.Warn().Msg("Contact not found in any source, using name and company only")
	r.metrics.RecordDegraded("resolve_contact", "not_found")
	return Resolution{
		Contact: models.Contact{FullName: fullName, Company: company},
		Origin:  OriginMinimal,
	}
}

func (r *Resolver) fromNotes(ctx context.Context, logger zerolog.Logger, fullName string) *models.Contact {
	if r.notes == nil {
		return nil
	}
	found, err := r.notes.FindByName(ctx, fullName)
	if err != nil {
		logger.Warn().Err(err).Msg("Notes source lookup failed")
		r.metrics.RecordDegraded("resolve_contact", "notes_error")
		return nil
	}
	return found
}

func (r *Resolver) fromEnrichment(ctx context.Context, logger zerolog.Logger, fullName, company string) (models.Contact, bool) {
	if r.enrichment == nil {
		return models.Contact{}, false
	}
	domain := GuessDomain(company)
	if domain == "" {
		return models.Contact{}, false
	}
	candidates, err := r.enrichment.SearchDomain(ctx, company, domain)
	if err != nil {
		logger.Warn().Err(err).Str("domain", domain).Msg("Domain search failed")
		r.metrics.RecordDegraded("resolve_contact", "enrichment_error")
		return models.Contact{}, false
	}
	match, ok := MatchByName(candidates, fullName)
	if !ok {
		return models.Contact{}, false
	}
	if match.Company == "" {
		match.Company = company
	}
	return match, true
}

// Enrich adds what the enrichment source knows to c, in place. It verifies
// a known email and, when the website is unknown, searches the guessed
// domain for a matching person. Failures leave c unchanged.
func (r *Resolver) Enrich(ctx context.Context, c *models.Contact) []string {
	if r.enrichment == nil {
		return nil
	}
	filled := r.verifyEmail(ctx, c)

	if c.Company != "" && strings.TrimSpace(c.Website) == "" {
		domain := GuessDomain(c.Company)
		candidates, err := r.enrichment.SearchDomain(ctx, c.Company, domain)
		if err != nil {
			r.logger.Warn().Err(err).Str("domain", domain).Msg("Enrichment search failed")
			return filled
		}
		if match, ok := MatchByName(candidates, c.FullName); ok {
			filled = append(filled, Merge(c, models.Contact{Title: match.Title, Email: match.Email})...)
		}
	}
	return filled
}

func (r *Resolver) verifyEmail(ctx context.Context, c *models.Contact) []string {
	if r.enrichment == nil || c.Email == "" || c.EmailStatus != "" {
		return nil
	}
	v, err := r.enrichment.VerifyEmail(ctx, c.Email)
	switch {
	case err != nil:
		r.logger.Warn().Err(err).Str("contact", c.FullName).Msg("Email verification failed")
	case v.Status != "" && v.Status != StatusUnknown:
		c.EmailStatus = v.Status
		return []string{"emailStatus"}
	}
	return nil
}
