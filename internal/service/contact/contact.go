// Package contact assembles the Contact record for a run from a structured
// notes source and an enrichment source, either of which may be unavailable.
package contact

import (
	"context"
	"strings"

	"voice-outbound-service/internal/models"
)

// NotesSource is the primary, internal record of contacts.
type NotesSource interface {
	// FindByName returns the first record whose name contains the query's
	// first name, or nil when there is none or the source is not configured.
	FindByName(ctx context.Context, fullName string) (*models.Contact, error)

	// SaveInteraction records that a call was generated. Implementations may
	// discard the write but must report success.
	SaveInteraction(ctx context.Context, fullName, summary string) (bool, error)
}

// Verification is the outcome of an email validity check.
type Verification struct {
	Status string `json:"status"`
	Score  int    `json:"score"`
	Result string `json:"result,omitempty"`
}

// StatusUnknown is reported when no check could be made.
const StatusUnknown = "unknown"

// EnrichmentSource is the external people-search service.
type EnrichmentSource interface {
	// SearchDomain lists the people known at domain as partial contacts of company.
	SearchDomain(ctx context.Context, company, domain string) ([]models.Contact, error)

	// VerifyEmail checks one address. An unconfigured source returns
	// StatusUnknown with a zero score.
	VerifyEmail(ctx context.Context, email string) (Verification, error)
}

var domainStrip = strings.NewReplacer(" ", "", "-", "", "&", "", ".", "", ",", "")

// GuessDomain derives a likely web domain from a company name.
func GuessDomain(company string) string {
	name := domainStrip.Replace(strings.ToLower(strings.TrimSpace(company)))
	if name == "" {
		return ""
	}
	return name + ".com"
}

// CleanDomain removes a scheme and a leading "www." from a website or domain.
func CleanDomain(site string) string {
	d := strings.TrimSpace(site)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return d
}

// MatchByName returns the first candidate whose full name contains name,
// ignoring case.
func MatchByName(candidates []models.Contact, name string) (models.Contact, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return models.Contact{}, false
	}
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.FullName), needle) {
			return c, true
		}
	}
	return models.Contact{}, false
}

// Merge fills the empty fields of dst from src. Non-empty fields of dst are
// never overwritten, so the first source wins on conflicts. It returns the
// names of the fields it filled.
func Merge(dst *models.Contact, src models.Contact) []string {
	var filled []string
	fill := func(name string, d *string, s string) {
		if *d == "" && s != "" {
			*d = s
			filled = append(filled, name)
		}
	}

	fill("fullName", &dst.FullName, src.FullName)
	fill("company", &dst.Company, src.Company)
	fill("title", &dst.Title, src.Title)
	fill("companySize", &dst.CompanySize, src.CompanySize)
	fill("status", &dst.Status, src.Status)
	fill("sector", &dst.Sector, src.Sector)
	fill("website", &dst.Website, src.Website)
	fill("foundedAt", &dst.FoundedAt, src.FoundedAt)
	fill("preferredLanguage", &dst.PreferredLanguage, src.PreferredLanguage)
	fill("email", &dst.Email, src.Email)
	fill("emailStatus", &dst.EmailStatus, src.EmailStatus)

	if dst.Notes == nil && src.Notes != nil {
		n := *src.Notes
		dst.Notes = &n
		filled = append(filled, "notes")
	}
	return filled
}
