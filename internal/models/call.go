// Package models defines the records that flow through a call-generation run.
package models

import (
	"strings"
	"time"
)

// Language is an ISO 639-1 code, or "auto" for detection.
type Language string

const (
	LanguageAuto    Language = "auto"
	LanguageFrench  Language = "fr"
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
	LanguageGerman  Language = "de"
	LanguageItalian Language = "it"
)

// SupportedLanguages lists the concrete languages a script can be written in,
// in the order they are matched when parsing a detection answer.
var SupportedLanguages = []Language{
	LanguageFrench,
	LanguageEnglish,
	LanguageSpanish,
	LanguageGerman,
	LanguageItalian,
}

// ParseLanguage maps a user-supplied code to a Language. Empty input means auto.
func ParseLanguage(s string) (Language, bool) {
	code := Language(strings.ToLower(strings.TrimSpace(s)))
	if code == "" || code == LanguageAuto {
		return LanguageAuto, true
	}
	for _, l := range SupportedLanguages {
		if l == code {
			return l, true
		}
	}
	return "", false
}

// Name returns the English name of the language, used inside prompts.
func (l Language) Name() string {
	switch l {
	case LanguageFrench:
		return "French"
	case LanguageEnglish:
		return "English"
	case LanguageSpanish:
		return "Spanish"
	case LanguageGerman:
		return "German"
	case LanguageItalian:
		return "Italian"
	default:
		return string(l)
	}
}

// EnrichedNotes is the free-form knowledge a notes source holds about a contact.
type EnrichedNotes struct {
	Narrative        string   `json:"narrative,omitempty"`
	PainPoints       []string `json:"painPoints,omitempty"`
	ValueProposition string   `json:"valueProposition,omitempty"`
	RawNotes         string   `json:"rawNotes,omitempty"`
}

// Contact is the person being approached. FullName and Company are always
// set; every other field is optional and filled by enrichment.
type Contact struct {
	FullName          string         `json:"fullName"`
	Company           string         `json:"company"`
	Title             string         `json:"title,omitempty"`
	CompanySize       string         `json:"companySize,omitempty"`
	Status            string         `json:"status,omitempty"`
	Sector            string         `json:"sector,omitempty"`
	Website           string         `json:"website,omitempty"`
	FoundedAt         string         `json:"foundedAt,omitempty"`
	PreferredLanguage string         `json:"preferredLanguage,omitempty"`
	Email             string         `json:"email,omitempty"`
	EmailStatus       string         `json:"emailStatus,omitempty"`
	Notes             *EnrichedNotes `json:"notes,omitempty"`
}

// FirstName returns the first whitespace-separated token of FullName.
func (c Contact) FirstName() string {
	fields := strings.Fields(c.FullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// RawNotes returns the raw notes text, or "" when there are no notes.
func (c Contact) RawNotes() string {
	if c.Notes == nil {
		return ""
	}
	return c.Notes.RawNotes
}

// Trigger categories understood by the prompt composer. Other labels are accepted verbatim.
const (
	TriggerFunding     = "funding"
	TriggerExpansion   = "expansion"
	TriggerRecruitment = "recruitment"
	TriggerNewProduct  = "new_product"
	TriggerAward       = "award"
	TriggerPartnership = "partnership"
	TriggerOther       = "other"
)

// Trigger is the event that justifies the call.
type Trigger struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurredAt"`
	Source      string    `json:"source,omitempty"`
}

// Script is the five-section text read aloud during the call.
type Script struct {
	Introduction     string   `json:"introduction"`
	Body             string   `json:"body"`
	ValueProposition string   `json:"valueProposition"`
	Objections       []string `json:"objections"`
	CallToAction     string   `json:"callToAction"`
	Language         Language `json:"language"`
	DurationSeconds  int      `json:"estimatedDurationSeconds"`
}

// FullText joins the non-empty sections in reading order.
func (s Script) FullText() string {
	parts := make([]string, 0, 4+len(s.Objections))
	for _, p := range []string{s.Introduction, s.Body, s.ValueProposition} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	for _, o := range s.Objections {
		if o != "" {
			parts = append(parts, o)
		}
	}
	if s.CallToAction != "" {
		parts = append(parts, s.CallToAction)
	}
	return strings.Join(parts, "\n\n")
}

// AudioFormatWAV tags a RIFF/WAVE linear PCM container.
const AudioFormatWAV = "wav"

// AudioArtifact is a complete, playable audio container.
type AudioArtifact struct {
	Data            []byte   `json:"data"`
	Format          string   `json:"format"`
	DurationSeconds float64  `json:"durationSeconds"`
	Language        Language `json:"language"`
	LocalPath       string   `json:"localPath,omitempty"`
}

// CallResult is everything a successful run produces.
type CallResult struct {
	RunID        string        `json:"runId"`
	Contact      Contact       `json:"contact"`
	Trigger      Trigger       `json:"trigger"`
	Script       Script        `json:"script"`
	Audio        AudioArtifact `json:"audio"`
	Language     Language      `json:"language"`
	AutoDetected bool          `json:"autoDetected"`
	Provider     string        `json:"provider"`
	Model        string        `json:"model,omitempty"`
	Voice        string        `json:"voice,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}
