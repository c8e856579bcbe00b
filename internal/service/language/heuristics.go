package language

import (
	"regexp"
	"strings"

	"voice-outbound-service/internal/models"
)

var (
	frenchKeywords = []string{
		"sas", "france", "paris", "lyon", "marseille", "bordeaux",
		"lille", "toulouse", "nantes", "strasbourg", "fr", "français",
	}
	germanKeywords = []string{
		"gmbh", "ag", "kg", "germany", "deutschland", "berlin", "munich",
	}
	internationalKeywords = []string{
		"inc", "corp", "llc", "ltd", "gmbh", "ag", "bv", "sl", "global",
		"international", "ai", "tech", "labs", "io", "app", "cloud",
	}
)

// preferredCodes maps the values found in a notes source language column.
var preferredCodes = map[string]models.Language{
	"FR":      models.LanguageFrench,
	"FRENCH":  models.LanguageFrench,
	"EN":      models.LanguageEnglish,
	"ENGLISH": models.LanguageEnglish,
	"UK":      models.LanguageEnglish,
	"US":      models.LanguageEnglish,
	"ES":      models.LanguageSpanish,
	"SPANISH": models.LanguageSpanish,
	"DE":      models.LanguageGerman,
	"GERMAN":  models.LanguageGerman,
	"IT":      models.LanguageItalian,
	"ITALIAN": models.LanguageItalian,
}

// Rule names reported with a heuristic decision.
const (
	RulePreferred     = "preferred_language"
	RuleFrench        = "french_keywords"
	RuleGerman        = "german_keywords"
	RuleInternational = "international_keywords"
	RuleDefault       = "default"
)

// Heuristic picks a language from static rules. It never fails.
func Heuristic(c models.Contact) (models.Language, string) {
	if lang, ok := preferredCodes[strings.ToUpper(strings.TrimSpace(c.PreferredLanguage))]; ok {
		return lang, RulePreferred
	}

	haystack := strings.ToLower(strings.Join([]string{c.Company, c.Website, c.Sector, c.RawNotes()}, " "))
	switch {
	case containsAny(haystack, frenchKeywords):
		return models.LanguageFrench, RuleFrench
	case containsAny(haystack, germanKeywords):
		return models.LanguageGerman, RuleGerman
	case containsAny(haystack, internationalKeywords):
		return models.LanguageEnglish, RuleInternational
	default:
		return models.LanguageEnglish, RuleDefault
	}
}

// Keywords of three letters or fewer only match as whole words, so "fr"
// does not fire on "africa" nor "ai" on "maison".
const shortKeyword = 3

var wordPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, list := range [][]string{frenchKeywords, germanKeywords, internationalKeywords} {
		for _, kw := range list {
			if len([]rune(kw)) <= shortKeyword {
				wordPatterns[kw] = regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(kw) + `(?:$|[^\p{L}\p{N}])`)
			}
		}
	}
}

func containsAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if re, ok := wordPatterns[kw]; ok {
			if re.MatchString(haystack) {
				return true
			}
			continue
		}
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// ParseAnswer returns the first supported code found in a free-form answer,
// checking codes in the order fr, en, es, de, it.
func ParseAnswer(answer string) (models.Language, bool) {
	lower := strings.ToLower(answer)
	for _, lang := range models.SupportedLanguages {
		if strings.Contains(lower, string(lang)) {
			return lang, true
		}
	}
	return "", false
}
