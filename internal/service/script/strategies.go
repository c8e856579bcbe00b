package script

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"voice-outbound-service/internal/models"
)

// Strategy recovers part of a script from raw generated text. current holds
// what earlier strategies already found; a strategy may decline to run.
type Strategy interface {
	Name() string
	Extract(raw string, lang models.Language, current models.Script) (models.Script, bool)
}

// MarkerStrategy reads sections introduced by ordinals or section names.
type MarkerStrategy struct{}

func (MarkerStrategy) Name() string { return "markers" }

func (MarkerStrategy) Extract(raw string, _ models.Language, _ models.Script) (models.Script, bool) {
	blocks := make(map[section]*strings.Builder)
	current, last := sectionNone, sectionNone
	ordinalOutline, paragraphStart := false, true

	for _, line := range strings.Split(normalizeNewlines(raw), "\n") {
		// Sections only move forward; a numbered list inside a section stays in it.
		if h, ok := parseMarker(line); ok && h.sec > last && opens(h, current, ordinalOutline, paragraphStart) {
			current, last = h.sec, h.sec
			ordinalOutline = !h.keyword
			paragraphStart = false
			b := &strings.Builder{}
			b.WriteString(h.rest)
			blocks[h.sec] = b
			continue
		}
		paragraphStart = strings.TrimSpace(line) == ""
		if current == sectionNone {
			continue
		}
		b := blocks[current]
		b.WriteByte('\n')
		b.WriteString(line)
	}

	var out models.Script
	found := false
	for sec, b := range blocks {
		text := cleanBlock(b.String())
		if text == "" {
			continue
		}
		found = true
		switch sec {
		case sectionIntroduction:
			out.Introduction = text
		case sectionBody:
			out.Body = text
		case sectionValueProposition:
			out.ValueProposition = text
		case sectionObjection:
			out.Objections = []string{text}
		case sectionCallToAction:
			out.CallToAction = text
		}
	}
	return out, found
}

var paragraphBreakRe = regexp.MustCompile(`\n[ \t]*\n`)

// ParagraphStrategy assigns blank-line separated paragraphs by position. It
// only runs when no introduction has been found yet.
type ParagraphStrategy struct {
	// MinLength drops fragments shorter than this many characters.
	MinLength int
}

func (ParagraphStrategy) Name() string { return "paragraphs" }

func (p ParagraphStrategy) Extract(raw string, _ models.Language, current models.Script) (models.Script, bool) {
	if current.Introduction != "" {
		return models.Script{}, false
	}

	paragraphs := p.split(raw)
	if len(paragraphs) == 0 {
		return models.Script{}, false
	}

	var out models.Script
	out.Introduction = paragraphs[0]
	if len(paragraphs) > 1 {
		out.Body = paragraphs[1]
	}
	if len(paragraphs) > 2 {
		out.ValueProposition = paragraphs[2]
	}
	switch n := len(paragraphs); {
	case n == 4:
		out.CallToAction = paragraphs[3]
	case n >= 5:
		out.Objections = []string{paragraphs[3]}
		out.CallToAction = paragraphs[n-1]
	}
	return out, true
}

func (p ParagraphStrategy) split(raw string) []string {
	var out []string
	for _, block := range paragraphBreakRe.Split(normalizeNewlines(raw), -1) {
		text := stripPrefix(strings.TrimSpace(block))
		if utf8.RuneCountInString(text) < p.MinLength {
			continue
		}
		out = append(out, text)
	}
	return out
}

// DefaultStrategy supplies the canned text for the target language.
type DefaultStrategy struct{}

func (DefaultStrategy) Name() string { return "defaults" }

func (DefaultStrategy) Extract(_ string, lang models.Language, _ models.Script) (models.Script, bool) {
	s := Default(lang)
	s.Objections = nil
	return s, true
}
