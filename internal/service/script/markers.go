package script

import (
	"regexp"
	"strings"
)

// section identifies one of the five script parts. Values follow reading
// order so that numeric ordinals map directly onto them.
type section int

const (
	sectionNone section = iota
	sectionIntroduction
	sectionBody
	sectionValueProposition
	sectionObjection
	sectionCallToAction
)

func (s section) String() string {
	switch s {
	case sectionIntroduction:
		return "introduction"
	case sectionBody:
		return "body"
	case sectionValueProposition:
		return "value_proposition"
	case sectionObjection:
		return "objection"
	case sectionCallToAction:
		return "call_to_action"
	default:
		return "none"
	}
}

// Section names in French and English, longest alternatives first.
var sectionKeywords = []struct {
	section section
	re      *regexp.Regexp
}{
	{sectionIntroduction, regexp.MustCompile(`(?i)^(?:introduction|intro|accroche|hook|opening|ouverture)\b`)},
	{sectionBody, regexp.MustCompile(`(?i)^(?:corps du message|corps|body|d[ée]veloppement)\b`)},
	{sectionValueProposition, regexp.MustCompile(`(?i)^(?:proposition de valeur|value proposition|proposition|valeur)\b`)},
	{sectionObjection, regexp.MustCompile(`(?i)^(?:gestion des objections|traitement des objections|objection handling|r[ée]ponses? aux objections|objections?)\b`)},
	{sectionCallToAction, regexp.MustCompile(`(?i)^(?:call[- ]to[- ]action|appel [àa] l'action|cta|conclusion|closing|cl[ôo]ture)\b`)},
}

var (
	ordinalRe     = regexp.MustCompile(`^([1-5])[.)](?:[ \t*_]+|$)`)
	parentheticRe = regexp.MustCompile(`^\([^)\n]*\)`)
	separatorRe   = regexp.MustCompile(`^[\s\-*_=]+$`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

const (
	leadingNoise  = " \t#*_>["
	trailingNoise = " \t*_]"
)

// header is a recognized section marker. keyword is false for a bare ordinal.
type header struct {
	sec     section
	rest    string
	keyword bool
}

// parseHeader reports whether line opens a section. rest is whatever follows
// the marker on the same line.
func parseHeader(line string) (sec section, rest string, ok bool) {
	h, ok := parseMarker(line)
	return h.sec, h.rest, ok
}

// parseMarker recognizes a section marker.
//
// A keyword is a header only when a delimiter or the end of the line follows
// it. Otherwise a leading ordinal ("2. ...") decides the section.
func parseMarker(line string) (header, bool) {
	s := strings.TrimLeft(line, leadingNoise)

	ordinal := sectionNone
	if m := ordinalRe.FindStringSubmatchIndex(s); m != nil {
		ordinal = section(s[m[2]] - '0')
		s = strings.TrimLeft(s[m[1]:], leadingNoise)
	}

	for _, kw := range sectionKeywords {
		loc := kw.re.FindStringIndex(s)
		if loc == nil {
			continue
		}
		if tail, delimited := trimHeaderTail(s[loc[1]:]); delimited {
			return header{sec: kw.section, rest: tail, keyword: true}, true
		}
		break
	}

	if ordinal != sectionNone {
		return header{sec: ordinal, rest: strings.TrimSpace(s)}, true
	}
	return header{}, false
}

// opens reports whether h starts a new section given the open one. A keyword
// always does. Inside a section a bare ordinal only does when it is the next
// number and either starts a paragraph or continues an ordinal-only outline;
// otherwise it is a list item.
func opens(h header, current section, ordinalOutline, paragraphStart bool) bool {
	if h.keyword || current == sectionNone {
		return true
	}
	return h.sec == current+1 && (paragraphStart || ordinalOutline)
}

// trimHeaderTail strips emphasis, a duration hint and a delimiter after a keyword.
func trimHeaderTail(s string) (string, bool) {
	s = strings.TrimLeft(s, trailingNoise)
	if loc := parentheticRe.FindStringIndex(s); loc != nil {
		s = strings.TrimLeft(s[loc[1]:], trailingNoise)
	}
	if s == "" {
		return "", true
	}
	for _, d := range []string{":", "-", "–", "—"} {
		if strings.HasPrefix(s, d) {
			return strings.TrimSpace(strings.TrimLeft(s[len(d):], trailingNoise)), true
		}
	}
	return s, false
}

// stripPrefix removes a leading section marker from the first line of block.
func stripPrefix(block string) string {
	first, remainder, multi := strings.Cut(block, "\n")
	if _, rest, ok := parseHeader(first); ok {
		first = rest
	}
	if multi {
		return cleanBlock(first + "\n" + remainder)
	}
	return cleanBlock(first)
}

// cleanBlock drops separator lines and leftover emphasis around a captured block.
func cleanBlock(block string) string {
	lines := strings.Split(block, "\n")
	kept := lines[:0]
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l != "" && separatorRe.MatchString(l) {
			continue
		}
		kept = append(kept, l)
	}
	out := strings.Join(kept, "\n")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.Trim(out, " \t\n*_")
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
