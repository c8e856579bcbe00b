// Package prompt builds the instruction documents sent to the generation endpoint.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/service/script"
)

// MaxNotesChars bounds the raw notes embedded in a script prompt.
const MaxNotesChars = 3000

// MaxDetectionNotesChars bounds the notes embedded in a language detection prompt.
const MaxDetectionNotesChars = 500

// Profile selects the sales style the script is written in.
type Profile string

const (
	ProfileConsultative Profile = "consultative"
	ProfileAssertive    Profile = "assertive"
)

// ParseProfile validates a configured profile name. Empty means consultative.
func ParseProfile(s string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProfileConsultative:
		return ProfileConsultative, nil
	case ProfileAssertive:
		return ProfileAssertive, nil
	default:
		return "", fmt.Errorf("unknown prompt profile %q", s)
	}
}

// Sender identifies who signs the call.
type Sender struct {
	Name    string
	Company string
}

// ForbiddenPhrases are generic openers and filler the model must not use.
var ForbiddenPhrases = []string{
	"I hope this message finds you well",
	"I'm reaching out because",
	"don't hesitate to",
	"Je me permets de vous contacter",
	"n'hésitez pas à",
	"leader du marché",
	"market leader",
	"solution innovante",
	"innovative solution",
	"synergie",
	"game-changer",
	"révolutionnaire",
	"win-win",
}

type sectionSpec struct {
	marker   string
	duration string
	purpose  string
}

// Section markers match what the script extractor recognizes.
var sections = []sectionSpec{
	{"1. INTRODUCTION:", "10-15 seconds", "greet the contact by first name, say who you are and why you call now"},
	{"2. BODY:", "20-30 seconds", "tie the trigger event and the notes to a concrete challenge the company faces"},
	{"3. VALUE PROPOSITION:", "15-20 seconds", "one specific benefit for this company, with a figure if the notes allow it"},
	{"4. OBJECTION HANDLING:", "10-15 seconds", "answer the most likely objection in one or two sentences"},
	{"5. CALL-TO-ACTION:", "5-10 seconds", "ask for a short meeting with a concrete time slot"},
}

type profileSpec struct {
	role   string
	style  string
	length string
}

var profiles = map[Profile]profileSpec{
	ProfileConsultative: {
		role:   "You are an experienced B2B sales consultant writing a cold call script that will be read aloud by a voice synthesizer.",
		style:  "Sound like a peer sharing an insight. Conversational and warm, ask one open question in the body, never pressure the contact.",
		length: "The whole script must last 60 to 90 seconds when read aloud.",
	},
	ProfileAssertive: {
		role:   "You are a top-performing outbound sales representative writing a cold call script that will be read aloud by a voice synthesizer.",
		style:  "Be direct and confident. Lead with business impact, state one concrete figure, and push for a specific meeting slot.",
		length: "The whole script must last 45 to 60 seconds when read aloud. Short sentences only.",
	},
}

var triggerLabels = map[string]string{
	models.TriggerFunding:     "Funding round",
	models.TriggerExpansion:   "Expansion",
	models.TriggerRecruitment: "Recruitment drive",
	models.TriggerNewProduct:  "New product launch",
	models.TriggerAward:       "Award or recognition",
	models.TriggerPartnership: "New partnership",
	models.TriggerOther:       "Other event",
}

// TriggerLabel returns a readable label for a trigger category.
func TriggerLabel(category string) string {
	if l, ok := triggerLabels[category]; ok {
		return l
	}
	if category == "" {
		return triggerLabels[models.TriggerOther]
	}
	return category
}

// Composer builds script prompts for one sender and profile.
type Composer struct {
	sender  Sender
	profile Profile
}

// NewComposer creates a composer. An unknown profile falls back to consultative.
func NewComposer(sender Sender, profile Profile) *Composer {
	if _, ok := profiles[profile]; !ok {
		profile = ProfileConsultative
	}
	return &Composer{sender: sender, profile: profile}
}

// Profile returns the active profile.
func (c *Composer) Profile() Profile {
	return c.profile
}

// Compose returns the script instruction document. It is a pure function of its inputs.
func (c *Composer) Compose(contact models.Contact, trigger models.Trigger, lang models.Language, tone string) string {
	p := profiles[c.profile]
	langName := lang.Name()
	first := contact.FirstName()
	if tone == "" {
		tone = "professional"
	}

	var b strings.Builder
	b.WriteString(p.role)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "LANGUAGE\n")
	fmt.Fprintf(&b, "- Write the entire script in %s only. Never mix languages, not even a single word.\n", langName)
	fmt.Fprintf(&b, "- The call-to-action must also be in %s, for example: \"%s\"\n", langName, script.DefaultCallToAction(lang))
	fmt.Fprintf(&b, "- Keep the section markers below exactly as written, in English.\n\n")

	b.WriteString("CONTACT\n")
	fmt.Fprintf(&b, "- Name: %s\n", contact.FullName)
	fmt.Fprintf(&b, "- Company: %s\n", contact.Company)
	writeOptional(&b, "Title", contact.Title)
	writeOptional(&b, "Sector", contact.Sector)
	writeOptional(&b, "Company size", contact.CompanySize)
	writeOptional(&b, "Pipeline status", contact.Status)
	writeOptional(&b, "Website", contact.Website)
	writeOptional(&b, "Founded", contact.FoundedAt)
	b.WriteString("\n")

	b.WriteString("TRIGGER EVENT\n")
	fmt.Fprintf(&b, "- Type: %s\n", TriggerLabel(trigger.Type))
	fmt.Fprintf(&b, "- Description: %s\n", trigger.Description)
	if !trigger.OccurredAt.IsZero() {
		fmt.Fprintf(&b, "- Date: %s\n", trigger.OccurredAt.Format("2006-01-02"))
	}
	writeOptional(&b, "Source", trigger.Source)
	b.WriteString("\n")

	if n := contact.Notes; n != nil {
		if n.RawNotes != "" {
			b.WriteString("NOTES (MANDATORY: build the body and value proposition on these notes, quote concrete facts from them)\n")
			b.WriteString(Truncate(n.RawNotes, MaxNotesChars))
			b.WriteString("\n\n")
		}
		if n.Narrative != "" || len(n.PainPoints) > 0 || n.ValueProposition != "" {
			b.WriteString("CONTEXT\n")
			writeOptional(&b, "Current situation", n.Narrative)
			if len(n.PainPoints) > 0 {
				fmt.Fprintf(&b, "- Pain points: %s\n", strings.Join(n.PainPoints, "; "))
			}
			writeOptional(&b, "Value proposition to highlight", n.ValueProposition)
			b.WriteString("\n")
		}
	}

	b.WriteString("PERSONALIZATION\n")
	if first != "" {
		fmt.Fprintf(&b, "- Use the first name \"%s\" two to three times across the script.\n", first)
	}
	fmt.Fprintf(&b, "- The caller is %s from %s. Introduce yourself with that name and sign off with it.\n", c.sender.Name, c.sender.Company)
	fmt.Fprintf(&b, "- Tone: %s. %s\n", tone, p.style)
	fmt.Fprintf(&b, "- %s\n\n", p.length)

	b.WriteString("STRUCTURE (five sections, in this order)\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "%s (%s) %s\n", s.marker, s.duration, s.purpose)
	}
	b.WriteString("\n")

	b.WriteString("FORBIDDEN PHRASES (never use these or their translations)\n")
	for _, f := range ForbiddenPhrases {
		fmt.Fprintf(&b, "- \"%s\"\n", f)
	}
	b.WriteString("\n")

	b.WriteString("OUTPUT FORMAT\n")
	b.WriteString("- Start each section on its own line with its marker, e.g. \"1. INTRODUCTION:\", followed by the spoken text.\n")
	b.WriteString("- Separate sections with one blank line.\n")
	b.WriteString("- Output only the script: no title, no stage directions, no markdown, no commentary.\n")

	return b.String()
}

// ComposeLanguageDetection returns a prompt asking for the contact's language as a code.
func ComposeLanguageDetection(contact models.Contact) string {
	var b strings.Builder
	b.WriteString("Which language should a sales call to this contact be made in?\n\n")
	fmt.Fprintf(&b, "- Company: %s\n", contact.Company)
	writeOptional(&b, "Sector", contact.Sector)
	writeOptional(&b, "Website", contact.Website)
	if notes := contact.RawNotes(); notes != "" {
		fmt.Fprintf(&b, "- Notes: %s\n", Truncate(notes, MaxDetectionNotesChars))
	}
	fmt.Fprintf(&b, "- Contact name: %s\n\n", contact.FullName)
	b.WriteString("Answer with only the two-letter code, one of: fr, en, es, de, it.")
	return b.String()
}

// Truncate cuts s to at most limit characters without splitting a UTF-8 sequence.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func writeOptional(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}
