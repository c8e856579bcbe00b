package script

import (
	"testing"

	"voice-outbound-service/internal/models"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		line string
		sec  section
		rest string
		ok   bool
	}{
		{"1. INTRODUCTION:", sectionIntroduction, "", true},
		{"**2. Corps du message** :", sectionBody, "", true},
		{"## Value Proposition", sectionValueProposition, "", true},
		{"Objection handling - If you are busy", sectionObjection, "If you are busy", true},
		{"CALL-TO-ACTION (10s): Shall we talk?", sectionCallToAction, "Shall we talk?", true},
		{"[Appel à l'action]", sectionCallToAction, "", true},
		{"3) Nous aidons les PME.", sectionValueProposition, "Nous aidons les PME.", true},
		{"Introduction à notre offre", sectionNone, "", false},
		{"Bonjour Jean,", sectionNone, "", false},
		{"1.5 million raised last week", sectionNone, "", false},
		{"Appelez-nous.", sectionNone, "", false},
		{"7. Something", sectionNone, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			sec, rest, ok := parseHeader(tt.line)
			if ok != tt.ok || sec != tt.sec || rest != tt.rest {
				t.Errorf("expected (%s, %q, %v), got (%s, %q, %v)", tt.sec, tt.rest, tt.ok, sec, rest, ok)
			}
		})
	}
}

func TestMarkerStrategy_NoMarkers(t *testing.T) {
	_, ok := MarkerStrategy{}.Extract("Bonjour Jean,\n\nVotre expansion...", models.LanguageFrench, models.Script{})
	if ok {
		t.Error("expected no result without markers")
	}
}

func TestMarkerStrategy_SectionsOnlyMoveForward(t *testing.T) {
	raw := "3. VALUE PROPOSITION:\nWe help with:\n1. costs\n2. speed\n5. CTA: Call us back."

	s, ok := MarkerStrategy{}.Extract(raw, models.LanguageEnglish, models.Script{})
	if !ok {
		t.Fatal("expected markers to be found")
	}
	if s.ValueProposition != "We help with:\n1. costs\n2. speed" {
		t.Errorf("unexpected value proposition %q", s.ValueProposition)
	}
	if s.CallToAction != "Call us back." {
		t.Errorf("unexpected call to action %q", s.CallToAction)
	}
}

func TestMarkerStrategy_NumberedListStaysInSection(t *testing.T) {
	raw := "1. INTRODUCTION:\nBonjour Jean.\n\n" +
		"2. CORPS DU MESSAGE:\nTrois constats :\n1. vos coûts montent\n2. vos équipes saturent\n3. vos délais glissent\n\n" +
		"VALUE PROPOSITION: Nous réduisons vos coûts de 30%.\n\n" +
		"5. CALL-TO-ACTION: Jeudi ?"

	s, ok := MarkerStrategy{}.Extract(raw, models.LanguageFrench, models.Script{})
	if !ok {
		t.Fatal("expected markers to be found")
	}
	if s.Body != "Trois constats :\n1. vos coûts montent\n2. vos équipes saturent\n3. vos délais glissent" {
		t.Errorf("unexpected body %q", s.Body)
	}
	if s.ValueProposition != "Nous réduisons vos coûts de 30%." {
		t.Errorf("unexpected value proposition %q", s.ValueProposition)
	}
	if s.CallToAction != "Jeudi ?" {
		t.Errorf("unexpected call to action %q", s.CallToAction)
	}
}

func TestMarkerStrategy_OrdinalOutline(t *testing.T) {
	raw := "1. Bonjour Jean.\n2. Votre levée de fonds.\n3. Nous aidons les PME.\n4. Pas le temps ? Deux minutes.\n5. Jeudi ?"

	s, ok := MarkerStrategy{}.Extract(raw, models.LanguageFrench, models.Script{})
	if !ok {
		t.Fatal("expected markers to be found")
	}
	if s.Introduction != "Bonjour Jean." || s.Body != "Votre levée de fonds." || s.ValueProposition != "Nous aidons les PME." {
		t.Errorf("unexpected sections %+v", s)
	}
	if len(s.Objections) != 1 || s.CallToAction != "Jeudi ?" {
		t.Errorf("unexpected closing sections %+v", s)
	}
}

func TestOpens(t *testing.T) {
	tests := []struct {
		name           string
		h              header
		current        section
		ordinalOutline bool
		paragraphStart bool
		want           bool
	}{
		{"keyword always opens", header{sec: sectionCallToAction, keyword: true}, sectionBody, false, false, true},
		{"first marker opens", header{sec: sectionValueProposition}, sectionNone, false, false, true},
		{"next ordinal after blank line", header{sec: sectionValueProposition}, sectionBody, false, true, true},
		{"next ordinal in outline", header{sec: sectionValueProposition}, sectionBody, true, false, true},
		{"list item after keyword section", header{sec: sectionValueProposition}, sectionBody, false, false, false},
		{"skipping ahead", header{sec: sectionCallToAction}, sectionBody, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := opens(tt.h, tt.current, tt.ordinalOutline, tt.paragraphStart); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParagraphStrategy_Positions(t *testing.T) {
	p := ParagraphStrategy{MinLength: MinParagraphLength}

	tests := []struct {
		name       string
		raw        string
		intro      string
		cta        string
		objections int
	}{
		{"three", "Paragraph one.\n\nParagraph two.\n\nParagraph three.", "Paragraph one.", "", 0},
		{"four", "Paragraph one.\n\nParagraph two.\n\nParagraph three.\n\nParagraph four.", "Paragraph one.", "Paragraph four.", 0},
		{"six", "Paragraph one.\n\nParagraph two.\n\nParagraph three.\n\nParagraph four.\n\nParagraph five.\n\nParagraph six.", "Paragraph one.", "Paragraph six.", 1},
		{"short fragments dropped", "ok\n\nParagraph one.\n\n--\n\nParagraph two.", "Paragraph one.", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := p.Extract(tt.raw, models.LanguageEnglish, models.Script{})
			if !ok {
				t.Fatal("expected paragraphs")
			}
			if s.Introduction != tt.intro {
				t.Errorf("expected introduction %q, got %q", tt.intro, s.Introduction)
			}
			if s.CallToAction != tt.cta {
				t.Errorf("expected call to action %q, got %q", tt.cta, s.CallToAction)
			}
			if len(s.Objections) != tt.objections {
				t.Errorf("expected %d objections, got %d", tt.objections, len(s.Objections))
			}
		})
	}
}

func TestParagraphStrategy_FiveParagraphsUsesFourthAsObjection(t *testing.T) {
	raw := "Paragraph one.\n\nParagraph two.\n\nParagraph three.\n\nParagraph four.\n\nParagraph five."
	s, _ := ParagraphStrategy{MinLength: 10}.Extract(raw, models.LanguageEnglish, models.Script{})

	if len(s.Objections) != 1 || s.Objections[0] != "Paragraph four." {
		t.Errorf("unexpected objections %#v", s.Objections)
	}
	if s.CallToAction != "Paragraph five." {
		t.Errorf("unexpected call to action %q", s.CallToAction)
	}
}

func TestParagraphStrategy_SkippedWhenIntroductionKnown(t *testing.T) {
	_, ok := ParagraphStrategy{MinLength: 10}.Extract("Paragraph one.\n\nParagraph two.", models.LanguageEnglish, models.Script{Introduction: "x"})
	if ok {
		t.Error("expected strategy to decline when introduction is known")
	}
}

func TestParagraphStrategy_StripsPrefixes(t *testing.T) {
	raw := "1. Bonjour Jean, comment allez-vous ?\n\nCorps : Votre levée de fonds est impressionnante."
	s, _ := ParagraphStrategy{MinLength: 10}.Extract(raw, models.LanguageFrench, models.Script{})

	if s.Introduction != "Bonjour Jean, comment allez-vous ?" {
		t.Errorf("unexpected introduction %q", s.Introduction)
	}
	if s.Body != "Votre levée de fonds est impressionnante." {
		t.Errorf("unexpected body %q", s.Body)
	}
}

func TestDefaultStrategy(t *testing.T) {
	s, ok := DefaultStrategy{}.Extract("", models.LanguageItalian, models.Script{})
	if !ok {
		t.Fatal("expected defaults to always apply")
	}
	if s.CallToAction != DefaultCallToAction(models.LanguageItalian) {
		t.Errorf("unexpected call to action %q", s.CallToAction)
	}
	if s.Objections != nil {
		t.Errorf("expected defaults to leave objections unset, got %#v", s.Objections)
	}
}
