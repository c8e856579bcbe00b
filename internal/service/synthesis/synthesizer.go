// Package synthesis defines the interface for text-to-speech backends.
package synthesis

import (
	"context"

	"voice-outbound-service/internal/models"
)

// Request is one text to speak.
type Request struct {
	Text     string
	Language models.Language
	Voice    string  // empty selects the backend default for Language
	Speed    float64 // 1 is normal pace; passed through unvalidated
}

// Voice describes one selectable voice.
type Voice struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Language models.Language `json:"language"`
}

// Synthesizer is implemented by Gradium and Polly.
type Synthesizer interface {
	Provider() string

	// Synthesize returns a complete WAV artifact. Its duration is estimated
	// from the text, not measured from the samples.
	Synthesize(ctx context.Context, req Request) (*models.AudioArtifact, error)

	// Voices lists the voices for lang, or every voice when lang is empty.
	Voices(lang models.Language) []Voice
}

// FilterVoices returns the voices matching lang, or all of them for an empty lang.
func FilterVoices(all []Voice, lang models.Language) []Voice {
	if lang == "" || lang == models.LanguageAuto {
		return append([]Voice(nil), all...)
	}
	out := make([]Voice, 0, len(all))
	for _, v := range all {
		if v.Language == lang {
			out = append(out, v)
		}
	}
	return out
}
