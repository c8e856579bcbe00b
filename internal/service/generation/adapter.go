// Package generation defines the interface for text-generation adapters.
package generation

import "context"

// Purpose tells an adapter what a request is for. Real backends ignore it;
// the mock uses it to pick a canned answer.
type Purpose string

const (
	PurposeScript   Purpose = "script"
	PurposeLanguage Purpose = "language"
)

// Params are the sampling parameters of one generation call. Zero values
// leave the provider default in place.
type Params struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

// ScriptParams are used to write call scripts.
var ScriptParams = Params{
	Temperature:     0.7,
	TopP:            0.95,
	TopK:            40,
	MaxOutputTokens: 2048,
}

// LanguageParams are used for the short language detection answer.
var LanguageParams = Params{
	Temperature:     0.1,
	MaxOutputTokens: 10,
}

// Request is one prompt to generate from.
type Request struct {
	Purpose Purpose
	Prompt  string
	Params  Params
}

// Adapter defines the interface for generation providers (Gemini, Kimi, mock).
//
// An adapter owns its model resolution cache, so one instance should serve
// one logical session.
type Adapter interface {
	// Provider returns the configured provider name.
	Provider() string

	// Model returns the model identifier in use, resolving it on first call.
	Model(ctx context.Context) (string, error)

	// Generate returns the free-form text produced for req. An empty answer
	// is not an error.
	Generate(ctx context.Context, req Request) (string, error)
}
