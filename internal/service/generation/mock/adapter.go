// Package mock provides an offline generation adapter that returns a canned
// demo script. It needs no credential and makes no network call.
package mock

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"voice-outbound-service/internal/service/generation"
)

const (
	ProviderName = "mock"
	ModelName    = "mock-demo"
)

var firstNameRe = regexp.MustCompile(`Use the first name "([^"]+)"`)

const scriptFR = `Bonjour %s,

Je suis l'Agent Gradium v1, votre premier BDR qui ne dort jamais.

Je viens de qualifier 500 leads pendant que vous preniez votre café, et j'ai détecté 12 opportunités chaudes pour votre équipe.

J'ai coûté 4€ ce matin. Un humain vous aurait coûté 200€.

Si je suis capable de vous convaincre maintenant avec cette fluidité et cette latence nulle... imaginez ce que je peux faire avec vos clients.

On me déploie quand sur votre CRM ?`

const scriptEN = `Hi %s,

I'm Gradium Agent v1, your first BDR that never sleeps.

I just qualified 500 leads while you were having your morning coffee, and I identified 12 hot opportunities for your team.

I cost $4 this morning. A human would have cost you $200.

If I can convince you right now with this fluidity and zero latency... imagine what I can do with your customers.

When do we deploy me on your CRM?`

// Adapter implements generation.Adapter without any backend.
type Adapter struct{}

// New creates a mock adapter.
func New() *Adapter {
	log.Info().Str("component", "generation").Str("provider", ProviderName).Msg("Mock generation enabled, no external API calls")
	return &Adapter{}
}

func (a *Adapter) Provider() string {
	return ProviderName
}

func (a *Adapter) Model(_ context.Context) (string, error) {
	return ModelName, nil
}

// Generate answers "fr" to language detection and a six-paragraph script
// otherwise. The script is French when the prompt asks for French.
func (a *Adapter) Generate(ctx context.Context, req generation.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.Purpose == generation.PurposeLanguage {
		return "fr", nil
	}

	name := "there"
	if m := firstNameRe.FindStringSubmatch(req.Prompt); m != nil {
		name = m[1]
	}

	if strings.Contains(req.Prompt, "in French only") {
		if name == "there" {
			name = "à vous"
		}
		return fmt.Sprintf(scriptFR, name), nil
	}
	return fmt.Sprintf(scriptEN, name), nil
}
