// Package schema validates outgoing events against embedded JSON Schemas.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"voice-outbound-service/internal/models"
)

//go:embed schemas/*.json
var files embed.FS

const baseURL = "https://voice-outbound-service/schemas/"

var schemaFiles = map[string]string{
	models.EventCallGenerated: "call_generated.json",
	models.EventCallFailed:    "call_failed.json",
}

// Validator holds one compiled schema per event type.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(schemaFiles))}
	for eventType, name := range schemaFiles {
		raw, err := files.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		if err := compiler.AddResource(baseURL+name, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add schema resource %s: %w", name, err)
		}
		s, err := compiler.Compile(baseURL + name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[eventType] = s
	}
	return v, nil
}

// MustNew is New for package-level setup; it panics if an embedded schema is broken.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks event against the schema registered for eventType.
func (v *Validator) Validate(eventType string, event any) error {
	s, ok := v.schemas[eventType]
	if !ok {
		return fmt.Errorf("no schema for event type %q", eventType)
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode %s: %w", eventType, err)
	}
	if err := s.Validate(payload); err != nil {
		return fmt.Errorf("%s: %w", eventType, err)
	}
	return nil
}
