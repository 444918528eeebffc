package llmannotate

import (
	"encoding/json"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/hubenschmidt/speakscore-engine/internal/engine"
)

var (
	schemaOnce   sync.Once
	cachedSchema *jsonschema.Schema
	cachedJSON   string
	schemaErr    error
)

// Schema reflects engine.LLMAnnotation into a JSON Schema once and caches
// it; every annotate call reuses the same *jsonschema.Schema instance.
func Schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		cachedSchema, schemaErr = jsonschema.For[engine.LLMAnnotation](nil)
		if schemaErr == nil {
			if b, err := json.Marshal(cachedSchema); err == nil {
				cachedJSON = string(b)
			}
		}
	})
	return cachedSchema, schemaErr
}

// SchemaJSON returns the schema's JSON text, for embedding in a prompt
// (used by the Anthropic backend, which has no structured response_format).
func SchemaJSON() (string, error) {
	if _, err := Schema(); err != nil {
		return "", err
	}
	return cachedJSON, nil
}
