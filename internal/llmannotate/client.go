// Package llmannotate extracts a typed LLMAnnotation from a transcript via
// a constrained, single-shot LLM call (§4.3). Two backends are provided —
// OpenAI (structured response_format) and Anthropic (schema-in-prompt) —
// dispatched by engine name through the generic llmrouter.Router.
package llmannotate

import (
	"context"
	"strings"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
	"github.com/hubenschmidt/speakscore-engine/internal/engine"
	"github.com/hubenschmidt/speakscore-engine/internal/llmrouter"
)

// Client extracts an LLMAnnotation from a transcript.
type Client interface {
	Annotate(ctx context.Context, transcript string, speechCtx engine.SpeechContext) (*engine.LLMAnnotation, error)
}

// Router dispatches annotation requests to the registered backend.
type Router struct {
	*llmrouter.Router[Client]
}

// NewRouter wraps a generic llmrouter.Router for the Client interface.
func NewRouter(backends map[string]Client, fallback string) *Router {
	return &Router{Router: llmrouter.New(backends, fallback)}
}

// Annotate routes to engine's backend (or the fallback) and extracts the
// annotation.
func (r *Router) Annotate(ctx context.Context, engineName, transcript string, speechCtx engine.SpeechContext) (*engine.LLMAnnotation, error) {
	backend, err := r.Route(engineName)
	if err != nil {
		return nil, err
	}
	return backend.Annotate(ctx, transcript, speechCtx)
}

// validate enforces the closed span-label vocabulary and the clarity_score
// range; anything else is a schema/shape problem an LLM is not trusted to
// have gotten right on its own (§4.3, §9 "LLM output as a tagged variant").
func validate(a *engine.LLMAnnotation) error {
	if a == nil {
		return apperr.New(apperr.KindValidation, "nil annotation")
	}
	if a.ClarityScore < 1 || a.ClarityScore > 5 {
		return apperr.New(apperr.KindValidation, "clarity_score out of range [1,5]")
	}
	for _, s := range a.Spans {
		if !engine.ValidSpanLabels[s.Label] {
			return apperr.New(apperr.KindValidation, "unknown span label: "+string(s.Label))
		}
		if strings.TrimSpace(s.Text) == "" {
			return apperr.New(apperr.KindValidation, "span text is empty")
		}
	}
	switch a.FlowControl {
	case engine.FlowControlStable, engine.FlowControlMixed, engine.FlowControlUnstable, "":
	default:
		return apperr.New(apperr.KindValidation, "unknown flow_control value: "+string(a.FlowControl))
	}
	switch a.ListenerEffort {
	case engine.ListenerEffortLow, engine.ListenerEffortMedium, engine.ListenerEffortHigh, "":
	default:
		return apperr.New(apperr.KindValidation, "unknown listener_effort value: "+string(a.ListenerEffort))
	}
	return nil
}

// requireTranscript rejects the empty-transcript case before spending an
// API call on it (§4.3 "on empty transcript -> fails with LLMValidationError").
func requireTranscript(transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return apperr.New(apperr.KindValidation, "empty transcript")
	}
	return nil
}

// stripCodeFence removes a leading/trailing ``` fence some models add
// despite being told not to, before json.Unmarshal is attempted.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
