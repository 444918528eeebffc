// Package prompts builds the system prompt sent to the LLM annotation
// client (§4.3). The prompt embeds the JSON schema the model must honor
// so the Anthropic backend, which has no native response_format, can
// still be constrained to a matching shape.
package prompts

import "fmt"

// AnnotationSystem returns the system prompt instructing the model to
// extract a single LLMAnnotation JSON object from a speaking-test
// transcript, constrained by schemaJSON.
func AnnotationSystem(schemaJSON string) string {
	return "You are an IELTS speaking examiner's assistant. Read the transcript of a " +
		"single spoken response and extract counts and labeled spans describing its " +
		"grammar, vocabulary, and coherence. Be conservative: only report a span or " +
		"count when the transcript clearly supports it. Every `spans[].text` value " +
		"must be an exact, verbatim substring of the transcript.\n\n" +
		"Respond with a single JSON object matching exactly this schema, and nothing else " +
		"(no markdown fences, no commentary):\n" + schemaJSON
}

// ForTranscript wraps the transcript (and an optional context hint) as the
// user turn.
func ForTranscript(transcript, contextHint string) string {
	if contextHint == "" {
		return fmt.Sprintf("Transcript:\n%s", transcript)
	}
	return fmt.Sprintf("Speaking context: %s\n\nTranscript:\n%s", contextHint, transcript)
}
