// Package trace records per-job pipeline stage timings to Postgres. It is
// optional observability (§6.4): a nil *Tracer makes every method a no-op,
// so the full/fast analyzer pipelines can run unconditionally through it.
package trace

import "time"

// Run is one analyzer pipeline execution (one scoring job run through
// either the full or fast pipeline).
type Run struct {
	ID         string    `json:"id"`
	JobID      string    `json:"job_id"`
	Pipeline   string    `json:"pipeline"` // "full" or "fast"
	StartedAt  time.Time `json:"started_at"`
	DurationMs float64   `json:"duration_ms,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	SpanCount  int       `json:"span_count,omitempty"`
}

// Span is a single pipeline stage execution within a Run (load_audio,
// stt, align, phoneme_detect, metrics, llm_annotate, ...).
type Span struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Name       string    `json:"name"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs float64   `json:"duration_ms"`
	Input      string    `json:"input,omitempty"`
	Output     string    `json:"output,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}
