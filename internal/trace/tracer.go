package trace

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// maxTraceFieldLen caps the length of input/output strings stored in
	// spans, so a full transcript doesn't bloat the trace table.
	maxTraceFieldLen = 500

	// traceChannelBuffer is how many trace messages can queue between a
	// worker goroutine and the background drain goroutine.
	traceChannelBuffer = 64
)

type traceMsg struct {
	kind string // "run_create", "run_update", "span"
	// run fields
	runID      string
	jobID      string
	pipeline   string
	durationMs float64
	status     string
	errMsg     string
	// span fields
	span Span
}

// Tracer writes trace data asynchronously via a buffered channel so a
// worker goroutine's stage timing never blocks on a database round trip.
// All methods are nil-safe (no-op on nil receiver) per §6.4's "tracing is
// optional observability" rule.
type Tracer struct {
	store *Store
	ch    chan traceMsg
	done  chan struct{}
}

// NewTracer starts a tracer backed by store. Callers must call Close when
// done to flush pending writes and stop the drain goroutine.
func NewTracer(store *Store) *Tracer {
	t := &Tracer{
		store: store,
		ch:    make(chan traceMsg, traceChannelBuffer),
		done:  make(chan struct{}),
	}
	go t.drain()
	return t
}

func (t *Tracer) drain() {
	defer close(t.done)
	for msg := range t.ch {
		t.handle(msg)
	}
}

func (t *Tracer) handle(m traceMsg) {
	if err := t.dispatch(m); err != nil {
		slog.Warn("trace write failed", "kind", m.kind, "error", err)
	}
}

func (t *Tracer) dispatch(m traceMsg) error {
	switch m.kind {
	case "run_create":
		return t.store.CreateRun(m.runID, m.jobID, m.pipeline)
	case "run_update":
		return t.store.UpdateRun(m.runID, m.durationMs, m.status, m.errMsg)
	case "span":
		return t.store.CreateSpan(m.span)
	}
	return nil
}

// StartRun begins a new run for jobID/pipeline and returns its ID.
func (t *Tracer) StartRun(jobID, pipeline string) string {
	if t == nil {
		return ""
	}
	id := uuid.NewString()
	t.ch <- traceMsg{kind: "run_create", runID: id, jobID: jobID, pipeline: pipeline}
	return id
}

// EndRun finalizes a run.
func (t *Tracer) EndRun(runID string, durationMs float64, status, errMsg string) {
	if t == nil {
		return
	}
	t.ch <- traceMsg{kind: "run_update", runID: runID, durationMs: durationMs, status: status, errMsg: errMsg}
}

// RecordSpan records a completed pipeline stage.
func (t *Tracer) RecordSpan(runID, name string, startedAt time.Time, durationMs float64, input, output, status, errMsg string) {
	if t == nil {
		return
	}
	t.ch <- traceMsg{
		kind: "span",
		span: Span{
			ID:         uuid.NewString(),
			RunID:      runID,
			Name:       name,
			StartedAt:  startedAt,
			DurationMs: durationMs,
			Input:      truncate(input, maxTraceFieldLen),
			Output:     truncate(output, maxTraceFieldLen),
			Status:     status,
			Error:      errMsg,
		},
	}
}

// Close drains pending writes and stops the background goroutine.
func (t *Tracer) Close() {
	if t == nil {
		return
	}
	close(t.ch)
	<-t.done
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
