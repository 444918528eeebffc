// Package sttclient is the STT collaborator contract (§6.3): audio in,
// word-timed transcript out. Consumed as an interface so the full/fast
// pipelines never depend on which Whisper-family backend answers it.
package sttclient

import (
	"context"

	"github.com/hubenschmidt/speakscore-engine/internal/engine"
)

// Options carries the caller's transcription hints (§6.3: "caller sets
// word_timestamps=true, language=en, verbatim-filler prompt").
type Options struct {
	Language string
	Prompt   string
}

// Result is the STT collaborator's full output: per-word timing and
// confidence, plus the segment grouping STT reported them in.
type Result struct {
	Words     []engine.WordRecord
	Segments  []engine.SegmentRecord
	LatencyMs float64
}

// Transcriber produces a word-timed transcript from 16kHz mono float32
// samples.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int, opts Options) (*Result, error)
}
