// Package alignclient is the forced-aligner collaborator contract (§6.3):
// the STT word list in, tightened (start, end) pairs out. Same shape as
// sttclient, split into its own package because the full pipeline treats
// alignment as a separate, independently-degradable stage (§4.7: an
// alignment failure falls back to the fast pipeline for the rest of the
// job rather than failing it outright).
package alignclient

import (
	"context"

	"github.com/hubenschmidt/speakscore-engine/internal/engine"
)

// Options carries alignment hints.
type Options struct {
	Language string
}

// Result is the tightened per-word timing the aligner reports, in the
// same word order as the request.
type Result struct {
	Words     []engine.WordRecord
	LatencyMs float64
}

// Aligner force-aligns samples against an STT-produced word list, tightening
// each word's start/end times.
type Aligner interface {
	Align(ctx context.Context, samples []float32, sampleRate int, words []engine.WordRecord, opts Options) (*Result, error)
}
