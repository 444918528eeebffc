// Package phonemeclient is the phoneme/filler/prosody detector collaborator
// contract (§6.3): audio in, ordered 20ms phoneme frames plus a monotone-
// prosody flag out. Adapted from internal/pipeline/classify.go's
// ClassifyClient (float32-samples-over-HTTP, JSON response), generalized
// from a single emotion label to the ordered-frame-sequence shape the
// stutter-grouping and Pronunciation rules need.
package phonemeclient

import "context"

// Frame is one 20ms phoneme observation.
type Frame struct {
	Phoneme    string  `json:"phoneme"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Result is the detector's full output for one audio buffer: the ordered
// frame sequence (used to find phoneme-level disfluency events outside
// word spans, §4.1/§4.7) and a monotone-prosody flag (consumed by the
// Pronunciation rule, §4.4).
type Result struct {
	Frames     []Frame
	IsMonotone bool
	LatencyMs  float64
}

// Detector produces phoneme frames and a prosody assessment from 16kHz
// mono float32 samples.
type Detector interface {
	Detect(ctx context.Context, samples []float32, sampleRate int) (*Result, error)
}
