package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"

	"github.com/hubenschmidt/speakscore-engine/internal/alignclient"
	"github.com/hubenschmidt/speakscore-engine/internal/engine"
	"github.com/hubenschmidt/speakscore-engine/internal/llmannotate"
	"github.com/hubenschmidt/speakscore-engine/internal/phonemeclient"
	"github.com/hubenschmidt/speakscore-engine/internal/sttclient"
)

// buildTestWAV writes a minimal mono 16-bit PCM WAV of durationSec at 16kHz
// containing an audible sine tone, so it clears audioload.Load's duration
// and speech-energy gates without depending on a real STT/codec fixture.
func buildTestWAV(durationSec float64) []byte {
	const sampleRate = 16000
	n := int(durationSec * sampleRate)
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*220*float64(i)/sampleRate))
	}

	var data bytes.Buffer
	binary.Write(&data, binary.LittleEndian, samples)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))  // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())
	return buf.Bytes()
}

// buildSilentWAV writes a mono 16-bit PCM WAV of durationSec at 16kHz that
// is entirely silent, exercising audioload.Load's no-speech rejection path.
func buildSilentWAV(durationSec float64) []byte {
	const sampleRate = 16000
	n := int(durationSec * sampleRate)
	samples := make([]int16, n)

	var data bytes.Buffer
	binary.Write(&data, binary.LittleEndian, samples)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())
	return buf.Bytes()
}

// words6sec is a 6-second, 12-word transcript with one filler, matching
// the duration buildTestWAV(6) produces.
func words6sec() []engine.WordRecord {
	words := []engine.WordRecord{
		{Word: "I", Start: 0.0, End: 0.2, Confidence: 0.95},
		{Word: "think", Start: 0.2, End: 0.5, Confidence: 0.95},
		{Word: "um", Start: 0.5, End: 0.8, Confidence: 0.9},
		{Word: "that", Start: 0.8, End: 1.0, Confidence: 0.95},
		{Word: "travel", Start: 1.0, End: 1.5, Confidence: 0.9},
		{Word: "broadens", Start: 1.5, End: 2.0, Confidence: 0.9},
		{Word: "the", Start: 2.0, End: 2.1, Confidence: 0.95},
		{Word: "mind", Start: 2.1, End: 2.5, Confidence: 0.92},
		{Word: "and", Start: 3.0, End: 3.1, Confidence: 0.95},
		{Word: "helps", Start: 3.1, End: 3.4, Confidence: 0.9},
		{Word: "us", Start: 3.4, End: 3.5, Confidence: 0.95},
		{Word: "grow", Start: 3.5, End: 3.9, Confidence: 0.9},
	}
	return words
}

func segments6sec() []engine.SegmentRecord {
	return []engine.SegmentRecord{
		{Text: "I think um that travel broadens the mind", Start: 0.0, End: 2.5, AvgWordConfidence: 0.92},
		{Text: "and helps us grow", Start: 3.0, End: 3.9, AvgWordConfidence: 0.92},
	}
}

type fakeTranscriber struct {
	result *sttclient.Result
	err    error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int, opts sttclient.Options) (*sttclient.Result, error) {
	return f.result, f.err
}

type fakeAligner struct {
	result *alignclient.Result
	err    error
}

func (f *fakeAligner) Align(ctx context.Context, samples []float32, sampleRate int, words []engine.WordRecord, opts alignclient.Options) (*alignclient.Result, error) {
	return f.result, f.err
}

type fakeDetector struct {
	result *phonemeclient.Result
	err    error
}

func (f *fakeDetector) Detect(ctx context.Context, samples []float32, sampleRate int) (*phonemeclient.Result, error) {
	return f.result, f.err
}

type fakeLLMClient struct {
	ann *engine.LLMAnnotation
	err error
}

func (f *fakeLLMClient) Annotate(ctx context.Context, transcript string, speechCtx engine.SpeechContext) (*engine.LLMAnnotation, error) {
	return f.ann, f.err
}

func wellFormedAnnotation() *engine.LLMAnnotation {
	return &engine.LLMAnnotation{
		ClarityScore:   4,
		FlowControl:    engine.FlowControlStable,
		ListenerEffort: engine.ListenerEffortLow,
		Spans: []engine.Span{
			{Text: "travel broadens the mind", Label: engine.LabelAdvancedVocabulary},
		},
	}
}
