package pipeline

import (
	"testing"

	"github.com/hubenschmidt/speakscore-engine/internal/alignclient"
	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
	"github.com/hubenschmidt/speakscore-engine/internal/engine"
	"github.com/hubenschmidt/speakscore-engine/internal/llmannotate"
	"github.com/hubenschmidt/speakscore-engine/internal/phonemeclient"
	"github.com/hubenschmidt/speakscore-engine/internal/sttclient"
)

func baseInput() Input {
	return Input{
		JobID:         "job-1",
		AudioData:     buildTestWAV(6),
		DeclaredExt:   ".wav",
		SpeechContext: engine.ContextConversational,
		ScoringConfig: map[string]any{"speech_context": "conversational", "mode": "full"},
	}
}

func TestRunFull_HappyPath(t *testing.T) {
	p := New(Config{
		STT: &fakeTranscriber{result: &sttclient.Result{
			Words:    words6sec(),
			Segments: segments6sec(),
		}},
		Aligner: &fakeAligner{result: &alignclient.Result{Words: words6sec()}},
		Phoneme: &fakeDetector{result: &phonemeclient.Result{IsMonotone: false}},
		LLM: llmannotate.NewRouter(map[string]llmannotate.Client{
			"openai": &fakeLLMClient{ann: wellFormedAnnotation()},
		}, "openai"),
		LLMEngine:     "openai",
		EngineVersion: "test",
	})

	out, err := p.RunFull(t.Context(), baseInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Mode != "full" {
		t.Errorf("expected mode full, got %q", out.Mode)
	}
	if out.LLMAnalysis == nil {
		t.Error("expected LLMAnalysis to be populated on LLM success")
	}
	if len(out.FillerEvents) == 0 {
		t.Error("expected at least one filler event from the 'um'")
	}
	if len(out.TimestampedFeedback) == 0 {
		t.Error("expected span mapping to produce timestamped feedback")
	}
	if !hasFactor(out.Confidence.FactorBreakdown, "llm_span_consistency") {
		t.Error("expected llm_span_consistency factor to be present when LLM succeeds")
	}
}

func hasFactor(factors []engine.ConfidenceFactor, name string) bool {
	for _, f := range factors {
		if f.Name == name {
			return true
		}
	}
	return false
}

func TestRunFull_DegradesOnAlignerFailure(t *testing.T) {
	p := New(Config{
		STT: &fakeTranscriber{result: &sttclient.Result{
			Words:    words6sec(),
			Segments: segments6sec(),
		}},
		Aligner:       &fakeAligner{err: apperr.New(apperr.KindUpstream, "aligner unreachable")},
		Phoneme:       &fakeDetector{result: &phonemeclient.Result{}},
		EngineVersion: "test",
	})

	out, err := p.RunFull(t.Context(), baseInput())
	if err != nil {
		t.Fatalf("expected job to continue despite aligner failure, got error: %v", err)
	}
	if len(out.WordTimestamps) != len(words6sec()) {
		t.Errorf("expected fallback to STT word timings, got %d words", len(out.WordTimestamps))
	}
}

func TestRunFull_MonotoneFlagSurfacesAsFeedbackWeakness(t *testing.T) {
	p := New(Config{
		STT: &fakeTranscriber{result: &sttclient.Result{
			Words:    words6sec(),
			Segments: segments6sec(),
		}},
		Aligner:       &fakeAligner{result: &alignclient.Result{Words: words6sec()}},
		Phoneme:       &fakeDetector{result: &phonemeclient.Result{IsMonotone: true}},
		EngineVersion: "test",
	})

	out, err := p.RunFull(t.Context(), baseInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.SpeechQuality.IsMonotone {
		t.Fatal("expected SpeechQuality.IsMonotone to be true")
	}
	if len(out.Feedback.Pronunciation.Weaknesses) == 0 {
		t.Error("expected the monotone flag to surface as a pronunciation weakness")
	}
}

func TestRunFull_DegradesOnPhonemeFailure(t *testing.T) {
	p := New(Config{
		STT: &fakeTranscriber{result: &sttclient.Result{
			Words:    words6sec(),
			Segments: segments6sec(),
		}},
		Aligner:       &fakeAligner{result: &alignclient.Result{Words: words6sec()}},
		Phoneme:       &fakeDetector{err: apperr.New(apperr.KindUpstream, "phoneme detector unreachable")},
		EngineVersion: "test",
	})

	out, err := p.RunFull(t.Context(), baseInput())
	if err != nil {
		t.Fatalf("expected job to continue despite phoneme detector failure, got error: %v", err)
	}
	// Only the clear ("um") filler should survive; no subtle events possible.
	for _, f := range out.FillerEvents {
		if f.Style == engine.FillerStyleSubtle {
			t.Error("expected no subtle filler events when phoneme detection failed")
		}
	}
}

func TestRunFull_LLMFailureDegradesToEmptyAnnotation(t *testing.T) {
	p := New(Config{
		STT: &fakeTranscriber{result: &sttclient.Result{
			Words:    words6sec(),
			Segments: segments6sec(),
		}},
		Aligner: &fakeAligner{result: &alignclient.Result{Words: words6sec()}},
		Phoneme: &fakeDetector{result: &phonemeclient.Result{}},
		LLM: llmannotate.NewRouter(map[string]llmannotate.Client{
			"openai": &fakeLLMClient{err: apperr.New(apperr.KindUpstream, "model unavailable")},
		}, "openai"),
		LLMEngine:     "openai",
		EngineVersion: "test",
	})

	out, err := p.RunFull(t.Context(), baseInput())
	if err != nil {
		t.Fatalf("expected job to continue despite LLM failure, got error: %v", err)
	}
	if out.LLMAnalysis != nil {
		t.Error("expected LLMAnalysis to stay nil when LLM annotation fails")
	}
	if hasFactor(out.Confidence.FactorBreakdown, "llm_span_consistency") {
		t.Error("expected llm_span_consistency factor to be excluded when LLM fails")
	}
	if len(out.TimestampedFeedback) != 0 {
		t.Error("expected no timestamped feedback when LLM annotation fails")
	}
}

func TestRunFull_STTFailureTerminatesJob(t *testing.T) {
	p := New(Config{
		STT:           &fakeTranscriber{err: apperr.New(apperr.KindUpstream, "stt down")},
		EngineVersion: "test",
	})

	_, err := p.RunFull(t.Context(), baseInput())
	if err == nil {
		t.Fatal("expected STT failure to terminate the job")
	}
	if apperr.KindOf(err) != apperr.KindUpstream {
		t.Errorf("expected KindUpstream, got %v", apperr.KindOf(err))
	}
}

func TestRunFull_AudioTooShortRejected(t *testing.T) {
	p := New(Config{
		STT: &fakeTranscriber{result: &sttclient.Result{
			Words:    words6sec(),
			Segments: segments6sec(),
		}},
		EngineVersion: "test",
	})

	in := baseInput()
	in.AudioData = buildTestWAV(2)

	_, err := p.RunFull(t.Context(), in)
	if err == nil {
		t.Fatal("expected short audio to be rejected before transcription")
	}
	if apperr.KindOf(err) != apperr.KindAudioTooShort {
		t.Errorf("expected KindAudioTooShort, got %v", apperr.KindOf(err))
	}
}
