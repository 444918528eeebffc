package pipeline

import (
	"testing"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
	"github.com/hubenschmidt/speakscore-engine/internal/sttclient"
)

func TestRunFast_HappyPath(t *testing.T) {
	p := New(Config{
		STT: &fakeTranscriber{result: &sttclient.Result{
			Words:    words6sec(),
			Segments: segments6sec(),
		}},
		EngineVersion: "test",
	})

	out, err := p.RunFast(t.Context(), baseInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Mode != "fast" {
		t.Errorf("expected mode fast, got %q", out.Mode)
	}
	if out.LLMAnalysis != nil {
		t.Error("expected fast pipeline to never populate LLMAnalysis")
	}
	if out.TimestampedFeedback != nil {
		t.Error("expected fast pipeline to never populate TimestampedFeedback")
	}
	if hasFactor(out.Confidence.FactorBreakdown, "llm_span_consistency") {
		t.Error("expected fast pipeline to omit the llm_span_consistency factor entirely")
	}
	foundFiller := false
	for _, f := range out.FillerEvents {
		if f.Text == "um" {
			foundFiller = true
		}
	}
	if !foundFiller {
		t.Error("expected the STT-marked 'um' to surface as a clear filler event")
	}
}

func TestRunFast_STTFailureTerminatesJob(t *testing.T) {
	p := New(Config{
		STT:           &fakeTranscriber{err: apperr.New(apperr.KindUpstream, "stt down")},
		EngineVersion: "test",
	})

	_, err := p.RunFast(t.Context(), baseInput())
	if err == nil {
		t.Fatal("expected STT failure to terminate the job")
	}
}

func TestRunFast_NoSpeechDetected(t *testing.T) {
	p := New(Config{
		STT: &fakeTranscriber{result: &sttclient.Result{
			Words:    words6sec(),
			Segments: segments6sec(),
		}},
		EngineVersion: "test",
	})

	in := baseInput()
	in.AudioData = buildSilentWAV(6)

	_, err := p.RunFast(t.Context(), in)
	if err == nil {
		t.Fatal("expected silent audio to be rejected before transcription")
	}
	if apperr.KindOf(err) != apperr.KindNoSpeech {
		t.Errorf("expected KindNoSpeech, got %v", apperr.KindOf(err))
	}
}
