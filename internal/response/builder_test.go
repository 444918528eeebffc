package response

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/hubenschmidt/speakscore-engine/internal/engine"
)

func sampleOutput() *engine.EngineOutput {
	return &engine.EngineOutput{
		JobID:         "job-1",
		EngineVersion: "1.0.0",
		ScoringConfig: map[string]any{"speech_context": "conversational"},
		Mode:          "full",
		Scores: engine.CriterionScores{
			Fluency: 7.0, Pronunciation: 7.0, Lexical: 7.0, Grammar: 7.0, Overall: 7.0,
		},
		Confidence: engine.ConfidenceReport{
			Overall: 0.8, Category: engine.ConfidenceHigh, Recommendation: "stable",
		},
		Descriptors:          engine.BuildDescriptors(7.0),
		CriterionDescriptors: engine.BuildDescriptors(7.0),
		Statistics: engine.Statistics{
			TotalWordsTranscribed: 100, ContentWords: 90, FillerWordsDetected: 10,
			FillerPercentage: 0.1, IsMonotone: false,
		},
		Metrics: engine.NormalizedMetrics{WPM: 120, PauseVariability: math.NaN()},
		SpeechQuality: engine.SpeechQuality{MeanWordConfidence: math.Inf(1), LowConfidenceRatio: 0.1},
	}
}

func TestBuildBase_SanitizesNaNAndInf(t *testing.T) {
	base := BuildBase(sampleOutput())
	if base.NormalizedMetrics.PauseVariability != nil {
		t.Fatal("expected NaN pause_variability to sanitize to nil")
	}
	if base.SpeechQuality.MeanWordConfidence != nil {
		t.Fatal("expected +Inf mean_word_confidence to sanitize to nil")
	}
	if base.NormalizedMetrics.WPM == nil || *base.NormalizedMetrics.WPM != 120 {
		t.Fatal("expected finite wpm to be preserved")
	}
}

func TestBuildBase_MarshalsToNullForSanitizedFields(t *testing.T) {
	base := BuildBase(sampleOutput())
	data, err := Marshal(base)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	metrics := decoded["normalized_metrics"].(map[string]any)
	if metrics["pause_variability"] != nil {
		t.Fatal("expected pause_variability to marshal as null")
	}
}

func TestBuildFeedback_IncludesBaseFields(t *testing.T) {
	fb := BuildFeedback(sampleOutput())
	if fb.JobID != "job-1" {
		t.Fatalf("expected embedded base job_id, got %s", fb.JobID)
	}
}

func TestBuildFull_IncludesFeedbackFields(t *testing.T) {
	full := BuildFull(sampleOutput())
	if full.JobID != "job-1" {
		t.Fatalf("expected embedded job_id, got %s", full.JobID)
	}
}
