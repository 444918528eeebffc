package engine

import "testing"

func TestComputeConfidence_ExtremeMismatch(t *testing.T) {
	scores := CriterionScores{Fluency: 8.5, Pronunciation: 7.0, Lexical: 7.0, Grammar: 5.5, Overall: 6.0, OverallRaw: 6.0}
	mv := MetricVector{MeanWordConfidence: 0.9, VocabRichness: 0.5, LowConfidenceRatio: 0.05}
	report := ComputeConfidence(ConfidenceInput{
		TotalDurationSec: 300,
		Metrics:          mv,
		Annotation:       EmptyAnnotation(),
		Scores:           scores,
		IncludeLLMFactor: true,
	})
	found := false
	for _, f := range report.FactorBreakdown {
		if f.Name == "criterion_coherence" && f.Adjustment == -0.15 {
			found = true
		}
	}
	if !found {
		t.Error("expected criterion_coherence factor to apply -0.15 for fluency>7.5 & grammar<6.0")
	}
}

func TestComputeConfidence_Gaming(t *testing.T) {
	ann := &LLMAnnotation{
		TopicRelevance:   false,
		ListenerEffort:   ListenerEffortHigh,
		FlowControl:      FlowControlUnstable,
		RegisterMismatch: 3,
	}
	scores := CriterionScores{Fluency: 7.0, Pronunciation: 7.0, Lexical: 7.0, Grammar: 7.0, Overall: 7.0, OverallRaw: 7.0}
	report := ComputeConfidence(ConfidenceInput{
		TotalDurationSec: 300,
		Metrics:          MetricVector{LowConfidenceRatio: 0.06},
		Annotation:       ann,
		Scores:           scores,
		IncludeLLMFactor: true,
	})
	if report.Overall > 0.60 {
		t.Errorf("expected gaming scenario confidence <= 0.60, got %v", report.Overall)
	}
	if report.Category != ConfidenceLow && report.Category != ConfidenceVeryLow {
		t.Errorf("expected LOW or VERY_LOW category, got %v", report.Category)
	}
}

func TestComputeConfidence_AlwaysInRange(t *testing.T) {
	inputs := []ConfidenceInput{
		{TotalDurationSec: 30, Metrics: MetricVector{LowConfidenceRatio: 0.9}, Annotation: EmptyAnnotation(), Scores: CriterionScores{Overall: 5.0}},
		{TotalDurationSec: 600, Metrics: MetricVector{LowConfidenceRatio: 0.0}, Annotation: EmptyAnnotation(), Scores: CriterionScores{Overall: 9.0}, IncludeLLMFactor: true},
	}
	for _, in := range inputs {
		report := ComputeConfidence(in)
		if report.Overall < 0 || report.Overall > 1 {
			t.Errorf("confidence out of range: %v", report.Overall)
		}
	}
}

func TestComputeConfidence_Deterministic(t *testing.T) {
	in := ConfidenceInput{
		TotalDurationSec: 200,
		Metrics:          MetricVector{LowConfidenceRatio: 0.12, MeanWordConfidence: 0.8, VocabRichness: 0.5},
		Annotation:       &LLMAnnotation{TopicRelevance: true, FlowControl: FlowControlStable, ListenerEffort: ListenerEffortLow},
		Scores:           CriterionScores{Fluency: 7.0, Pronunciation: 7.0, Lexical: 7.0, Grammar: 7.0, Overall: 7.0, OverallRaw: 6.98},
		IncludeLLMFactor: true,
	}
	first := ComputeConfidence(in)
	for i := 0; i < 9; i++ {
		next := ComputeConfidence(in)
		if next.Overall != first.Overall || next.Category != first.Category {
			t.Fatalf("confidence calculator is not deterministic on run %d", i)
		}
	}
}
