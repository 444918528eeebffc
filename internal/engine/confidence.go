package engine

import "math"

// ConfidenceInput bundles everything the six-factor calculator needs.
// IncludeLLMFactor is false in fast mode, where the LLM-consistency
// factor is omitted entirely from the breakdown (§4.8).
type ConfidenceInput struct {
	TotalDurationSec float64
	Metrics          MetricVector
	Annotation       *LLMAnnotation
	Scores           CriterionScores
	IncludeLLMFactor bool
}

// ComputeConfidence combines the six orthogonal factors into one score in
// [0,1] (§4.6). Pure: same inputs always yield the same report.
func ComputeConfidence(in ConfidenceInput) ConfidenceReport {
	ann := in.Annotation
	if ann == nil {
		ann = EmptyAnnotation()
	}

	overall := 1.0
	var factors []ConfidenceFactor

	durMult, durImpact := durationFactor(in.TotalDurationSec)
	overall *= durMult
	factors = append(factors, ConfidenceFactor{
		Name: "duration", Observed: in.TotalDurationSec, Adjustment: durMult, Impact: durImpact,
	})

	clarityMult, clarityImpact := audioClarityFactor(in.Metrics.LowConfidenceRatio)
	overall *= clarityMult
	factors = append(factors, ConfidenceFactor{
		Name: "audio_clarity", Observed: in.Metrics.LowConfidenceRatio, Adjustment: clarityMult, Impact: clarityImpact,
	})

	if in.IncludeLLMFactor {
		spanMult, spanImpact := llmSpanConsistencyFactor(ann)
		overall *= spanMult
		factors = append(factors, ConfidenceFactor{
			Name: "llm_span_consistency", Observed: float64(len(ann.Spans)), Adjustment: spanMult, Impact: spanImpact,
		})
	}

	boundaryAdj, boundaryImpact := boundaryProximityFactor(in.Scores.OverallRaw)
	overall += boundaryAdj
	factors = append(factors, ConfidenceFactor{
		Name: "boundary_proximity", Observed: in.Scores.OverallRaw, Adjustment: boundaryAdj, Impact: boundaryImpact,
	})

	gamingAdj, gamingImpact := gamingDetectionFactor(ann)
	overall += gamingAdj
	factors = append(factors, ConfidenceFactor{
		Name: "gaming_detection", Observed: 0, Adjustment: gamingAdj, Impact: gamingImpact,
	})

	coherenceAdj, coherenceImpact := criterionCoherenceFactor(in.Scores, in.Metrics)
	overall += coherenceAdj
	factors = append(factors, ConfidenceFactor{
		Name: "criterion_coherence", Observed: 0, Adjustment: coherenceAdj, Impact: coherenceImpact,
	})

	overall = clampUnit(overall)

	return ConfidenceReport{
		Overall:         overall,
		Category:        confidenceCategory(overall),
		FactorBreakdown: factors,
		Recommendation:  confidenceRecommendation(overall),
	}
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func durationFactor(totalDurationSec float64) (float64, string) {
	switch {
	case totalDurationSec < 120:
		return 0.70, "sample shorter than 2 minutes reduces reliability substantially"
	case totalDurationSec < 180:
		return 0.85, "sample shorter than 3 minutes moderately reduces reliability"
	case totalDurationSec < 300:
		return 0.95, "sample shorter than 5 minutes slightly reduces reliability"
	default:
		return 1.0, "sample length is sufficient for a stable estimate"
	}
}

func audioClarityFactor(lowConfidenceRatio float64) (float64, string) {
	switch {
	case lowConfidenceRatio < 0.05:
		return 1.0, "transcription confidence is high throughout"
	case lowConfidenceRatio < 0.10:
		return 0.95, "a small fraction of words were transcribed with low confidence"
	case lowConfidenceRatio < 0.15:
		return 0.85, "a notable fraction of words were transcribed with low confidence"
	default:
		return 0.70, "a large fraction of words were transcribed with low confidence"
	}
}

// llmSpanConsistencyFactor rewards annotation spans that cluster into a
// small number of label categories, which signals the LLM found a
// coherent pattern rather than noise.
func llmSpanConsistencyFactor(ann *LLMAnnotation) (float64, string) {
	if len(ann.Spans) == 0 {
		return 1.0, "no span data to evaluate; factor defaults to neutral"
	}
	counts := make(map[SpanLabel]int)
	for _, s := range ann.Spans {
		counts[s.Label]++
	}
	type kv struct {
		label SpanLabel
		n     int
	}
	var sorted []kv
	for k, v := range counts {
		sorted = append(sorted, kv{k, v})
	}
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].n > sorted[i].n {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	top := sorted[0].n
	if len(sorted) > 1 {
		top += sorted[1].n
	}
	frac := float64(top) / float64(len(ann.Spans))

	switch {
	case frac >= 0.80:
		return 1.0, "annotated spans concentrate in a small number of categories"
	case frac >= 0.60:
		return 0.90, "annotated spans show moderate category concentration"
	default:
		return 0.75, "annotated spans are scattered across many categories"
	}
}

// boundaryProximityFactor penalizes a result whose pre-rounding overall
// value sits within 0.05 of a half-band value (the nearest multiple of
// 0.5).
func boundaryProximityFactor(overallRaw float64) (float64, string) {
	nearestMultiple := math.Round(overallRaw*2) / 2
	if math.Abs(overallRaw-nearestMultiple) <= 0.05 {
		return -0.05, "overall band sits within 0.05 of a half-band value"
	}
	return 0, "overall band is not near a half-band value"
}

const gamingPenaltyCap = -0.40

func gamingDetectionFactor(ann *LLMAnnotation) (float64, string) {
	var total float64
	var reasons []string
	if !ann.TopicRelevance {
		total -= 0.20
		reasons = append(reasons, "response judged off-topic")
	}
	if ann.RegisterMismatch >= 2 {
		total -= 0.15
		reasons = append(reasons, "register mismatch detected")
	}
	if ann.FlowControl == FlowControlUnstable {
		total -= 0.10
		reasons = append(reasons, "unstable flow control")
	}
	if ann.ListenerEffort == ListenerEffortHigh {
		total -= 0.10
		reasons = append(reasons, "high listener effort required")
	}
	if total < gamingPenaltyCap {
		total = gamingPenaltyCap
	}
	if len(reasons) == 0 {
		return 0, "no gaming indicators detected"
	}
	impact := reasons[0]
	for _, r := range reasons[1:] {
		impact += "; " + r
	}
	return total, impact
}

func criterionCoherenceFactor(scores CriterionScores, mv MetricVector) (float64, string) {
	extreme := (scores.Fluency > 7.5 && scores.Grammar < 6.0) ||
		(scores.Pronunciation > 7.5 && mv.MeanWordConfidence < 0.85) ||
		(scores.Lexical > 8.0 && mv.VocabRichness < 0.4)
	if extreme {
		return -0.15, "an extreme mismatch between criterion bands and underlying metrics was detected"
	}
	return 0, "criterion bands are consistent with underlying metrics"
}

func confidenceCategory(overall float64) ConfidenceCategory {
	switch {
	case overall >= 0.95:
		return ConfidenceVeryHigh
	case overall >= 0.85:
		return ConfidenceHigh
	case overall >= 0.75:
		return ConfidenceModerate
	case overall >= 0.60:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

func confidenceRecommendation(overall float64) string {
	switch confidenceCategory(overall) {
	case ConfidenceVeryHigh:
		return "Result is highly reliable; no caveats."
	case ConfidenceHigh:
		return "Result is reliable; minor caveats possible."
	case ConfidenceModerate:
		return "Result is usable but should be interpreted with some caution."
	case ConfidenceLow:
		return "Result reliability is limited; consider a longer or cleaner sample."
	default:
		return "Result reliability is low; treat the scores as indicative only."
	}
}
