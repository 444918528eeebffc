package engine

import "math"

// ScoreInput bundles everything the band scorer needs beyond the
// MetricVector: the (possibly empty) LLM annotation, the elicitation
// context, the monotone-prosody flag computed upstream by the phoneme
// detector, and the content-word count used for the grammar error rate.
type ScoreInput struct {
	Metrics          MetricVector
	Annotation       *LLMAnnotation
	Context          SpeechContext
	IsMonotone       bool
	ContentWordCount int
}

// roundHalf rounds to the nearest 0.5 band.
func roundHalf(v float64) Band {
	return Band(math.Round(v*2) / 2)
}

// clampBand clamps to the legal [5.0, 9.0] criterion range.
func clampBand(b Band) Band {
	if b < 5.0 {
		return 5.0
	}
	if b > 9.0 {
		return 9.0
	}
	return b
}

// Score runs all four criterion rules plus overall aggregation (§4.4).
func Score(in ScoreInput) CriterionScores {
	ann := in.Annotation
	if ann == nil {
		ann = EmptyAnnotation()
	}
	f := scoreFluency(in.Metrics, ann, in.Context)
	p := scorePronunciation(in.Metrics, in.IsMonotone)
	l := scoreLexical(in.Metrics, ann)
	g := scoreGrammar(in.Metrics, ann, in.ContentWordCount)

	overall, raw := aggregateOverall(f, p, l, g)
	return CriterionScores{
		Fluency:       f,
		Pronunciation: p,
		Lexical:       l,
		Grammar:       g,
		Overall:       overall,
		OverallRaw:    raw,
	}
}

func scoreFluency(mv MetricVector, ann *LLMAnnotation, ctx SpeechContext) Band {
	var base float64
	switch {
	case mv.WPM >= 110 && mv.WPM <= 170 && mv.LongPausesPerMin <= 1.0:
		base = 8.5
	case mv.WPM >= 90 && mv.WPM <= 190 && mv.LongPausesPerMin <= 2.0:
		base = 7.5
	case mv.WPM >= 70 && mv.WPM <= 210 && mv.LongPausesPerMin <= 3.0:
		base = 6.5
	default:
		base = 5.5
	}

	switch {
	case ann.CoherenceBreakCount >= 2:
		base -= 1.0
	case ann.CoherenceBreakCount == 1:
		base -= 0.5
	}

	if ann.FlowControl == FlowControlUnstable {
		base -= 0.5
	}

	if mv.RepetitionRatio > 0.06 {
		base -= 0.5
	}

	pauseThreshold := 4.0 / ctx.PauseTolerance()
	if mv.LongPausesPerMin > pauseThreshold {
		if mv.LongPausesPerMin > pauseThreshold*1.5 {
			base -= 1.0
		} else {
			base -= 0.5
		}
	}

	var cap float64 = 9.0
	if mv.FillersPerMin > 3.5 {
		cap = 6.0
	} else if mv.FillersPerMin > 2.0 {
		cap = 7.0
	}
	if base > cap {
		base = cap
	}

	return clampBand(roundHalf(base))
}

func scorePronunciation(mv MetricVector, isMonotone bool) Band {
	var base float64
	switch {
	case mv.MeanWordConfidence >= 0.93 && mv.LowConfidenceRatio <= 0.05:
		base = 8.5
	case mv.MeanWordConfidence >= 0.88 && mv.LowConfidenceRatio <= 0.10:
		base = 7.5
	case mv.MeanWordConfidence >= 0.80 && mv.LowConfidenceRatio <= 0.15:
		base = 6.75
	case mv.MeanWordConfidence >= 0.72:
		base = 6.0
	default:
		base = 5.0
	}

	if isMonotone {
		base -= 1.0
	}
	if mv.LowConfidenceRatio > 0.15 {
		base -= 1.5
	}

	return clampBand(roundHalf(base))
}

func scoreLexical(mv MetricVector, ann *LLMAnnotation) Band {
	var base float64
	switch {
	case mv.VocabRichness >= 0.60:
		base = 8.0
	case mv.VocabRichness >= 0.50:
		base = 7.0
	case mv.VocabRichness >= 0.40:
		base = 6.0
	case mv.VocabRichness >= 0.30:
		base = 5.5
	default:
		base = 5.0
	}

	// The ceiling raise is earned in full at the stated count threshold, not
	// interpolated — a handful of advanced words shouldn't nudge the band.
	if ann.AdvancedVocabularyCount >= 8 {
		base += 1.0
	}
	if ann.IdiomaticCount >= 3 {
		base += 1.0
	}

	var cap float64 = 9.0
	switch {
	case ann.WordChoiceErrorCount >= 3:
		cap = 6.5
	case ann.WordChoiceErrorCount >= 1:
		cap = 7.5
	}
	if base > cap {
		base = cap
	}

	// Hard cap at 6.5 if advanced_vocabulary_count == 0, regardless of
	// other signals (§4.4), applied last so nothing above can override it.
	if ann.AdvancedVocabularyCount == 0 && base > 6.5 {
		base = 6.5
	}

	return clampBand(roundHalf(base))
}

func scoreGrammar(mv MetricVector, ann *LLMAnnotation, contentWordCount int) Band {
	var base float64
	switch {
	case mv.MeanUtteranceLength >= 15 && ann.ComplexStructureAccuracy >= 0.85:
		base = 8.5
	case mv.MeanUtteranceLength >= 11 && ann.ComplexStructureAccuracy >= 0.75:
		base = 7.5
	case mv.MeanUtteranceLength >= 8 && ann.ComplexStructureAccuracy >= 0.60:
		base = 6.5
	case mv.MeanUtteranceLength >= 5 && ann.ComplexStructureAccuracy >= 0.45:
		base = 5.5
	default:
		base = 5.0
	}

	errorRate := 0.0
	if contentWordCount > 0 {
		errorRate = float64(ann.GrammarErrorCount) / float64(contentWordCount) * 100.0
	}

	if errorRate > 4.5 {
		base -= 1.0
	}
	if ann.GrammarErrorCount >= 3 {
		base -= 0.5
	}
	if ann.CascadingGrammarFailure {
		base -= 1.0
	}

	if ann.ComplexStructureAccuracy < 0.72 && base > 6.0 {
		base = 6.0
	}

	return clampBand(roundHalf(base))
}

// aggregateOverall implements the weakness-gap rule, lexical-weakness cap,
// and final rounding of §4.4. Returns both the rounded Band and the raw
// pre-rounding value (consumed by the confidence calculator's
// boundary-proximity factor).
func aggregateOverall(f, p, l, g Band) (Band, float64) {
	values := []Band{f, p, l, g}
	var sum, min, max Band
	min, max = values[0], values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := float64(sum) / 4.0

	spread := float64(max - min)
	var raw float64
	switch {
	case spread >= 2.0:
		raw = float64(min) + 0.5
	case spread >= 1.5:
		raw = float64(min) + 0.75
	case spread >= 1.0:
		raw = float64(min) + 1.0
	default:
		raw = mean
	}

	overall := roundHalf(raw)

	if l <= 6.5 && max >= 8.0 && overall > 7.0 {
		overall = 7.0
		raw = 7.0
	}

	overall = clampBand(overall)
	return overall, raw
}
