package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
	"github.com/hubenschmidt/speakscore-engine/internal/filler"
)

const minDurationSec = 5.0

// fillerOverlapToleranceSec is the time-overlap tolerance used both for
// excluding pauses that overlap a filler event (§4.2) and for merging
// STT-marked vs phoneme-detected filler sets (§4.7 step 6).
const fillerOverlapToleranceSec = 0.050

// ComputeMetrics derives the MetricVector from the raw/content word
// tables, segments, merged filler events, and total duration (§4.2).
// It returns apperr.KindAudioTooShort when totalDurationSec < 5.0 and
// apperr.KindNoSpeech when wordsRaw is empty.
func ComputeMetrics(wordsRaw, wordsContent []WordRecord, segments []SegmentRecord, fillers []FillerEvent, totalDurationSec float64) (MetricVector, error) {
	if totalDurationSec < minDurationSec {
		return MetricVector{}, apperr.New(apperr.KindAudioTooShort, "audio too short: minimum 5 seconds required")
	}
	if len(wordsRaw) == 0 {
		return MetricVector{}, apperr.New(apperr.KindNoSpeech, "no speech detected")
	}

	minutes := totalDurationSec / 60.0

	mv := MetricVector{}
	mv.WPM = 60.0 * float64(len(wordsContent)) / totalDurationSec
	mv.UniqueWordCount = uniqueWordCount(wordsContent)

	mv.FillersPerMin = weightedFillerRate(fillers, minutes)
	mv.StuttersPerMin = countRate(fillers, FillerKindStutter, minutes)

	pauses := detectPauses(wordsRaw, fillers)
	mv.LongPausesPerMin = countPausesOver(pauses, 1.0) / minutes
	mv.VeryLongPausesPerMin = countPausesOver(pauses, 2.0) / minutes
	mv.PauseFrequency = float64(len(pauses)) / minutes
	mv.PauseTimeRatio = sumPauses(pauses) / totalDurationSec
	mv.PauseVariability = stdevOrZero(pauses, 6)
	mv.pauseAfterFillerRate = 0 // preserved-but-unexposed, see spec §9

	mv.VocabRichness = typeTokenRatio(wordsContent)
	mv.TypeTokenRatio = mv.VocabRichness
	mv.RepetitionRatio = repetitionRatio(wordsContent)
	mv.SpeechRateVariability = speechRateVariability(wordsContent, totalDurationSec)
	mv.MeanUtteranceLength = meanUtteranceLength(wordsRaw)
	mv.MeanWordConfidence = meanConfidence(wordsRaw)
	mv.LowConfidenceRatio = lowConfidenceRatio(wordsRaw, 0.7)
	mv.LexicalDensity = lexicalDensity(wordsRaw, wordsContent)

	sanitize(&mv)
	return mv, nil
}

func sanitize(mv *MetricVector) {
	fields := []*float64{
		&mv.WPM, &mv.FillersPerMin, &mv.StuttersPerMin, &mv.LongPausesPerMin,
		&mv.VeryLongPausesPerMin, &mv.PauseFrequency, &mv.PauseTimeRatio,
		&mv.PauseVariability, &mv.VocabRichness, &mv.TypeTokenRatio,
		&mv.RepetitionRatio, &mv.SpeechRateVariability, &mv.MeanUtteranceLength,
		&mv.MeanWordConfidence, &mv.LowConfidenceRatio, &mv.LexicalDensity,
	}
	for _, f := range fields {
		if math.IsNaN(*f) || math.IsInf(*f, 0) {
			*f = 0
		}
	}
}

func uniqueWordCount(words []WordRecord) int {
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(w.Word)] = struct{}{}
	}
	return len(seen)
}

// fillerWeight matches duration-banded weighting: short blips count less
// toward fillers_per_min than fully-voiced fillers.
func fillerWeight(d float64) float64 {
	switch {
	case d < 0.080:
		return 0.2
	case d < 0.300:
		return 0.6
	default:
		return 1.0
	}
}

func weightedFillerRate(events []FillerEvent, minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	var total float64
	for _, e := range events {
		if e.Type != FillerKindFiller {
			continue
		}
		total += fillerWeight(e.Duration())
	}
	return total / minutes
}

func countRate(events []FillerEvent, kind FillerKind, minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	var n float64
	for _, e := range events {
		if e.Type == kind {
			n++
		}
	}
	return n / minutes
}

type pause struct {
	start, end float64
}

func (p pause) duration() float64 { return p.end - p.start }

// detectPauses finds gaps between adjacent raw words exceeding 0.3s that
// do not time-overlap any filler event within a 50ms tolerance (§4.2).
func detectPauses(wordsRaw []WordRecord, fillers []FillerEvent) []pause {
	var pauses []pause
	for i := 1; i < len(wordsRaw); i++ {
		gapStart := wordsRaw[i-1].End
		gapEnd := wordsRaw[i].Start
		gap := gapEnd - gapStart
		if gap <= 0.3 {
			continue
		}
		if overlapsAnyFiller(gapStart, gapEnd, fillers) {
			continue
		}
		pauses = append(pauses, pause{start: gapStart, end: gapEnd})
	}
	return pauses
}

func overlapsAnyFiller(start, end float64, fillers []FillerEvent) bool {
	for _, f := range fillers {
		if start < f.End+fillerOverlapToleranceSec && end > f.Start-fillerOverlapToleranceSec {
			return true
		}
	}
	return false
}

func countPausesOver(pauses []pause, thresholdSec float64) float64 {
	var n float64
	for _, p := range pauses {
		if p.duration() > thresholdSec {
			n++
		}
	}
	return n
}

func sumPauses(pauses []pause) float64 {
	var sum float64
	for _, p := range pauses {
		sum += p.duration()
	}
	return sum
}

func stdevOrZero(pauses []pause, minSamples int) float64 {
	if len(pauses) < minSamples {
		return 0
	}
	durations := make([]float64, len(pauses))
	for i, p := range pauses {
		durations[i] = p.duration()
	}
	return stdev(durations)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sumSq float64
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

func typeTokenRatio(words []WordRecord) float64 {
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(w.Word)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}

// repetitionRatio is (max frequency among non-stopword content words) /
// (non-stopword content word count), per §4.2.
func repetitionRatio(words []WordRecord) float64 {
	counts := make(map[string]int)
	var nonStopwordTotal int
	for _, w := range words {
		norm := strings.ToLower(w.Word)
		if filler.IsStopword(norm) {
			continue
		}
		counts[norm]++
		nonStopwordTotal++
	}
	if nonStopwordTotal == 0 {
		return 0
	}
	var maxFreq int
	for _, c := range counts {
		if c > maxFreq {
			maxFreq = c
		}
	}
	return float64(maxFreq) / float64(nonStopwordTotal)
}

// speechRateVariability is stdev/mean of rolling WPM over 10s windows,
// 0 if fewer than 4 windows are available.
func speechRateVariability(wordsContent []WordRecord, totalDuration float64) float64 {
	const windowSec = 10.0
	numWindows := int(math.Floor(totalDuration / windowSec))
	if numWindows < 4 {
		return 0
	}
	rates := make([]float64, numWindows)
	for i := 0; i < numWindows; i++ {
		winStart := float64(i) * windowSec
		winEnd := winStart + windowSec
		count := 0
		for _, w := range wordsContent {
			mid := (w.Start + w.End) / 2
			if mid >= winStart && mid < winEnd {
				count++
			}
		}
		rates[i] = float64(count) * (60.0 / windowSec)
	}
	m := mean(rates)
	if m == 0 {
		return 0
	}
	return stdev(rates) / m
}

// meanUtteranceLength is the mean run-length (in words) of consecutive
// words separated by gaps <= 0.5s.
func meanUtteranceLength(wordsRaw []WordRecord) float64 {
	if len(wordsRaw) == 0 {
		return 0
	}
	var runs []int
	runLen := 1
	for i := 1; i < len(wordsRaw); i++ {
		gap := wordsRaw[i].Start - wordsRaw[i-1].End
		if gap <= 0.5 {
			runLen++
			continue
		}
		runs = append(runs, runLen)
		runLen = 1
	}
	runs = append(runs, runLen)

	total := 0
	for _, r := range runs {
		total += r
	}
	return float64(total) / float64(len(runs))
}

func meanConfidence(words []WordRecord) float64 {
	if len(words) == 0 {
		return 0
	}
	confidences := make([]float64, len(words))
	for i, w := range words {
		confidences[i] = w.Confidence
	}
	return mean(confidences)
}

func lowConfidenceRatio(words []WordRecord, threshold float64) float64 {
	if len(words) == 0 {
		return 0
	}
	var n int
	for _, w := range words {
		if w.Confidence < threshold {
			n++
		}
	}
	return float64(n) / float64(len(words))
}

func lexicalDensity(wordsRaw, wordsContent []WordRecord) float64 {
	if len(wordsRaw) == 0 {
		return 0
	}
	var nonStopwordContent int
	for _, w := range wordsContent {
		if !filler.IsStopword(strings.ToLower(w.Word)) {
			nonStopwordContent++
		}
	}
	return float64(nonStopwordContent) / float64(len(wordsRaw))
}

// LowConfidenceWords returns words_raw entries with confidence below
// threshold, sorted by start time, for the pronunciation "unclear words"
// list (§4.5 — independent of LLM spans).
func LowConfidenceWords(wordsRaw []WordRecord, threshold float64) []WordRecord {
	var out []WordRecord
	for _, w := range wordsRaw {
		if w.Confidence < threshold {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
