// Package pipeline orchestrates the full and fast analyzer chains (§4.7,
// §4.8): audio in, engine.EngineOutput out. Model collaborators (STT,
// aligner, phoneme detector, LLM annotator) are injected as interfaces so
// the chain itself stays a deterministic, testable sequence of pure
// transforms between suspension points, following the teacher's
// pipeline.go Config/Pipeline split between injected model clients and
// the orchestration method that chains them.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hubenschmidt/speakscore-engine/internal/alignclient"
	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
	"github.com/hubenschmidt/speakscore-engine/internal/audioload"
	"github.com/hubenschmidt/speakscore-engine/internal/engine"
	"github.com/hubenschmidt/speakscore-engine/internal/filler"
	"github.com/hubenschmidt/speakscore-engine/internal/llmannotate"
	"github.com/hubenschmidt/speakscore-engine/internal/metrics"
	"github.com/hubenschmidt/speakscore-engine/internal/phonemeclient"
	"github.com/hubenschmidt/speakscore-engine/internal/spanmap"
	"github.com/hubenschmidt/speakscore-engine/internal/sttclient"
	"github.com/hubenschmidt/speakscore-engine/internal/trace"
)

// stutterGapSec is the maximum gap between contiguous same-phoneme frames
// for them to be grouped into a single stutter event (§3 FillerEvent,
// §4.7 step 7).
const stutterGapSec = 0.150

// Config holds everything one job run needs: the model collaborators and
// the tracer. All fields besides STT are optional — Aligner/Phoneme/LLM
// being nil degrades the full pipeline toward fast behavior for that
// stage (§5 "model-error degradation").
type Config struct {
	STT           sttclient.Transcriber
	Aligner       alignclient.Aligner
	Phoneme       phonemeclient.Detector
	LLM           *llmannotate.Router
	LLMEngine     string
	Tracer        *trace.Tracer
	EngineVersion string
}

// Pipeline runs one job's worth of audio through the analyzer chain.
type Pipeline struct {
	cfg Config
}

// New creates a Pipeline bound to the given model collaborators.
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Input bundles the per-job parameters common to both pipelines.
type Input struct {
	JobID         string
	AudioData     []byte
	DeclaredExt   string
	SpeechContext engine.SpeechContext
	ScoringConfig map[string]any
}

// loadAndTranscribe runs steps 1-3, shared by both pipelines: load audio,
// transcribe, and mark fillers on the raw word table.
func (p *Pipeline) loadAndTranscribe(ctx context.Context, runID string, in Input) (samples []float32, sampleRate int, words []engine.WordRecord, segments []engine.SegmentRecord, err error) {
	loadStart := time.Now()
	samples, sampleRate, err = audioload.Load(ctx, in.AudioData, in.DeclaredExt)
	p.traceSpan(runID, "load_audio", loadStart, in.DeclaredExt, fmt.Sprintf("samples=%d rate=%d", len(samples), sampleRate), err)
	if err != nil {
		return nil, 0, nil, nil, err
	}

	sttStart := time.Now()
	sttResult, err := p.cfg.STT.Transcribe(ctx, samples, sampleRate, sttclient.Options{Language: "en", Prompt: "verbatim, keep filler words"})
	sttOutput := ""
	if sttResult != nil {
		sttOutput = fmt.Sprintf("words=%d segments=%d", len(sttResult.Words), len(sttResult.Segments))
	}
	p.traceSpan(runID, "stt", sttStart, fmt.Sprintf("samples=%d", len(samples)), sttOutput, err)
	if err != nil {
		return nil, 0, nil, nil, apperr.Wrap(apperr.KindUpstream, "stt transcribe", err)
	}

	words = markFillers(sttResult.Words)
	segments = markSegments(words, sttResult.Segments)
	return samples, sampleRate, words, segments, nil
}

// markFillers classifies every raw word and sets IsFiller via §4.1.
func markFillers(words []engine.WordRecord) []engine.WordRecord {
	marked := make([]engine.WordRecord, len(words))
	for i, w := range words {
		_, isFiller := filler.Classify(w.Word)
		w.IsFiller = isFiller
		marked[i] = w
	}
	return marked
}

// markSegments recomputes ContainsFiller now that IsFiller has been set
// on the underlying words (STT's own segment grouping never saw the
// filler-marking pass).
func markSegments(words []engine.WordRecord, segments []engine.SegmentRecord) []engine.SegmentRecord {
	marked := make([]engine.SegmentRecord, len(segments))
	for i, seg := range segments {
		contains := false
		for _, w := range words {
			if w.Start >= seg.Start && w.End <= seg.End && w.IsFiller {
				contains = true
				break
			}
		}
		seg.ContainsFiller = contains
		marked[i] = seg
	}
	return marked
}

// contentWords drops fillers from the raw word table (§3 WordRecord,
// §4.2 "words_content ⊆ words_raw").
func contentWords(words []engine.WordRecord) []engine.WordRecord {
	out := make([]engine.WordRecord, 0, len(words))
	for _, w := range words {
		if !w.IsFiller {
			out = append(out, w)
		}
	}
	return out
}

// clearFillerEvents builds the STT-marked "clear" half of the merged
// filler set (§4.7 step 6) directly from words flagged by §4.1.
func clearFillerEvents(words []engine.WordRecord) []engine.FillerEvent {
	var events []engine.FillerEvent
	for _, w := range words {
		if !w.IsFiller {
			continue
		}
		events = append(events, engine.FillerEvent{
			Type:  engine.FillerKindFiller,
			Text:  w.Word,
			Start: w.Start,
			End:   w.End,
			Style: engine.FillerStyleClear,
			Count: 1,
		})
	}
	return events
}

// subtleFillerEvents groups phoneme-detector frames that fall outside
// every word span into "subtle" filler/stutter events. Contiguous
// same-phoneme frames within stutterGapSec merge into one event whose
// Count is the repetition tally (§3 FillerEvent, §4.7 step 7).
func subtleFillerEvents(frames []phonemeclient.Frame, words []engine.WordRecord) []engine.FillerEvent {
	var candidates []phonemeclient.Frame
	for _, f := range frames {
		if !overlapsAnyWord(f.Start, f.End, words) {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	var events []engine.FillerEvent
	i := 0
	for i < len(candidates) {
		j := i + 1
		for j < len(candidates) &&
			candidates[j].Phoneme == candidates[i].Phoneme &&
			candidates[j].Start-candidates[j-1].End <= stutterGapSec {
			j++
		}
		group := candidates[i:j]
		kind := engine.FillerKindFiller
		if len(group) > 1 {
			kind = engine.FillerKindStutter
		}
		events = append(events, engine.FillerEvent{
			Type:  kind,
			Text:  group[0].Phoneme,
			Start: group[0].Start,
			End:   group[len(group)-1].End,
			Style: engine.FillerStyleSubtle,
			Count: len(group),
		})
		i = j
	}
	return events
}

func overlapsAnyWord(start, end float64, words []engine.WordRecord) bool {
	for _, w := range words {
		if start < w.End && end > w.Start {
			return true
		}
	}
	return false
}

// mergeFillers combines clear and subtle events, preferring the clear
// (STT-reported) set and backfilling subtle ones that do not time-overlap
// any clear event (§4.7 step 6).
func mergeFillers(clear, subtle []engine.FillerEvent) []engine.FillerEvent {
	merged := make([]engine.FillerEvent, len(clear))
	copy(merged, clear)
	for _, s := range subtle {
		if !overlapsAnyFiller(s.Start, s.End, clear) {
			merged = append(merged, s)
		}
	}
	return merged
}

func overlapsAnyFiller(start, end float64, events []engine.FillerEvent) bool {
	const tolerance = 0.050
	for _, e := range events {
		if start < e.End+tolerance && end > e.Start-tolerance {
			return true
		}
	}
	return false
}

// annotate runs the LLM annotation step (§4.7 step 9), catching every
// failure kind named in §4.3 and degrading to an empty annotation so
// scoring always proceeds.
func (p *Pipeline) annotate(ctx context.Context, runID, transcript string, speechCtx engine.SpeechContext) (ann *engine.LLMAnnotation, succeeded bool) {
	if p.cfg.LLM == nil {
		return engine.EmptyAnnotation(), false
	}
	start := time.Now()
	result, err := p.cfg.LLM.Annotate(ctx, p.cfg.LLMEngine, transcript, speechCtx)
	p.traceSpan(runID, "llm_annotate", start, transcript, "", err)
	if err != nil {
		slog.Warn("llm_annotation_failed", "job_id", runID, "error", err, "kind", apperr.KindOf(err))
		return engine.EmptyAnnotation(), false
	}
	return result, true
}

// grammarErrorSummary and wordChoiceErrorSummary turn raw LLM counts into
// the +feedback tier's small summary blocks.
func grammarErrorSummary(ann *engine.LLMAnnotation) engine.GrammarErrorSummary {
	severity := "none"
	switch {
	case ann.GrammarErrorCount >= 5 || ann.CascadingGrammarFailure:
		severity = "severe"
	case ann.GrammarErrorCount >= 3:
		severity = "moderate"
	case ann.GrammarErrorCount >= 1:
		severity = "minor"
	}
	note := "No significant grammar issues detected."
	if ann.GrammarErrorCount > 0 {
		note = fmt.Sprintf("%d grammar error(s) detected during the response.", ann.GrammarErrorCount)
	}
	return engine.GrammarErrorSummary{Count: ann.GrammarErrorCount, Severity: severity, Note: note}
}

func wordChoiceErrorSummary(ann *engine.LLMAnnotation) engine.WordChoiceErrorSummary {
	note := "Word choices were consistently appropriate."
	if ann.WordChoiceErrorCount > 0 {
		note = fmt.Sprintf("%d word choice issue(s) flagged.", ann.WordChoiceErrorCount)
	}
	return engine.WordChoiceErrorSummary{Count: ann.WordChoiceErrorCount, Note: note}
}

// engineComputeMetrics is a thin pass-through to engine.ComputeMetrics,
// named distinctly in this package so call sites read as a pipeline step
// rather than a direct cross-package call.
func engineComputeMetrics(wordsRaw, wordsContent []engine.WordRecord, segments []engine.SegmentRecord, fillers []engine.FillerEvent, totalDurationSec float64) (engine.MetricVector, error) {
	return engine.ComputeMetrics(wordsRaw, wordsContent, segments, fillers, totalDurationSec)
}

// buildStatistics assembles the base-tier `statistics` block (§6.1).
func buildStatistics(wordsRaw, wordsContent []engine.WordRecord, fillers []engine.FillerEvent, isMonotone bool) engine.Statistics {
	fillerWords := len(wordsRaw) - len(wordsContent)
	pct := 0.0
	if len(wordsRaw) > 0 {
		pct = float64(fillerWords) / float64(len(wordsRaw))
	}
	return engine.Statistics{
		TotalWordsTranscribed: len(wordsRaw),
		ContentWords:          len(wordsContent),
		FillerWordsDetected:   fillerWords,
		FillerPercentage:      pct,
		IsMonotone:            isMonotone,
	}
}

// buildNormalizedMetrics projects the 9-of-17 metric subset exposed in
// the base tier's `normalized_metrics` block (§6.1).
func buildNormalizedMetrics(mv engine.MetricVector) engine.NormalizedMetrics {
	return engine.NormalizedMetrics{
		WPM:                   mv.WPM,
		LongPausesPerMin:      mv.LongPausesPerMin,
		FillersPerMin:         mv.FillersPerMin,
		PauseVariability:      mv.PauseVariability,
		SpeechRateVariability: mv.SpeechRateVariability,
		VocabRichness:         mv.VocabRichness,
		TypeTokenRatio:        mv.TypeTokenRatio,
		RepetitionRatio:       mv.RepetitionRatio,
		MeanUtteranceLength:   mv.MeanUtteranceLength,
	}
}

func transcriptOf(segments []engine.SegmentRecord) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = strings.TrimSpace(s.Text)
	}
	return strings.Join(parts, " ")
}

func buildLLMAnalysis(ann *engine.LLMAnnotation) *engine.LLMAnalysis {
	return &engine.LLMAnalysis{
		GrammarErrorCount:       ann.GrammarErrorCount,
		CoherenceBreakCount:     ann.CoherenceBreakCount,
		WordChoiceErrorCount:    ann.WordChoiceErrorCount,
		AdvancedVocabularyCount: ann.AdvancedVocabularyCount,
		FlowInstabilityPresent:  ann.FlowControl != engine.FlowControlStable,
		CascadingGrammarFailure: ann.CascadingGrammarFailure,
	}
}

func spanTimestamps(words []engine.WordRecord, ann *engine.LLMAnnotation, llmSucceeded bool) []engine.TimestampedSpan {
	if !llmSucceeded || len(ann.Spans) == 0 {
		return nil
	}
	return spanmap.Map(words, ann.Spans)
}

// traceSpan records a completed stage span if tracing is enabled, mirroring
// the teacher's traceSpan helper in shape (runID gate, status-from-error).
// It also observes the stage in Prometheus regardless of whether tracing
// is configured, so StageDuration/ModelErrors stay populated even when
// POSTGRES_URL is unset.
func (p *Pipeline) traceSpan(runID, name string, start time.Time, input, output string, err error) {
	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		metrics.ModelErrors.WithLabelValues(name).Inc()
	}

	if p.cfg.Tracer == nil || runID == "" {
		return
	}
	status, errMsg := "ok", ""
	if err != nil {
		status, errMsg = "error", err.Error()
	}
	p.cfg.Tracer.RecordSpan(runID, name, start, float64(elapsed.Milliseconds()), input, output, status, errMsg)
}

func (p *Pipeline) endRun(runID, mode string, start time.Time, status, errMsg string) {
	metrics.PipelineDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if p.cfg.Tracer == nil || runID == "" {
		return
	}
	p.cfg.Tracer.EndRun(runID, float64(time.Since(start).Milliseconds()), status, errMsg)
}
