package pipeline

import (
	"context"
	"time"

	"github.com/hubenschmidt/speakscore-engine/internal/alignclient"
	"github.com/hubenschmidt/speakscore-engine/internal/audioload"
	"github.com/hubenschmidt/speakscore-engine/internal/engine"
)

// RunFull executes the 13-step full analyzer chain (§4.7): STT, alignment,
// phoneme-level disfluency detection, metrics, LLM annotation, span
// mapping, band scoring, confidence, and final assembly.
func (p *Pipeline) RunFull(ctx context.Context, in Input) (*engine.EngineOutput, error) {
	start := time.Now()
	runID := ""
	if p.cfg.Tracer != nil {
		runID = p.cfg.Tracer.StartRun(in.JobID, "full")
	}

	samples, sampleRate, words, segments, err := p.loadAndTranscribe(ctx, runID, in)
	if err != nil {
		p.endRun(runID, "full", start, "error", err.Error())
		return nil, err
	}

	// Step 4: force-align. A failure here degrades the rest of this job
	// to fast-pipeline behavior for alignment/phoneme detection rather
	// than failing the whole job (§5 model-error degradation).
	aligned := words
	if p.cfg.Aligner != nil {
		alignStart := time.Now()
		result, alignErr := p.cfg.Aligner.Align(ctx, samples, sampleRate, words, alignclient.Options{Language: "en"})
		p.traceSpan(runID, "align", alignStart, "", "", alignErr)
		if alignErr != nil {
			p.traceSpan(runID, "align_degraded", alignStart, "", "falling back to stt timings", alignErr)
		} else {
			aligned = reapplyFillerFlags(result.Words, words)
		}
	}

	// Step 5: phoneme-level filler/stutter detection on gaps.
	var subtle []engine.FillerEvent
	isMonotone := false
	if p.cfg.Phoneme != nil {
		phonemeStart := time.Now()
		result, phonemeErr := p.cfg.Phoneme.Detect(ctx, samples, sampleRate)
		p.traceSpan(runID, "phoneme_detect", phonemeStart, "", "", phonemeErr)
		if phonemeErr != nil {
			p.traceSpan(runID, "phoneme_degraded", phonemeStart, "", "continuing without subtle fillers", phonemeErr)
		} else {
			subtle = subtleFillerEvents(result.Frames, aligned)
			isMonotone = result.IsMonotone
		}
	}

	// Steps 6-7: merge + group.
	clear := clearFillerEvents(aligned)
	fillers := mergeFillers(clear, subtle)

	wordsContent := contentWords(aligned)
	totalDuration := audioload.Duration(samples, sampleRate)

	// Step 8: metrics.
	metricsStart := time.Now()
	metrics, err := engineComputeMetrics(aligned, wordsContent, segments, fillers, totalDuration)
	p.traceSpan(runID, "metrics", metricsStart, "", "", err)
	if err != nil {
		p.endRun(runID, "full", start, "error", err.Error())
		return nil, err
	}

	// Step 9: LLM annotation, caught and degraded to empty on any failure.
	transcript := transcriptOf(segments)
	ann, llmSucceeded := p.annotate(ctx, runID, transcript, in.SpeechContext)

	// Step 10: span -> timestamp mapping.
	timestamped := spanTimestamps(aligned, ann, llmSucceeded)

	// Step 11: band scoring.
	scores := engine.Score(engine.ScoreInput{
		Metrics:          metrics,
		Annotation:       ann,
		Context:          in.SpeechContext,
		IsMonotone:       isMonotone,
		ContentWordCount: len(wordsContent),
	})

	// Step 12: confidence.
	confidence := engine.ComputeConfidence(engine.ConfidenceInput{
		TotalDurationSec: totalDuration,
		Metrics:          metrics,
		Annotation:       ann,
		Scores:           scores,
		IncludeLLMFactor: llmSucceeded,
	})

	feedback := engine.BuildFeedback(scores, metrics, ann, in.SpeechContext, isMonotone)

	// Step 13: assemble.
	out := &engine.EngineOutput{
		JobID:                in.JobID,
		EngineVersion:        p.cfg.EngineVersion,
		ScoringConfig:        in.ScoringConfig,
		Mode:                 "full",
		Scores:               scores,
		Confidence:           confidence,
		Descriptors:          engine.BuildDescriptors(scores.Overall),
		CriterionDescriptors: engine.BuildCriterionDescriptors(scores, ann),
		Statistics:           buildStatistics(aligned, wordsContent, fillers, isMonotone),
		Metrics:              buildNormalizedMetrics(metrics),
		SpeechQuality: engine.SpeechQuality{
			MeanWordConfidence: metrics.MeanWordConfidence,
			LowConfidenceRatio: metrics.LowConfidenceRatio,
			IsMonotone:         isMonotone,
		},
		Transcript:          transcript,
		Feedback:            feedback,
		WordTimestamps:      aligned,
		ContentWords:        wordsContent,
		SegmentTimestamps:   segments,
		FillerEvents:        fillers,
		TimestampedFeedback: timestamped,
	}
	if llmSucceeded {
		out.LLMAnalysis = buildLLMAnalysis(ann)
		out.GrammarErrors = grammarErrorSummary(ann)
		out.WordChoiceErrors = wordChoiceErrorSummary(ann)
	}

	p.endRun(runID, "full", start, "ok", "")
	return out, nil
}

// reapplyFillerFlags copies the filler-marking pass's IsFiller verdicts
// onto the aligner's tightened word list, matched by position: alignment
// only tightens start/end, it never changes word count or order.
func reapplyFillerFlags(aligned, marked []engine.WordRecord) []engine.WordRecord {
	if len(aligned) != len(marked) {
		return aligned
	}
	out := make([]engine.WordRecord, len(aligned))
	for i, w := range aligned {
		w.IsFiller = marked[i].IsFiller
		out[i] = w
	}
	return out
}
