package pipeline

import (
	"context"
	"time"

	"github.com/hubenschmidt/speakscore-engine/internal/audioload"
	"github.com/hubenschmidt/speakscore-engine/internal/engine"
)

// RunFast executes the fast analyzer chain (§4.8): identical to RunFull
// except alignment, phoneme-level disfluency detection, and LLM
// annotation are skipped entirely. Fillers come only from the §4.1
// STT-marked pass; the filler event list is always constructed, even when
// empty, so §4.2 never sees a missing column. Target wall-clock is about
// 1/5 of the full pipeline.
func (p *Pipeline) RunFast(ctx context.Context, in Input) (*engine.EngineOutput, error) {
	start := time.Now()
	runID := ""
	if p.cfg.Tracer != nil {
		runID = p.cfg.Tracer.StartRun(in.JobID, "fast")
	}

	samples, sampleRate, words, segments, err := p.loadAndTranscribe(ctx, runID, in)
	if err != nil {
		p.endRun(runID, "fast", start, "error", err.Error())
		return nil, err
	}

	fillers := clearFillerEvents(words)
	wordsContent := contentWords(words)
	totalDuration := audioload.Duration(samples, sampleRate)

	metricsStart := time.Now()
	metrics, err := engineComputeMetrics(words, wordsContent, segments, fillers, totalDuration)
	p.traceSpan(runID, "metrics", metricsStart, "", "", err)
	if err != nil {
		p.endRun(runID, "fast", start, "error", err.Error())
		return nil, err
	}

	ann := engine.EmptyAnnotation()
	scores := engine.Score(engine.ScoreInput{
		Metrics:          metrics,
		Annotation:       ann,
		Context:          in.SpeechContext,
		IsMonotone:       false,
		ContentWordCount: len(wordsContent),
	})

	confidence := engine.ComputeConfidence(engine.ConfidenceInput{
		TotalDurationSec: totalDuration,
		Metrics:          metrics,
		Annotation:       ann,
		Scores:           scores,
		IncludeLLMFactor: false,
	})

	feedback := engine.BuildFeedback(scores, metrics, ann, in.SpeechContext, false)
	transcript := transcriptOf(segments)

	out := &engine.EngineOutput{
		JobID:                in.JobID,
		EngineVersion:        p.cfg.EngineVersion,
		ScoringConfig:        in.ScoringConfig,
		Mode:                 "fast",
		Scores:               scores,
		Confidence:           confidence,
		Descriptors:          engine.BuildDescriptors(scores.Overall),
		CriterionDescriptors: engine.BuildCriterionDescriptors(scores, nil),
		Statistics:           buildStatistics(words, wordsContent, fillers, false),
		Metrics:              buildNormalizedMetrics(metrics),
		LLMAnalysis:          nil,
		SpeechQuality: engine.SpeechQuality{
			MeanWordConfidence: metrics.MeanWordConfidence,
			LowConfidenceRatio: metrics.LowConfidenceRatio,
			IsMonotone:         false,
		},
		Transcript:          transcript,
		Feedback:            feedback,
		WordTimestamps:      words,
		ContentWords:        wordsContent,
		SegmentTimestamps:   segments,
		FillerEvents:        fillers,
		TimestampedFeedback: nil,
	}

	p.endRun(runID, "fast", start, "ok", "")
	return out, nil
}
