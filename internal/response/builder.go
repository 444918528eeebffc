package response

import (
	"strings"

	"github.com/bytedance/sonic"

	"github.com/hubenschmidt/speakscore-engine/internal/engine"
)

// BuildQueuedOrProcessing builds the response for a job still in the
// queued or processing state (§6.1 "get result").
func BuildQueuedOrProcessing(jobID, status string) JobStatus {
	msg := "job is queued"
	if status == "processing" {
		msg = "job is processing"
	}
	return JobStatus{JobID: jobID, Status: status, Message: msg}
}

// BuildErrorResponse builds the response for a job that terminated in the
// error state.
func BuildErrorResponse(jobID, message string) JobError {
	return JobError{JobID: jobID, Status: "error", Error: message}
}

// BuildBase projects out into the always-present base tier.
func BuildBase(out *engine.EngineOutput) Base {
	var llmAnalysis *llmAnalysisBlock
	if out.LLMAnalysis != nil {
		llmAnalysis = &llmAnalysisBlock{
			GrammarErrorCount:       out.LLMAnalysis.GrammarErrorCount,
			CoherenceBreakCount:     out.LLMAnalysis.CoherenceBreakCount,
			WordChoiceErrorCount:    out.LLMAnalysis.WordChoiceErrorCount,
			AdvancedVocabularyCount: out.LLMAnalysis.AdvancedVocabularyCount,
			FlowInstabilityPresent:  out.LLMAnalysis.FlowInstabilityPresent,
			CascadingGrammarFailure: out.LLMAnalysis.CascadingGrammarFailure,
		}
	}

	return Base{
		JobID:         out.JobID,
		Status:        "completed",
		EngineVersion: out.EngineVersion,
		ScoringConfig: out.ScoringConfig,
		OverallBand:   out.Scores.Overall,
		CriterionBands: criterionBands{
			Fluency:       out.Scores.Fluency,
			Pronunciation: out.Scores.Pronunciation,
			Lexical:       out.Scores.Lexical,
			Grammar:       out.Scores.Grammar,
		},
		Confidence: confidenceBlock{
			OverallConfidence: out.Confidence.Overall,
			Category:          out.Confidence.Category,
			Recommendation:    out.Confidence.Recommendation,
			FactorBreakdown:   out.Confidence.FactorBreakdown,
		},
		Descriptors:          out.Descriptors,
		CriterionDescriptors: out.CriterionDescriptors,
		Statistics: statisticsBlock{
			TotalWordsTranscribed: out.Statistics.TotalWordsTranscribed,
			ContentWords:          out.Statistics.ContentWords,
			FillerWordsDetected:   out.Statistics.FillerWordsDetected,
			FillerPercentage:      sanitizeFloat(out.Statistics.FillerPercentage),
			IsMonotone:            out.Statistics.IsMonotone,
		},
		NormalizedMetrics: normalizedMetricsBlock{
			WPM:                   sanitizeFloat(out.Metrics.WPM),
			LongPausesPerMin:      sanitizeFloat(out.Metrics.LongPausesPerMin),
			FillersPerMin:         sanitizeFloat(out.Metrics.FillersPerMin),
			PauseVariability:      sanitizeFloat(out.Metrics.PauseVariability),
			SpeechRateVariability: sanitizeFloat(out.Metrics.SpeechRateVariability),
			VocabRichness:         sanitizeFloat(out.Metrics.VocabRichness),
			TypeTokenRatio:        sanitizeFloat(out.Metrics.TypeTokenRatio),
			RepetitionRatio:       sanitizeFloat(out.Metrics.RepetitionRatio),
			MeanUtteranceLength:   sanitizeFloat(out.Metrics.MeanUtteranceLength),
		},
		LLMAnalysis: llmAnalysis,
		SpeechQuality: speechQualityBlock{
			MeanWordConfidence: sanitizeFloat(out.SpeechQuality.MeanWordConfidence),
			LowConfidenceRatio: sanitizeFloat(out.SpeechQuality.LowConfidenceRatio),
			IsMonotone:         out.SpeechQuality.IsMonotone,
		},
		Mode: out.Mode,
	}
}

// BuildFeedback projects out into the base tier plus transcript and
// structured feedback (§6.1 "+feedback").
func BuildFeedback(out *engine.EngineOutput) Feedback {
	return Feedback{
		Base:                BuildBase(out),
		Transcript:          out.Transcript,
		GrammarErrors:       out.GrammarErrors,
		WordChoiceErrors:    out.WordChoiceErrors,
		ExaminerDescriptors: out.CriterionDescriptors,
		FluencyNotes:        strings.Join(out.Feedback.Fluency.Suggestions, " "),
		FeedbackBlock:       out.Feedback,
	}
}

// BuildFull projects out into the feedback tier plus word-level and
// span-level detail (§6.1 "+full").
func BuildFull(out *engine.EngineOutput) Full {
	return Full{
		Feedback:              BuildFeedback(out),
		WordTimestamps:        out.WordTimestamps,
		ContentWords:          out.ContentWords,
		SegmentTimestamps:     out.SegmentTimestamps,
		FillerEvents:          out.FillerEvents,
		ConfidenceMultipliers: out.Confidence.FactorBreakdown,
		TimestampedFeedback:   out.TimestampedFeedback,
	}
}

// Marshal encodes v via sonic, grounded on ashi009-asr-eval's use of sonic
// for fast JSON encoding of evaluation payloads. Callers must only pass
// values already sanitized of NaN/Inf (sonic cannot represent either).
func Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// Unmarshal decodes data into v via sonic. Used by the job queue's stored
// payload round-trip: a completed job's +full tier is marshaled once and
// re-decoded per get-result call to re-project to whatever tier was
// requested.
func Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}
