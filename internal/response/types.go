// Package response projects an engine.EngineOutput into the three response
// tiers of the HTTP surface (§6.1, §4.10): base, +feedback, +full. Each
// tier is a superset of the previous one's fields.
package response

import "github.com/hubenschmidt/speakscore-engine/internal/engine"

// JobStatus is returned while a job is queued or processing.
type JobStatus struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobError is returned once a job has terminated in the error state.
type JobError struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

type criterionBands struct {
	Fluency       engine.Band `json:"fluency_coherence"`
	Pronunciation engine.Band `json:"pronunciation"`
	Lexical       engine.Band `json:"lexical_resource"`
	Grammar       engine.Band `json:"grammatical_range_accuracy"`
}

type confidenceBlock struct {
	OverallConfidence float64                   `json:"overall_confidence"`
	Category          engine.ConfidenceCategory `json:"category"`
	Recommendation    string                    `json:"recommendation"`
	FactorBreakdown   []engine.ConfidenceFactor `json:"factor_breakdown"`
}

type statisticsBlock struct {
	TotalWordsTranscribed int      `json:"total_words_transcribed"`
	ContentWords          int      `json:"content_words"`
	FillerWordsDetected   int      `json:"filler_words_detected"`
	FillerPercentage      *float64 `json:"filler_percentage"`
	IsMonotone            bool     `json:"is_monotone"`
}

type normalizedMetricsBlock struct {
	WPM                   *float64 `json:"wpm"`
	LongPausesPerMin      *float64 `json:"long_pauses_per_min"`
	FillersPerMin         *float64 `json:"fillers_per_min"`
	PauseVariability      *float64 `json:"pause_variability"`
	SpeechRateVariability *float64 `json:"speech_rate_variability"`
	VocabRichness         *float64 `json:"vocab_richness"`
	TypeTokenRatio        *float64 `json:"type_token_ratio"`
	RepetitionRatio       *float64 `json:"repetition_ratio"`
	MeanUtteranceLength   *float64 `json:"mean_utterance_length"`
}

type llmAnalysisBlock struct {
	GrammarErrorCount       int  `json:"grammar_error_count"`
	CoherenceBreakCount     int  `json:"coherence_break_count"`
	WordChoiceErrorCount    int  `json:"word_choice_error_count"`
	AdvancedVocabularyCount int  `json:"advanced_vocabulary_count"`
	FlowInstabilityPresent  bool `json:"flow_instability_present"`
	CascadingGrammarFailure bool `json:"cascading_grammar_failure"`
}

type speechQualityBlock struct {
	MeanWordConfidence *float64 `json:"mean_word_confidence"`
	LowConfidenceRatio *float64 `json:"low_confidence_ratio"`
	IsMonotone         bool     `json:"is_monotone"`
}

// Base is the always-present response tier (§6.1 "base").
type Base struct {
	JobID                string                 `json:"job_id"`
	Status               string                 `json:"status"`
	EngineVersion        string                 `json:"engine_version"`
	ScoringConfig        map[string]any         `json:"scoring_config"`
	OverallBand          engine.Band            `json:"overall_band"`
	CriterionBands       criterionBands         `json:"criterion_bands"`
	Confidence           confidenceBlock        `json:"confidence"`
	Descriptors          engine.Descriptors     `json:"descriptors"`
	CriterionDescriptors engine.Descriptors     `json:"criterion_descriptors"`
	Statistics           statisticsBlock        `json:"statistics"`
	NormalizedMetrics    normalizedMetricsBlock `json:"normalized_metrics"`
	LLMAnalysis          *llmAnalysisBlock      `json:"llm_analysis"`
	SpeechQuality        speechQualityBlock     `json:"speech_quality"`
	Mode                 string                 `json:"mode"`
}

// Feedback is the base tier plus transcript and structured feedback
// (§6.1 "+feedback").
type Feedback struct {
	Base
	Transcript         string                      `json:"transcript"`
	GrammarErrors      engine.GrammarErrorSummary   `json:"grammar_errors"`
	WordChoiceErrors   engine.WordChoiceErrorSummary `json:"word_choice_errors"`
	ExaminerDescriptors engine.Descriptors          `json:"examiner_descriptors"`
	FluencyNotes       string                      `json:"fluency_notes"`
	FeedbackBlock      engine.Feedback             `json:"feedback"`
}

// Full is the feedback tier plus word-level and span-level detail
// (§6.1 "+full").
type Full struct {
	Feedback
	WordTimestamps      []engine.WordRecord      `json:"word_timestamps"`
	ContentWords        []engine.WordRecord      `json:"content_words"`
	SegmentTimestamps   []engine.SegmentRecord   `json:"segment_timestamps"`
	FillerEvents        []engine.FillerEvent     `json:"filler_events"`
	ConfidenceMultipliers []engine.ConfidenceFactor `json:"confidence_multipliers"`
	TimestampedFeedback []engine.TimestampedSpan `json:"timestamped_feedback"`
}
