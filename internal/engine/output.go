package engine

// Statistics is the base-tier `statistics` block (§6.1).
type Statistics struct {
	TotalWordsTranscribed int     `json:"total_words_transcribed"`
	ContentWords          int     `json:"content_words"`
	FillerWordsDetected   int     `json:"filler_words_detected"`
	FillerPercentage      float64 `json:"filler_percentage"`
	IsMonotone            bool    `json:"is_monotone"`
}

// NormalizedMetrics is the 9-of-17 metric subset exposed in the base tier.
type NormalizedMetrics struct {
	WPM                   float64 `json:"wpm"`
	LongPausesPerMin      float64 `json:"long_pauses_per_min"`
	FillersPerMin         float64 `json:"fillers_per_min"`
	PauseVariability      float64 `json:"pause_variability"`
	SpeechRateVariability float64 `json:"speech_rate_variability"`
	VocabRichness         float64 `json:"vocab_richness"`
	TypeTokenRatio        float64 `json:"type_token_ratio"`
	RepetitionRatio       float64 `json:"repetition_ratio"`
	MeanUtteranceLength   float64 `json:"mean_utterance_length"`
}

// LLMAnalysis is the base-tier `llm_analysis` block, null in fast mode.
type LLMAnalysis struct {
	GrammarErrorCount        int  `json:"grammar_error_count"`
	CoherenceBreakCount      int  `json:"coherence_break_count"`
	WordChoiceErrorCount     int  `json:"word_choice_error_count"`
	AdvancedVocabularyCount  int  `json:"advanced_vocabulary_count"`
	FlowInstabilityPresent   bool `json:"flow_instability_present"`
	CascadingGrammarFailure  bool `json:"cascading_grammar_failure"`
}

// SpeechQuality is the base-tier `speech_quality` block.
type SpeechQuality struct {
	MeanWordConfidence float64 `json:"mean_word_confidence"`
	LowConfidenceRatio float64 `json:"low_confidence_ratio"`
	IsMonotone         bool    `json:"is_monotone"`
}

// GrammarErrorSummary is one entry of the +feedback tier's `grammar_errors`.
type GrammarErrorSummary struct {
	Count    int    `json:"count"`
	Severity string `json:"severity"`
	Note     string `json:"note"`
}

// WordChoiceErrorSummary is one entry of the +feedback tier's `word_choice_errors`.
type WordChoiceErrorSummary struct {
	Count int    `json:"count"`
	Note  string `json:"note"`
}

// EngineOutput is the full result of one scoring job, from which the
// response builder projects the base/+feedback/+full tiers (§6.1, §4.10).
type EngineOutput struct {
	JobID         string        `json:"job_id"`
	EngineVersion string        `json:"engine_version"`
	ScoringConfig map[string]any `json:"scoring_config"`
	Mode          string        `json:"mode"` // "full" or "fast"

	Scores      CriterionScores   `json:"-"`
	Confidence  ConfidenceReport  `json:"-"`
	Descriptors Descriptors       `json:"-"`
	CriterionDescriptors Descriptors `json:"-"`
	Statistics  Statistics        `json:"-"`
	Metrics     NormalizedMetrics `json:"-"`
	LLMAnalysis *LLMAnalysis      `json:"-"`
	SpeechQuality SpeechQuality   `json:"-"`

	// +feedback tier
	Transcript         string                   `json:"-"`
	GrammarErrors      GrammarErrorSummary      `json:"-"`
	WordChoiceErrors   WordChoiceErrorSummary   `json:"-"`
	Feedback           Feedback                 `json:"-"`

	// +full tier
	WordTimestamps      []WordRecord      `json:"-"`
	ContentWords        []WordRecord      `json:"-"`
	SegmentTimestamps   []SegmentRecord   `json:"-"`
	FillerEvents        []FillerEvent     `json:"-"`
	TimestampedFeedback []TimestampedSpan `json:"-"`
}
