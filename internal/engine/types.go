// Package engine implements the deterministic scoring core: the metric
// calculator, band scorer, descriptor/feedback builder, and confidence
// calculator. Every function here is pure — no I/O, no clocks, no random
// numbers — so the same inputs always yield the same bands and feedback.
package engine

// Band is an IELTS-style half-step score in {4.0, 4.5, ..., 9.0}.
type Band float64

const (
	BandMin Band = 4.0
	BandMax Band = 9.0
)

// WordRecord is a single transcribed token with timing and STT confidence.
// Produced by STT; IsFiller is set during the filler-marking pass and is
// the only field mutated after the record is first emitted.
type WordRecord struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	IsFiller   bool    `json:"is_filler"`
}

// Duration returns End-Start.
func (w WordRecord) Duration() float64 { return w.End - w.Start }

// SegmentRecord groups contiguous WordRecords as STT reported them.
type SegmentRecord struct {
	Text              string  `json:"text"`
	Start             float64 `json:"start"`
	End               float64 `json:"end"`
	AvgWordConfidence float64 `json:"avg_word_confidence"`
	ContainsFiller    bool    `json:"contains_filler"`
}

func (s SegmentRecord) Duration() float64 { return s.End - s.Start }

// FillerKind discriminates a clear lexical filler from a phoneme-detected
// stutter.
type FillerKind string

const (
	FillerKindFiller  FillerKind = "filler"
	FillerKindStutter FillerKind = "stutter"
)

// FillerStyle marks whether a filler was unambiguous (STT-reported, "clear")
// or recovered from phoneme-frame analysis ("subtle").
type FillerStyle string

const (
	FillerStyleClear  FillerStyle = "clear"
	FillerStyleSubtle FillerStyle = "subtle"
)

// FillerEvent is a disfluency instance, either a lexical filler or a
// grouped stutter (contiguous same-phoneme repetitions within <=150ms).
type FillerEvent struct {
	Type     FillerKind  `json:"type"`
	Text     string      `json:"text"`
	Start    float64     `json:"start"`
	End      float64     `json:"end"`
	Style    FillerStyle `json:"style"`
	Count    int         `json:"count"`
}

func (f FillerEvent) Duration() float64 { return f.End - f.Start }

// MetricVector is the ~17-entry normalized numeric summary derived once
// per job by the metric calculator (see metricvec.go). pauseAfterFillerRate
// is intentionally unexported: it is computed to match source behavior but
// never surfaced (known-buggy upstream metric, preserved as hard-zero).
type MetricVector struct {
	WPM                    float64
	UniqueWordCount        int
	FillersPerMin          float64
	StuttersPerMin         float64
	LongPausesPerMin       float64
	VeryLongPausesPerMin   float64
	PauseFrequency         float64
	PauseTimeRatio         float64
	PauseVariability       float64
	VocabRichness          float64
	TypeTokenRatio         float64
	RepetitionRatio        float64
	SpeechRateVariability  float64
	MeanUtteranceLength    float64
	MeanWordConfidence     float64
	LowConfidenceRatio     float64
	LexicalDensity         float64
	pauseAfterFillerRate   float64 //nolint:unused // preserved-but-unexposed, see spec §9
}

// SpanLabel is the closed vocabulary of LLM span annotations.
type SpanLabel string

const (
	LabelGrammarError                 SpanLabel = "grammar_error"
	LabelMeaningBlockingGrammarError   SpanLabel = "meaning_blocking_grammar_error"
	LabelClauseCompletionIssue         SpanLabel = "clause_completion_issue"
	LabelComplexStructure              SpanLabel = "complex_structure"
	LabelComplexStructuresAttempted    SpanLabel = "complex_structures_attempted"
	LabelComplexStructuresAccurate     SpanLabel = "complex_structures_accurate"
	LabelAdvancedVocabulary            SpanLabel = "advanced_vocabulary"
	LabelIdiomaticOrCollocationalUse   SpanLabel = "idiomatic_or_collocational_use"
	LabelWordChoiceError               SpanLabel = "word_choice_error"
	LabelCoherenceBreak                SpanLabel = "coherence_break"
)

// ValidSpanLabels enumerates the closed vocabulary for validation.
var ValidSpanLabels = map[SpanLabel]bool{
	LabelGrammarError:               true,
	LabelMeaningBlockingGrammarError: true,
	LabelClauseCompletionIssue:       true,
	LabelComplexStructure:            true,
	LabelComplexStructuresAttempted:  true,
	LabelComplexStructuresAccurate:   true,
	LabelAdvancedVocabulary:          true,
	LabelIdiomaticOrCollocationalUse: true,
	LabelWordChoiceError:             true,
	LabelCoherenceBreak:              true,
}

// Span is a verbatim transcript substring labeled by the LLM annotator.
type Span struct {
	Text  string    `json:"text"`
	Label SpanLabel `json:"label"`
}

// TimestampedSpan attaches word-aligned timing to a Span (§4.5 output).
type TimestampedSpan struct {
	Span
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	MMSS  string  `json:"mm_ss"`
}

type ListenerEffort string

const (
	ListenerEffortLow    ListenerEffort = "low"
	ListenerEffortMedium ListenerEffort = "medium"
	ListenerEffortHigh   ListenerEffort = "high"
)

type FlowControl string

const (
	FlowControlStable   FlowControl = "stable"
	FlowControlMixed    FlowControl = "mixed"
	FlowControlUnstable FlowControl = "unstable"
)

// LLMAnnotation is the typed result of the LLM annotation client (§4.3).
// Nil in fast mode, or after a caught LLM failure (per §4.7 step 9).
type LLMAnnotation struct {
	GrammarErrorCount         int            `json:"grammar_error_count"`
	WordChoiceErrorCount      int            `json:"word_choice_error_count"`
	AdvancedVocabularyCount   int            `json:"advanced_vocabulary_count"`
	IdiomaticCount            int            `json:"idiomatic_count"`
	CoherenceBreakCount       int            `json:"coherence_break_count"`
	ComplexStructureAccuracy  float64        `json:"complex_structure_accuracy"`
	TopicRelevance            bool           `json:"topic_relevance"`
	ListenerEffort            ListenerEffort `json:"listener_effort"`
	FlowControl               FlowControl    `json:"flow_control"`
	ClarityScore              int            `json:"clarity_score"`
	CascadingGrammarFailure   bool           `json:"cascading_grammar_failure"`
	RegisterMismatch          int            `json:"register_mismatch"`
	Spans                     []Span         `json:"spans"`
}

// EmptyAnnotation is returned whenever the LLM client fails and the
// pipeline degrades to metrics-only scoring (§4.3, §4.7 step 9).
func EmptyAnnotation() *LLMAnnotation {
	return &LLMAnnotation{
		ListenerEffort: ListenerEffortLow,
		FlowControl:    FlowControlStable,
		ClarityScore:   3,
		Spans:          nil,
	}
}

// CriterionScores holds the four criterion bands plus the aggregated overall.
type CriterionScores struct {
	Fluency       Band `json:"fluency_coherence"`
	Pronunciation Band `json:"pronunciation"`
	Lexical       Band `json:"lexical_resource"`
	Grammar       Band `json:"grammatical_range_accuracy"`
	Overall       Band `json:"overall"`

	// OverallRaw is the pre-rounding overall value, kept only so the
	// confidence calculator's boundary-proximity factor can tell a
	// comfortable band from one a hair's breadth from rounding the other
	// way. Never serialized.
	OverallRaw float64 `json:"-"`
}

type ConfidenceCategory string

const (
	ConfidenceVeryLow  ConfidenceCategory = "VERY_LOW"
	ConfidenceLow      ConfidenceCategory = "LOW"
	ConfidenceModerate ConfidenceCategory = "MODERATE"
	ConfidenceHigh     ConfidenceCategory = "HIGH"
	ConfidenceVeryHigh ConfidenceCategory = "VERY_HIGH"
)

// ConfidenceFactor records one factor's observed value, its applied
// multiplier/adjustment, and a human-readable impact string.
type ConfidenceFactor struct {
	Name       string  `json:"name"`
	Observed   float64 `json:"observed"`
	Adjustment float64 `json:"adjustment"`
	Impact     string  `json:"impact"`
}

// ConfidenceReport is the six-factor confidence calculator's output (§4.6).
type ConfidenceReport struct {
	Overall        float64            `json:"overall_confidence"`
	Category       ConfidenceCategory `json:"category"`
	FactorBreakdown []ConfidenceFactor `json:"factor_breakdown"`
	Recommendation string             `json:"recommendation"`
}

// CriterionFeedback is the structured per-criterion feedback block (§4.4).
type CriterionFeedback struct {
	Criterion   string   `json:"criterion"`
	Band        Band     `json:"band"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
}

// NextBandTips identifies the lowest-banded criterion and what to do about it.
type NextBandTips struct {
	Focus  string `json:"focus"`
	Action string `json:"action"`
}

// OverallFeedback is the overall feedback block accompanying the four
// per-criterion blocks.
type OverallFeedback struct {
	Band         Band         `json:"band"`
	Summary      string       `json:"summary"`
	NextBandTips NextBandTips `json:"next_band_tips"`
}

// Feedback is the complete structured-feedback output (§4.4, §6.1 "+feedback" tier).
type Feedback struct {
	Fluency       CriterionFeedback `json:"fluency_coherence"`
	Pronunciation CriterionFeedback `json:"pronunciation"`
	Lexical       CriterionFeedback `json:"lexical_resource"`
	Grammar       CriterionFeedback `json:"grammatical_range_accuracy"`
	Overall       OverallFeedback   `json:"overall"`
}

// Descriptors holds the static one-sentence descriptor per criterion,
// keyed at build time either by the overall band (the top-level
// `descriptors` block) or by each criterion's own band
// (`criterion_descriptors`, augmented with LLM counts — see descriptors.go).
type Descriptors struct {
	Fluency       string `json:"fluency_coherence"`
	Pronunciation string `json:"pronunciation"`
	Lexical       string `json:"lexical_resource"`
	Grammar       string `json:"grammatical_range_accuracy"`
}

// SpeechContext tags the elicitation style, consumed by the fluency rule's
// pause-tolerance multiplier.
type SpeechContext string

const (
	ContextConversational SpeechContext = "conversational"
	ContextNarrative      SpeechContext = "narrative"
	ContextPresentation   SpeechContext = "presentation"
	ContextInterview      SpeechContext = "interview"
)

// PauseTolerance returns the multiplier applied to the long-pause penalty
// threshold for this context. Presentations tolerate longer deliberate
// pauses than a fast back-and-forth conversation.
func (c SpeechContext) PauseTolerance() float64 {
	switch c {
	case ContextPresentation:
		return 1.4
	case ContextInterview:
		return 1.1
	case ContextNarrative:
		return 1.2
	default:
		return 1.0
	}
}

// Valid reports whether c is one of the four recognized contexts.
func (c SpeechContext) Valid() bool {
	switch c {
	case ContextConversational, ContextNarrative, ContextPresentation, ContextInterview:
		return true
	}
	return false
}
