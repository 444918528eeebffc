package engine

import "fmt"

// suggestionsFor is a small static mapping from weakness text to 1-3
// remediation suggestions (§4.4 "a small static mapping associates each
// weakness with 1-3 suggestions").
var suggestionsFor = map[string][]string{
	"coherence_break": {
		"Use linking words (however, therefore, in addition) to connect ideas explicitly.",
		"Pause briefly to plan your next point rather than jumping between ideas.",
	},
	"unstable_flow": {
		"Practice speaking in full sentences before adding complexity.",
	},
	"repetition": {
		"Vary your vocabulary rather than repeating the same word or phrase.",
	},
	"high_fillers": {
		"Replace filler words with a brief silent pause while you think.",
		"Record yourself and count filler words to build awareness.",
	},
	"long_pauses": {
		"Practice extended responses on familiar topics to build fluency under time pressure.",
	},
	"monotone": {
		"Vary pitch and stress to emphasize key words.",
	},
	"low_confidence_pronunciation": {
		"Focus on clear articulation of word endings and consonant clusters.",
		"Practice minimal-pair drills for frequently mispronounced sounds.",
	},
	"limited_vocabulary": {
		"Learn topic-specific vocabulary for common IELTS themes.",
		"Practice paraphrasing using synonyms.",
	},
	"word_choice_errors": {
		"Review collocations (word combinations) for key topic vocabulary.",
	},
	"no_advanced_vocabulary": {
		"Incorporate a wider range of precise, less common vocabulary.",
	},
	"grammar_errors": {
		"Review verb tense consistency and subject-verb agreement.",
	},
	"cascading_grammar_failure": {
		"Slow down and build sentences incrementally rather than all at once.",
	},
	"low_complex_accuracy": {
		"Practice forming complex sentences with subordinate clauses before using them in speech.",
	},
}

func suggestFor(key string) []string {
	if s, ok := suggestionsFor[key]; ok {
		return s
	}
	return nil
}

// BuildFeedback assembles the per-criterion and overall feedback blocks
// (§4.4). Population is rule-based off the same thresholds the scorer
// uses: every rule that fires a penalty also contributes a weakness, except
// the grammar error-rate penalty (more than 4.5 errors per 100 content
// words), which has no weakness of its own — grammar errors are listed as a
// weakness only once three or more are counted; every rule that raises a
// ceiling contributes a strength.
func BuildFeedback(scores CriterionScores, mv MetricVector, ann *LLMAnnotation, ctx SpeechContext, isMonotone bool) Feedback {
	if ann == nil {
		ann = EmptyAnnotation()
	}

	fluency := fluencyFeedback(scores.Fluency, mv, ann, ctx)
	pronunciation := pronunciationFeedback(scores.Pronunciation, mv, isMonotone)
	lexical := lexicalFeedback(scores.Lexical, mv, ann)
	grammar := grammarFeedback(scores.Grammar, ann)

	return Feedback{
		Fluency:       fluency,
		Pronunciation: pronunciation,
		Lexical:       lexical,
		Grammar:       grammar,
		Overall:       overallFeedback(scores),
	}
}

func fluencyFeedback(band Band, mv MetricVector, ann *LLMAnnotation, ctx SpeechContext) CriterionFeedback {
	var strengths, weaknesses, suggestions []string

	if mv.WPM >= 110 && mv.WPM <= 170 {
		strengths = append(strengths, "Maintains a natural, comfortable speaking pace.")
	}
	if mv.LongPausesPerMin <= 1.0 {
		strengths = append(strengths, "Keeps hesitation to a minimum.")
	}

	if ann.CoherenceBreakCount >= 1 {
		weaknesses = append(weaknesses, fmt.Sprintf("%d coherence break(s) disrupted the logical flow of ideas.", ann.CoherenceBreakCount))
		suggestions = append(suggestions, suggestFor("coherence_break")...)
	}
	if ann.FlowControl == FlowControlUnstable {
		weaknesses = append(weaknesses, "Flow control was unstable, with frequent restarts or abandoned thoughts.")
		suggestions = append(suggestions, suggestFor("unstable_flow")...)
	}
	if mv.RepetitionRatio > 0.06 {
		weaknesses = append(weaknesses, "Relies noticeably on repeating the same words or phrases.")
		suggestions = append(suggestions, suggestFor("repetition")...)
	}
	if mv.FillersPerMin > 2.0 {
		weaknesses = append(weaknesses, "Filler word usage (um, uh) was frequent enough to affect fluency.")
		suggestions = append(suggestions, suggestFor("high_fillers")...)
	}
	pauseThreshold := 4.0 / ctx.PauseTolerance()
	if mv.LongPausesPerMin > pauseThreshold {
		weaknesses = append(weaknesses, "Long pauses occurred more often than expected for this speaking context.")
		suggestions = append(suggestions, suggestFor("long_pauses")...)
	}

	return CriterionFeedback{
		Criterion: string(criterionFluency), Band: band,
		Strengths: strengths, Weaknesses: weaknesses, Suggestions: dedupe(suggestions),
	}
}

func pronunciationFeedback(band Band, mv MetricVector, isMonotone bool) CriterionFeedback {
	var strengths, weaknesses, suggestions []string

	if mv.MeanWordConfidence >= 0.88 {
		strengths = append(strengths, "Words are consistently clear and easy to understand.")
	}
	if mv.LowConfidenceRatio <= 0.10 {
		strengths = append(strengths, "Very few words were unclear or mispronounced.")
	}

	if mv.LowConfidenceRatio > 0.15 {
		weaknesses = append(weaknesses, "A significant proportion of words were difficult to make out clearly.")
		suggestions = append(suggestions, suggestFor("low_confidence_pronunciation")...)
	}
	if isMonotone {
		weaknesses = append(weaknesses, "Intonation is flat, with little pitch variation across the response.")
		suggestions = append(suggestions, suggestFor("monotone")...)
	}

	return CriterionFeedback{
		Criterion: string(criterionPronunciation), Band: band,
		Strengths: strengths, Weaknesses: weaknesses, Suggestions: dedupe(suggestions),
	}
}

func lexicalFeedback(band Band, mv MetricVector, ann *LLMAnnotation) CriterionFeedback {
	var strengths, weaknesses, suggestions []string

	if mv.VocabRichness >= 0.50 {
		strengths = append(strengths, "Uses a good range of vocabulary across the response.")
	}
	if ann.AdvancedVocabularyCount >= 8 {
		strengths = append(strengths, "Uses advanced vocabulary naturally and frequently.")
	}
	if ann.IdiomaticCount >= 3 {
		strengths = append(strengths, "Uses idiomatic and collocational language effectively.")
	}

	if ann.AdvancedVocabularyCount == 0 {
		weaknesses = append(weaknesses, "No advanced vocabulary was identified in the response.")
		suggestions = append(suggestions, suggestFor("no_advanced_vocabulary")...)
	}
	if ann.WordChoiceErrorCount >= 1 {
		weaknesses = append(weaknesses, fmt.Sprintf("%d word choice error(s) affected precision.", ann.WordChoiceErrorCount))
		suggestions = append(suggestions, suggestFor("word_choice_errors")...)
	}
	if mv.VocabRichness < 0.40 {
		weaknesses = append(weaknesses, "Vocabulary range is limited; similar words are reused often.")
		suggestions = append(suggestions, suggestFor("limited_vocabulary")...)
	}

	return CriterionFeedback{
		Criterion: string(criterionLexical), Band: band,
		Strengths: strengths, Weaknesses: weaknesses, Suggestions: dedupe(suggestions),
	}
}

func grammarFeedback(band Band, ann *LLMAnnotation) CriterionFeedback {
	var strengths, weaknesses, suggestions []string

	if ann.ComplexStructureAccuracy >= 0.80 {
		strengths = append(strengths, "Complex grammatical structures are used accurately.")
	}
	if ann.GrammarErrorCount == 0 {
		strengths = append(strengths, "Speech is largely free of grammatical errors.")
	}

	if ann.GrammarErrorCount >= 3 {
		weaknesses = append(weaknesses, fmt.Sprintf("%d grammar error(s) were identified.", ann.GrammarErrorCount))
		suggestions = append(suggestions, suggestFor("grammar_errors")...)
	}
	if ann.CascadingGrammarFailure {
		weaknesses = append(weaknesses, "A cascading grammar failure obscured meaning in at least one stretch of speech.")
		suggestions = append(suggestions, suggestFor("cascading_grammar_failure")...)
	}
	if ann.ComplexStructureAccuracy < 0.72 {
		weaknesses = append(weaknesses, "Attempts at complex structures are often inaccurate.")
		suggestions = append(suggestions, suggestFor("low_complex_accuracy")...)
	}

	return CriterionFeedback{
		Criterion: string(criterionGrammar), Band: band,
		Strengths: strengths, Weaknesses: weaknesses, Suggestions: dedupe(suggestions),
	}
}

func overallFeedback(scores CriterionScores) OverallFeedback {
	lowest := criterionFluency
	lowestBand := scores.Fluency
	for _, c := range []struct {
		key  criterionKey
		band Band
	}{
		{criterionPronunciation, scores.Pronunciation},
		{criterionLexical, scores.Lexical},
		{criterionGrammar, scores.Grammar},
	} {
		if c.band < lowestBand {
			lowest = c.key
			lowestBand = c.band
		}
	}

	return OverallFeedback{
		Band:    scores.Overall,
		Summary: summaryFor(scores.Overall),
		NextBandTips: NextBandTips{
			Focus:  string(lowest),
			Action: actionFor(lowest),
		},
	}
}

func summaryFor(overall Band) string {
	switch {
	case overall >= 8.0:
		return "An accomplished, natural speaking performance with very few limitations."
	case overall >= 7.0:
		return "A strong speaking performance with occasional, minor limitations."
	case overall >= 6.0:
		return "A competent speaking performance with some noticeable limitations."
	default:
		return "A developing speaking performance with clear areas for improvement."
	}
}

func actionFor(c criterionKey) string {
	switch c {
	case criterionFluency:
		return "Practice speaking at length on familiar topics to reduce hesitation and improve coherence."
	case criterionPronunciation:
		return "Work on clear articulation and natural intonation patterns."
	case criterionLexical:
		return "Expand topic-specific vocabulary and practice using it flexibly."
	default:
		return "Practice constructing a wider range of grammatical structures accurately."
	}
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
