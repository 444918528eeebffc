package engine

import "fmt"

type criterionKey string

const (
	criterionFluency       criterionKey = "fluency_coherence"
	criterionPronunciation criterionKey = "pronunciation"
	criterionLexical       criterionKey = "lexical_resource"
	criterionGrammar       criterionKey = "grammatical_range_accuracy"
)

// descriptorTable holds the static one-sentence descriptor keyed by
// (criterion, band). Bands below 5.0 or above 9.0 never occur (clamped by
// the scorer); bands between table entries fall back to the nearest
// tier below via descriptorFor.
var descriptorTable = map[criterionKey]map[Band]string{
	criterionFluency: {
		9.0: "Speaks fluently with only rare, content-driven hesitation; coherence is effortless.",
		8.0: "Speaks fluently with very occasional repetition or self-correction.",
		7.0: "Speaks at length without noticeable effort, with occasional loss of coherence.",
		6.0: "Is willing to speak at length but may lose coherence at times due to hesitation or repetition.",
		5.0: "Usually maintains the flow of speech but relies on repetition and self-correction to keep going.",
	},
	criterionPronunciation: {
		9.0: "Uses a full range of pronunciation features with precision and subtlety.",
		8.0: "Uses a wide range of pronunciation features; is easy to understand throughout.",
		7.0: "Shows some effective use of pronunciation features but control is not sustained.",
		6.0: "Uses a range of pronunciation features with mixed control; is generally understood.",
		5.0: "Shows limited control of pronunciation features; mispronunciations reduce clarity at times.",
	},
	criterionLexical: {
		9.0: "Uses vocabulary with full flexibility and precise, natural, and accurate usage.",
		8.0: "Uses a wide vocabulary resource readily and flexibly.",
		7.0: "Uses vocabulary resource flexibly to discuss a variety of topics.",
		6.0: "Has a sufficient vocabulary to discuss topics at length, with some inappropriate word choice.",
		5.0: "Manages to talk about familiar topics but uses vocabulary with limited flexibility.",
	},
	criterionGrammar: {
		9.0: "Uses a full range of structures naturally and accurately.",
		8.0: "Uses a wide range of structures flexibly, with only occasional errors.",
		7.0: "Uses a range of complex structures with some flexibility; errors occasionally occur.",
		6.0: "Uses a mix of simple and complex structures, though with limited flexibility.",
		5.0: "Produces basic sentence forms with reasonable accuracy but limited complexity.",
	},
}

// descriptorFor returns the static sentence for criterion/band, falling
// back to the nearest documented tier at or below the given band.
func descriptorFor(c criterionKey, b Band) string {
	tiers := []Band{9.0, 8.0, 7.0, 6.0, 5.0}
	for _, tier := range tiers {
		if b >= tier {
			if s, ok := descriptorTable[c][tier]; ok {
				return s
			}
		}
	}
	return descriptorTable[c][5.0]
}

// BuildDescriptors builds the `descriptors` block, every field keyed by
// the single overall band (§4.4 "the overall descriptors block uses the
// overall band").
func BuildDescriptors(overall Band) Descriptors {
	return Descriptors{
		Fluency:       descriptorFor(criterionFluency, overall),
		Pronunciation: descriptorFor(criterionPronunciation, overall),
		Lexical:       descriptorFor(criterionLexical, overall),
		Grammar:       descriptorFor(criterionGrammar, overall),
	}
}

// BuildCriterionDescriptors builds the `criterion_descriptors` block: each
// field keyed by that criterion's own band, then augmented with a count
// pulled from the LLM annotation (§4.4).
func BuildCriterionDescriptors(scores CriterionScores, ann *LLMAnnotation) Descriptors {
	if ann == nil {
		ann = EmptyAnnotation()
	}
	fluency := descriptorFor(criterionFluency, scores.Fluency)
	if ann.CoherenceBreakCount > 0 {
		fluency += fmt.Sprintf(" %d coherence break(s) detected.", ann.CoherenceBreakCount)
	}

	pronunciation := descriptorFor(criterionPronunciation, scores.Pronunciation)

	lexical := descriptorFor(criterionLexical, scores.Lexical)
	if ann.AdvancedVocabularyCount > 0 {
		lexical += fmt.Sprintf(" %d instance(s) of advanced vocabulary used.", ann.AdvancedVocabularyCount)
	}
	if ann.WordChoiceErrorCount > 0 {
		lexical += fmt.Sprintf(" %d word choice error(s) identified.", ann.WordChoiceErrorCount)
	}

	grammar := descriptorFor(criterionGrammar, scores.Grammar)
	if ann.GrammarErrorCount > 0 {
		grammar += fmt.Sprintf(" %d grammar error(s) identified.", ann.GrammarErrorCount)
	}

	return Descriptors{
		Fluency:       fluency,
		Pronunciation: pronunciation,
		Lexical:       lexical,
		Grammar:       grammar,
	}
}
