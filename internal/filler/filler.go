// Package filler classifies surface tokens as disfluent fillers and holds
// the stopword set used by the lexical-repetition metric. Pure functions,
// no I/O — mirrors the teacher's package-level compiled-pattern idiom
// (compare the noise-pattern table in the pipeline package this was
// transformed from).
package filler

import (
	"regexp"
	"strings"
)

var coreSet = map[string]bool{
	"um": true, "umm": true, "ummm": true,
	"uh": true, "uhh": true, "uhhh": true,
	"er": true, "err": true, "errr": true,
	"ah": true, "ahh": true, "ahhh": true,
	"eh": true, "ehh": true, "ehhh": true,
	"erm": true, "errm": true, "errmm": true,
	"hmm": true, "hmmm": true, "mmm": true,
	"uuum": true, "uuuh": true, "aaah": true,
}

var elongationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[aeu]h{2,}$`),
	regexp.MustCompile(`^[mn]{2,}$`),
	regexp.MustCompile(`^u+h*m+$`),
	regexp.MustCompile(`^u+h+$`),
	regexp.MustCompile(`^e+r+m*$`),
}

// Stopwords are articles, pronouns, auxiliaries, prepositions, and
// conjunctions excluded from content-word lexical metrics. Disjoint in
// intent from the filler set above: a stopword is a real word, a filler
// is not.
var Stopwords = buildStopwords()

func buildStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the",
		"i", "me", "my", "mine", "myself",
		"you", "your", "yours", "yourself",
		"he", "him", "his", "himself",
		"she", "her", "hers", "herself",
		"it", "its", "itself",
		"we", "us", "our", "ours", "ourselves",
		"they", "them", "their", "theirs", "themselves",
		"am", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "having",
		"do", "does", "did", "doing",
		"will", "would", "shall", "should", "may", "might", "must", "can", "could",
		"in", "on", "at", "by", "for", "with", "about", "against", "between",
		"into", "through", "during", "before", "after", "above", "below",
		"to", "from", "up", "down", "out", "off", "over", "under", "of", "as",
		"and", "but", "or", "nor", "so", "yet", "if", "because", "although",
		"this", "that", "these", "those",
		"there", "here", "then", "than",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsStopword reports whether the normalized token is a stopword.
func IsStopword(normalized string) bool {
	_, ok := Stopwords[normalized]
	return ok
}

// Normalize strips surrounding non-word characters, lowercases, and
// collapses internal whitespace.
func Normalize(token string) string {
	lowered := strings.ToLower(token)
	trimmed := strings.TrimFunc(lowered, func(r rune) bool {
		return !isWordRune(r)
	})
	fields := strings.Fields(trimmed)
	return strings.Join(fields, " ")
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '\''
}

// IsFiller reports whether the already-normalized token is a filler: a
// member of the core lexicon, or a full match against one of the
// elongation patterns.
func IsFiller(normalized string) bool {
	if normalized == "" {
		return false
	}
	if coreSet[normalized] {
		return true
	}
	for _, re := range elongationPatterns {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

// Classify normalizes token and reports whether the result is a filler,
// returning the normalized form alongside the verdict.
func Classify(token string) (normalized string, filler bool) {
	normalized = Normalize(token)
	return normalized, IsFiller(normalized)
}
