// Package spanmap fuzzy-locates each LLM-reported Span inside the
// transcript's word sequence and attaches start/end timestamps (§4.5).
// The rolling similarity window is Jaro-Winkler, the same fuzzy-matching
// primitive the pack's entity-resolution matcher uses for free-text
// lookups against a known vocabulary.
package spanmap

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/hubenschmidt/speakscore-engine/internal/engine"
)

// matchThreshold is the minimum Jaro-Winkler ratio a candidate window
// must reach to be accepted; spans below this are dropped silently (§4.5).
const matchThreshold = 0.75

// Map locates every span from spans inside words (in document order) and
// returns the subset that matched above threshold, sorted by start time.
func Map(words []engine.WordRecord, spans []engine.Span) []engine.TimestampedSpan {
	var out []engine.TimestampedSpan
	consumed := make([]bool, len(words))

	for _, span := range spans {
		ts, ok := locate(words, consumed, span)
		if !ok {
			continue
		}
		out = append(out, ts)
	}

	sortByStart(out)
	return out
}

func locate(words []engine.WordRecord, consumed []bool, span engine.Span) (engine.TimestampedSpan, bool) {
	target := strings.ToLower(strings.TrimSpace(span.Text))
	if target == "" || len(words) == 0 {
		return engine.TimestampedSpan{}, false
	}
	spanWordCount := len(strings.Fields(target))
	if spanWordCount == 0 {
		return engine.TimestampedSpan{}, false
	}

	bestScore := -1.0
	bestStart, bestEnd := -1, -1

	// A span's word count may not exactly match the transcript window
	// (STT/LLM tokenization can diverge by a word or two), so the rolling
	// window tries spanWordCount and its immediate neighbors.
	for _, windowLen := range candidateWindowLens(spanWordCount) {
		for start := 0; start+windowLen <= len(words); start++ {
			end := start + windowLen - 1
			if anyConsumed(consumed, start, end) {
				continue
			}
			windowText := joinWords(words[start : end+1])
			score := matchr.JaroWinkler(windowText, target, false)
			if score > bestScore {
				bestScore = score
				bestStart, bestEnd = start, end
			}
			// Earliest-tie-break: only overwrite on strictly higher score,
			// so among equal scores the first (earliest) window already
			// recorded is kept.
		}
	}

	if bestScore < matchThreshold || bestStart < 0 {
		return engine.TimestampedSpan{}, false
	}

	for i := bestStart; i <= bestEnd; i++ {
		consumed[i] = true
	}

	start := words[bestStart].Start
	end := words[bestEnd].End
	return engine.TimestampedSpan{
		Span:  span,
		Start: start,
		End:   end,
		MMSS:  formatMMSSRange(start, end),
	}, true
}

func candidateWindowLens(spanWordCount int) []int {
	lens := []int{spanWordCount}
	if spanWordCount > 1 {
		lens = append(lens, spanWordCount-1)
	}
	lens = append(lens, spanWordCount+1)
	return lens
}

func anyConsumed(consumed []bool, start, end int) bool {
	for i := start; i <= end; i++ {
		if consumed[i] {
			return true
		}
	}
	return false
}

func joinWords(words []engine.WordRecord) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = strings.ToLower(w.Word)
	}
	return strings.Join(parts, " ")
}

func sortByStart(spans []engine.TimestampedSpan) {
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j].Start < spans[j-1].Start; j-- {
			spans[j], spans[j-1] = spans[j-1], spans[j]
		}
	}
}

func formatMMSS(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalSec := int(seconds)
	return fmt.Sprintf("%d:%02d", totalSec/60, totalSec%60)
}

func formatMMSSRange(start, end float64) string {
	return formatMMSS(start) + "-" + formatMMSS(end)
}
