// Package token splits stimulus sentences into their word units (eojeol for
// Korean stimuli, plain words otherwise).
package token

import "strings"

// Split returns the whitespace-delimited words of sentence in order.
// Surrounding whitespace is trimmed and internal runs of whitespace
// collapse, so Split is invariant under whitespace normalization. An empty
// or whitespace-only sentence yields an empty slice.
func Split(sentence string) []string {
	return strings.Fields(sentence)
}

// Prefix joins words[0..through] into the displayed sentence prefix.
// through is clamped to the slice bounds.
func Prefix(words []string, through int) string {
	if len(words) == 0 || through < 0 {
		return ""
	}
	if through >= len(words) {
		through = len(words) - 1
	}
	return strings.Join(words[:through+1], " ")
}

// Opportunities returns the number of prediction opportunities a tokenized
// sentence contributes: one per word except the last, and none at all for
// sentences of fewer than two words.
func Opportunities(words []string) int {
	if len(words) < 2 {
		return 0
	}
	return len(words) - 1
}
