package engine

import "strings"

// keepHangul strips every rune outside the Hangul blocks. Used when the
// stimulus language is Korean and stray Latin input (IME toggles, dead
// keys) should not count as a prediction.
func keepHangul(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isHangul(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isHangul(r rune) bool {
	switch {
	case r >= 0xAC00 && r <= 0xD7A3: // Hangul Syllables
		return true
	case r >= 0x1100 && r <= 0x11FF: // Hangul Jamo
		return true
	case r >= 0x3130 && r <= 0x318F: // Hangul Compatibility Jamo
		return true
	case r >= 0xA960 && r <= 0xA97F: // Hangul Jamo Extended-A
		return true
	case r >= 0xD7B0 && r <= 0xD7FF: // Hangul Jamo Extended-B
		return true
	}
	return false
}
