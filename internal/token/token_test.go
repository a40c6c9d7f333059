package token

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		want     []string
	}{
		{"simple", "나는 바나나가 좋다.", []string{"나는", "바나나가", "좋다."}},
		{"leading and trailing space", "  오늘 날씨가 좋다.  ", []string{"오늘", "날씨가", "좋다."}},
		{"internal runs collapse", "나는\t\t학교에   간다", []string{"나는", "학교에", "간다"}},
		{"empty", "", nil},
		{"whitespace only", " \t\n ", nil},
		{"single word", "하나", []string{"하나"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.sentence)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %v, want %v", tt.sentence, got, tt.want)
			}
		})
	}
}

// Tokenization must not depend on how the stimulus file happened to space
// its words: normalized and messy spellings of the same sentence must
// produce the same word sequence.
func TestSplitWhitespaceInvariance(t *testing.T) {
	a := Split("나는 바나나가 좋다.")
	b := Split("  나는\t바나나가  \n좋다.  ")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("whitespace variants tokenized differently: %v vs %v", a, b)
	}
}

func TestPrefix(t *testing.T) {
	words := []string{"나는", "바나나가", "좋다."}

	tests := []struct {
		name    string
		through int
		want    string
	}{
		{"first word", 0, "나는"},
		{"two words", 1, "나는 바나나가"},
		{"full sentence", 2, "나는 바나나가 좋다."},
		{"clamped above", 10, "나는 바나나가 좋다."},
		{"negative", -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Prefix(words, tt.through); got != tt.want {
				t.Errorf("Prefix(%d) = %q, want %q", tt.through, got, tt.want)
			}
		})
	}

	if got := Prefix(nil, 0); got != "" {
		t.Errorf("Prefix(nil, 0) = %q, want empty", got)
	}
}

func TestOpportunities(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		want  int
	}{
		{"empty", nil, 0},
		{"single word", []string{"하나"}, 0},
		{"two words", []string{"나는", "간다"}, 1},
		{"five words", []string{"a", "b", "c", "d", "e"}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Opportunities(tt.words); got != tt.want {
				t.Errorf("Opportunities(%v) = %d, want %d", tt.words, got, tt.want)
			}
		})
	}
}
