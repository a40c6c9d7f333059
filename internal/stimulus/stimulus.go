// Package stimulus loads the ordered sentence list for a run.
//
// The list may come from CSV/TSV (a "sentence", "text", or "paragraph_text"
// column), plain text (one sentence per line), YAML, or JSON. A missing or
// unreadable file is not fatal: a built-in sample list substitutes so
// startup never halts on stimulus-source failure.
package stimulus

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"predlab/internal/logging"
	"predlab/internal/token"
)

// DefaultSentences is the fallback sample list used when the configured
// stimulus source fails.
var DefaultSentences = []string{
	"내가 좋아하는 바나나가 있다.",
	"오늘은 날씨가 정말 좋다.",
}

// ErrNoSentences is returned when a stimulus file parses but contains no
// usable sentences.
var ErrNoSentences = errors.New("stimulus: no non-empty sentences found")

// List is an ordered, immutable sentence list.
type List struct {
	// Sentences are the raw sentence strings in presentation order.
	Sentences []string

	// Source records where the list came from: a file path or "default".
	Source string
}

// Load reads a stimulus list from path, choosing the parser by extension.
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stimulus file: %w", err)
	}

	var sentences []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		sentences, err = parseDelimited(data, ',')
	case ".tsv":
		sentences, err = parseDelimited(data, '\t')
	case ".yaml", ".yml":
		sentences, err = parseYAML(data)
	case ".json":
		sentences, err = parseJSON(data)
	default:
		sentences, err = parseLines(data), nil
	}
	if err != nil {
		return nil, err
	}

	sentences = clean(sentences)
	if len(sentences) == 0 {
		return nil, ErrNoSentences
	}

	return &List{Sentences: sentences, Source: path}, nil
}

// LoadOrDefault loads path, substituting the built-in sample list on any
// failure. The substitution is logged, never fatal.
func LoadOrDefault(path string, log *logging.Logger) *List {
	if log == nil {
		log = logging.Default()
	}
	if path != "" {
		list, err := Load(path)
		if err == nil {
			return list
		}
		log.Warn("stimulus source failed, substituting default list",
			"path", path, "error", err)
	}
	return &List{Sentences: append([]string(nil), DefaultSentences...), Source: "default"}
}

// Opportunities returns the total prediction opportunities across the list:
// Σ (len(words)-1) over sentences with at least two words.
func (l *List) Opportunities() int {
	total := 0
	for _, s := range l.Sentences {
		total += token.Opportunities(token.Split(s))
	}
	return total
}

// sentenceColumns are accepted CSV/TSV header names, in preference order.
var sentenceColumns = []string{"sentence", "text", "paragraph_text"}

func parseDelimited(data []byte, comma rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse stimulus table: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Column selection: a recognized header picks the column, otherwise
	// the first column is the sentence text.
	col := 0
	start := 0
	for i, name := range rows[0] {
		lower := strings.ToLower(strings.TrimSpace(name))
		for _, want := range sentenceColumns {
			if lower == want {
				col, start = i, 1
				break
			}
		}
		if start == 1 {
			break
		}
	}

	var out []string
	for _, row := range rows[start:] {
		if col < len(row) {
			out = append(out, row[col])
		}
	}
	return out, nil
}

func parseLines(data []byte) []string {
	return strings.Split(string(data), "\n")
}

// yamlDoc accepts either a bare sequence of strings or a mapping with a
// "sentences" key.
type yamlDoc struct {
	Sentences []string `yaml:"sentences" json:"sentences"`
}

func parseYAML(data []byte) ([]string, error) {
	var plain []string
	if err := yaml.Unmarshal(data, &plain); err == nil {
		return plain, nil
	}
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse stimulus YAML: %w", err)
	}
	return doc.Sentences, nil
}

func parseJSON(data []byte) ([]string, error) {
	var plain []string
	if err := json.Unmarshal(data, &plain); err == nil {
		return plain, nil
	}
	var doc yamlDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse stimulus JSON: %w", err)
	}
	return doc.Sentences, nil
}

func clean(sentences []string) []string {
	var out []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// WriteStarter writes a sample stimulus CSV an operator can edit, the
// bootstrap previously done by a helper script.
func WriteStarter(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create stimulus directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("create stimulus file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"sentence"}); err != nil {
		return err
	}
	for _, s := range DefaultSentences {
		if err := w.Write([]string{s}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
