package stimulus

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSVWithHeader(t *testing.T) {
	path := writeFile(t, "stimuli.csv", "sentence\n나는 바나나가 좋다.\n오늘 날씨가 좋다.\n")

	list, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Sentences) != 2 {
		t.Fatalf("got %d sentences, want 2", len(list.Sentences))
	}
	if list.Sentences[0] != "나는 바나나가 좋다." {
		t.Errorf("unexpected first sentence: %q", list.Sentences[0])
	}
	if list.Source != path {
		t.Errorf("Source = %q, want %q", list.Source, path)
	}
}

func TestLoadCSVParagraphColumn(t *testing.T) {
	// Column layouts exported from annotation tools put the text in a
	// named column among others.
	path := writeFile(t, "stimuli.csv", "id,paragraph_text\n1,나는 학교에 간다.\n2,비가 온다.\n")

	list, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Sentences) != 2 || list.Sentences[1] != "비가 온다." {
		t.Fatalf("unexpected sentences: %v", list.Sentences)
	}
}

func TestLoadCSVNoHeader(t *testing.T) {
	path := writeFile(t, "stimuli.csv", "나는 바나나가 좋다.\n오늘 날씨가 좋다.\n")

	list, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Sentences) != 2 {
		t.Fatalf("got %d sentences, want 2", len(list.Sentences))
	}
}

func TestLoadTSV(t *testing.T) {
	path := writeFile(t, "stimuli.tsv", "sentence\tnote\n나는 간다\t메모\n")

	list, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Sentences) != 1 || list.Sentences[0] != "나는 간다" {
		t.Fatalf("unexpected sentences: %v", list.Sentences)
	}
}

func TestLoadPlainText(t *testing.T) {
	path := writeFile(t, "stimuli.txt", "나는 바나나가 좋다.\n\n  오늘 날씨가 좋다.  \n")

	list, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	// Blank lines drop, surrounding whitespace trims.
	if len(list.Sentences) != 2 {
		t.Fatalf("got %d sentences, want 2: %v", len(list.Sentences), list.Sentences)
	}
	if list.Sentences[1] != "오늘 날씨가 좋다." {
		t.Errorf("unexpected second sentence: %q", list.Sentences[1])
	}
}

func TestLoadJSON(t *testing.T) {
	// Bare array form.
	path := writeFile(t, "a.json", `["나는 간다", "비가 온다"]`)
	list, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Sentences) != 2 {
		t.Fatalf("bare array: got %d sentences", len(list.Sentences))
	}

	// Object form with a sentences key.
	path = writeFile(t, "b.json", `{"sentences": ["나는 간다"]}`)
	list, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Sentences) != 1 {
		t.Fatalf("object form: got %d sentences", len(list.Sentences))
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "stimuli.yaml", "sentences:\n  - 나는 간다\n  - 비가 온다\n")

	list, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Sentences) != 2 {
		t.Fatalf("got %d sentences, want 2", len(list.Sentences))
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeFile(t, "stimuli.txt", "\n\n  \n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for empty stimulus list")
	}
}

func TestLoadOrDefaultSubstitutes(t *testing.T) {
	list := LoadOrDefault(filepath.Join(t.TempDir(), "missing.csv"), nil)

	if list.Source != "default" {
		t.Errorf("Source = %q, want default", list.Source)
	}
	if len(list.Sentences) != len(DefaultSentences) {
		t.Errorf("got %d sentences, want %d", len(list.Sentences), len(DefaultSentences))
	}
	if list.Opportunities() == 0 {
		t.Error("default list must contribute prediction opportunities")
	}
}

func TestOpportunitiesSkipsShortSentences(t *testing.T) {
	list := &List{Sentences: []string{"하나", "나는 학교에 간다", ""}}

	// Only the three-word sentence contributes: 2 opportunities.
	if got := list.Opportunities(); got != 2 {
		t.Errorf("Opportunities() = %d, want 2", got)
	}
}

func TestWriteStarterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stimuli.csv")

	if err := WriteStarter(path); err != nil {
		t.Fatal(err)
	}
	list, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Sentences) != len(DefaultSentences) {
		t.Fatalf("starter round-trip: got %d sentences, want %d",
			len(list.Sentences), len(DefaultSentences))
	}

	// A second init must not overwrite an edited list.
	if err := WriteStarter(path); err == nil {
		t.Fatal("expected error when starter file already exists")
	}
}
