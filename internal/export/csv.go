package export

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CSVSink writes results as a CSV file plus an integrity manifest sidecar.
type CSVSink struct {
	Dir string
}

// csvHeader is the exported column order. Raw timestamp columns are present
// as zero on a timing gap so downstream analysis can filter degraded rows.
var csvHeader = []string{
	"participant",
	"sentence_index",
	"word_index",
	"sentence_text",
	"displayed_prefix",
	"predicted_word",
	"actual_next_word",
	"display_ms",
	"input_start_ms",
	"response_time_ms",
	"timing_gap",
	"ordering_anomaly",
	"simulated",
	"created_at",
	"record_hash",
}

// Write serializes the run to <dir>/results_<participant>_<ts>.csv.
func (s *CSVSink) Write(run Run) (string, error) {
	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(s.Dir, baseName(run)+".csv")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("create results file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}

	for _, r := range run.Records {
		row := []string{
			r.ParticipantID,
			strconv.Itoa(r.SentenceIndex),
			strconv.Itoa(r.WordIndex),
			r.SentenceText,
			r.DisplayedPrefix,
			r.Predicted,
			r.ActualNext,
			formatMillis(r.DisplayMs),
			formatMillis(r.InputMs),
			formatMillis(r.ResponseMs),
			strconv.FormatBool(r.TimingGap),
			strconv.FormatBool(r.OrderingAnomaly),
			strconv.FormatBool(r.Simulated),
			r.CreatedAt.Format(time.RFC3339Nano),
			hex.EncodeToString(r.Hash[:]),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	if err := f.Sync(); err != nil {
		return "", err
	}

	if err := writeManifest(s.Dir, run); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

func formatMillis(m float64) string {
	return strconv.FormatFloat(m, 'f', 3, 64)
}
