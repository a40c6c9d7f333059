package export

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Schema for the results database. One file per run keeps exports
// self-contained and trivially shareable with analysts.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    participant_id  TEXT NOT NULL,
    started_at      TEXT NOT NULL,
    records         INTEGER NOT NULL,
    chain_head      TEXT NOT NULL,
    seal            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    participant_id    TEXT NOT NULL,
    sentence_index    INTEGER NOT NULL,
    word_index        INTEGER NOT NULL,
    sentence_text     TEXT NOT NULL,
    displayed_prefix  TEXT NOT NULL,
    predicted_word    TEXT NOT NULL,
    actual_next_word  TEXT NOT NULL,
    display_ms        REAL NOT NULL,
    input_start_ms    REAL NOT NULL,
    response_time_ms  REAL NOT NULL,
    timing_gap        INTEGER NOT NULL,
    ordering_anomaly  INTEGER NOT NULL,
    simulated         INTEGER NOT NULL,
    created_at        TEXT NOT NULL,
    record_hash       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_step ON results(sentence_index, word_index);
`

// SQLiteSink writes results as a per-run SQLite database.
type SQLiteSink struct {
	Dir string
}

// Write serializes the run to <dir>/results_<participant>_<ts>.db.
func (s *SQLiteSink) Write(run Run) (string, error) {
	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(s.Dir, baseName(run)+".db")
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return "", fmt.Errorf("open results database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return "", fmt.Errorf("create results schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (participant_id, started_at, records, chain_head, seal) VALUES (?, ?, ?, ?, ?)`,
		run.ParticipantID,
		run.StartedAt.Format(time.RFC3339),
		len(run.Records),
		hex.EncodeToString(run.ChainHead[:]),
		hex.EncodeToString(run.Seal[:]),
	); err != nil {
		return "", fmt.Errorf("insert run row: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO results (
        participant_id, sentence_index, word_index, sentence_text,
        displayed_prefix, predicted_word, actual_next_word,
        display_ms, input_start_ms, response_time_ms,
        timing_gap, ordering_anomaly, simulated, created_at, record_hash
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, r := range run.Records {
		if _, err := stmt.Exec(
			r.ParticipantID,
			r.SentenceIndex,
			r.WordIndex,
			r.SentenceText,
			r.DisplayedPrefix,
			r.Predicted,
			r.ActualNext,
			r.DisplayMs,
			r.InputMs,
			r.ResponseMs,
			boolInt(r.TimingGap),
			boolInt(r.OrderingAnomaly),
			boolInt(r.Simulated),
			r.CreatedAt.Format(time.RFC3339Nano),
			hex.EncodeToString(r.Hash[:]),
		); err != nil {
			return "", fmt.Errorf("insert result row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	if err := writeManifest(s.Dir, run); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
