// Package export serializes a run's result records to a row-per-record
// tabular file. Filenames embed the participant identifier and the run
// timestamp so concurrent runs on shared storage never collide.
package export

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"predlab/internal/config"
	"predlab/internal/ledger"
	"predlab/internal/logging"
)

// Run bundles everything a sink needs to write one results file.
type Run struct {
	ParticipantID string
	StartedAt     time.Time
	Records       []ledger.Record
	ChainHead     [32]byte
	Seal          [32]byte
}

// Sink writes a run to storage and returns the path written.
type Sink interface {
	Write(run Run) (string, error)
}

// New returns the sink for the configured export format.
func New(cfg config.ExportConfig) (Sink, error) {
	switch cfg.Format {
	case "csv":
		return &CSVSink{Dir: cfg.Dir}, nil
	case "sqlite":
		return &SQLiteSink{Dir: cfg.Dir}, nil
	default:
		return nil, fmt.Errorf("export: unknown format %q", cfg.Format)
	}
}

// WriteWithFallback writes through the primary sink and, if that fails,
// falls back to a CSV in the working directory so records are never lost
// silently. Both failures together return the primary error.
func WriteWithFallback(primary Sink, run Run, fallback bool, log *logging.Logger) (string, error) {
	if log == nil {
		log = logging.Default()
	}

	path, err := primary.Write(run)
	if err == nil {
		return path, nil
	}
	log.Error("export sink failed", "error", err)
	if !fallback {
		return "", err
	}

	fbPath, fbErr := (&CSVSink{Dir: "."}).Write(run)
	if fbErr != nil {
		log.Error("fallback CSV export failed", "error", fbErr)
		return "", err
	}
	log.Warn("results written via fallback CSV", "path", fbPath)
	return fbPath, nil
}

// baseName builds the shared filename stem: results_<participant>_<ts>.
func baseName(run Run) string {
	return fmt.Sprintf("results_%s_%s", run.ParticipantID, run.StartedAt.Format("20060102_150405"))
}

// manifest is the integrity sidecar written next to every results file.
type manifest struct {
	ParticipantID string `json:"participant_id"`
	StartedAt     string `json:"started_at"`
	Records       int    `json:"records"`
	ChainHead     string `json:"chain_head"`
	Seal          string `json:"seal"`
}

func writeManifest(dir string, run Run) error {
	m := manifest{
		ParticipantID: run.ParticipantID,
		StartedAt:     run.StartedAt.Format(time.RFC3339),
		Records:       len(run.Records),
		ChainHead:     hex.EncodeToString(run.ChainHead[:]),
		Seal:          hex.EncodeToString(run.Seal[:]),
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, baseName(run)+".manifest.json")
	return os.WriteFile(path, data, 0600)
}
