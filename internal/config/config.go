// Package config handles configuration loading, validation, and management
// for predlab.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete experiment-runner configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Participant holds intake requirements for demographic fields.
	Participant ParticipantConfig `toml:"participant" json:"participant" yaml:"participant"`

	// Timing holds the delays governing reveal sequencing and stamping.
	Timing TimingConfig `toml:"timing" json:"timing" yaml:"timing"`

	// Stimulus configures the sentence list source.
	Stimulus StimulusConfig `toml:"stimulus" json:"stimulus" yaml:"stimulus"`

	// Export configures the results sink.
	Export ExportConfig `toml:"export" json:"export" yaml:"export"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// UI holds presentation text and window options.
	UI UIConfig `toml:"ui" json:"ui" yaml:"ui"`
}

// ParticipantConfig holds intake requirements. Which fields are required and
// the valid age range are operator policy, not core logic.
type ParticipantConfig struct {
	// RequireLabel requires a non-empty participant label before start.
	RequireLabel bool `toml:"require_label" json:"require_label" yaml:"require_label"`

	// RequireAge requires an age within [MinAge, MaxAge] before start.
	RequireAge bool `toml:"require_age" json:"require_age" yaml:"require_age"`

	// MinAge and MaxAge bound the accepted age when RequireAge is set.
	MinAge int `toml:"min_age" json:"min_age" yaml:"min_age"`
	MaxAge int `toml:"max_age" json:"max_age" yaml:"max_age"`

	// SchemaPath overrides the embedded participant-metadata JSON Schema.
	SchemaPath string `toml:"schema_path" json:"schema_path" yaml:"schema_path"`
}

// TimingConfig holds the reveal-sequencing delays, all in milliseconds.
type TimingConfig struct {
	// SettleMs is the fixed settle delay between the renderer's paint
	// acknowledgment and the display-commit stamp. Under-waiting stamps
	// the display before the word is actually visible and silently
	// inflates every response time, so err toward larger values.
	SettleMs int `toml:"settle_ms" json:"settle_ms" yaml:"settle_ms"`

	// InputBackupMs is the backup input-start trigger delay after
	// display commit, covering runtimes where focus events do not
	// reliably fire.
	InputBackupMs int `toml:"input_backup_ms" json:"input_backup_ms" yaml:"input_backup_ms"`

	// AutoAdvanceMs is the hold on a sentence's terminal word before the
	// next sentence begins.
	AutoAdvanceMs int `toml:"auto_advance_ms" json:"auto_advance_ms" yaml:"auto_advance_ms"`

	// ISIMs is the inter-step pause showing the revealed word after a
	// confirmed prediction.
	ISIMs int `toml:"isi_ms" json:"isi_ms" yaml:"isi_ms"`
}

// StimulusConfig configures the sentence list source.
type StimulusConfig struct {
	// Path is the stimulus list file (.csv, .tsv, .txt, .yaml, .json).
	// When missing or unreadable the built-in sample list substitutes.
	Path string `toml:"path" json:"path" yaml:"path"`

	// Watch reloads the list when the file changes before the run starts.
	Watch bool `toml:"watch" json:"watch" yaml:"watch"`

	// HangulOnly strips non-Hangul runes from predictions before the
	// empty-input check.
	HangulOnly bool `toml:"hangul_only" json:"hangul_only" yaml:"hangul_only"`
}

// ExportConfig configures the results sink.
type ExportConfig struct {
	// Dir is the directory results files are written into.
	Dir string `toml:"dir" json:"dir" yaml:"dir"`

	// Format is "csv" or "sqlite".
	Format string `toml:"format" json:"format" yaml:"format"`

	// FallbackCSV writes a CSV into the working directory when the
	// configured sink fails, so records are never lost silently.
	FallbackCSV bool `toml:"fallback_csv" json:"fallback_csv" yaml:"fallback_csv"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", or "file".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file (when Output is "file").
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// UIConfig holds presentation text and window options.
type UIConfig struct {
	// Fullscreen requests a fullscreen experiment window.
	Fullscreen bool `toml:"fullscreen" json:"fullscreen" yaml:"fullscreen"`

	// PromptText is shown above the prediction input.
	PromptText string `toml:"prompt_text" json:"prompt_text" yaml:"prompt_text"`

	// AdvanceText is shown while the revealed word is held on screen.
	AdvanceText string `toml:"advance_text" json:"advance_text" yaml:"advance_text"`

	// InstructionText is shown on the intake screen.
	InstructionText string `toml:"instruction_text" json:"instruction_text" yaml:"instruction_text"`

	// CompletionText is shown when the run finishes.
	CompletionText string `toml:"completion_text" json:"completion_text" yaml:"completion_text"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := DataDir()

	return &Config{
		Version: Version,
		Participant: ParticipantConfig{
			RequireLabel: true,
			RequireAge:   true,
			MinAge:       18,
			MaxAge:       100,
		},
		Timing: TimingConfig{
			SettleMs:      50,
			InputBackupMs: 10,
			AutoAdvanceMs: 2000,
			ISIMs:         400,
		},
		Stimulus: StimulusConfig{
			Path:       filepath.Join(dir, "stimuli.csv"),
			Watch:      true,
			HangulOnly: false,
		},
		Export: ExportConfig{
			Dir:         filepath.Join(dir, "results"),
			Format:      "csv",
			FallbackCSV: true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "file",
			FilePath: filepath.Join(dir, "predlab.log"),
		},
		UI: UIConfig{
			Fullscreen:      true,
			PromptText:      "다음 어절을 예측하여 입력하세요.",
			AdvanceText:     "다음 단계로 넘어갑니다...",
			InstructionText: "문장의 일부가 제시됩니다. 다음에 올 어절을 예측하여 입력한 뒤 확인을 누르세요.",
			CompletionText:  "실험이 종료되었습니다. 감사합니다.",
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// Load reads configuration from the specified path. If the file doesn't
// exist, it returns the default configuration. TOML, JSON, and YAML are
// supported, chosen by file extension.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file is the common deployment; env overrides
			// still apply.
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the runner writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Export.Dir,
		filepath.Dir(c.Logging.FilePath),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides. Variables are
// prefixed with PREDLAB_.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PREDLAB_STIMULUS_PATH"); v != "" {
		c.Stimulus.Path = v
	}
	if v := os.Getenv("PREDLAB_EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv("PREDLAB_EXPORT_FORMAT"); v != "" {
		c.Export.Format = v
	}
	if v := os.Getenv("PREDLAB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PREDLAB_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("PREDLAB_SETTLE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Timing.SettleMs = ms
		}
	}
}
