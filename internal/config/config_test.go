package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	if cfg.Timing.SettleMs != 50 {
		t.Errorf("SettleMs = %d, want 50", cfg.Timing.SettleMs)
	}
	if cfg.Timing.InputBackupMs != 10 {
		t.Errorf("InputBackupMs = %d, want 10", cfg.Timing.InputBackupMs)
	}
	if cfg.Timing.AutoAdvanceMs != 2000 {
		t.Errorf("AutoAdvanceMs = %d, want 2000", cfg.Timing.AutoAdvanceMs)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Version != Version {
		t.Errorf("Version = %d, want %d", cfg.Version, Version)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = 1

[timing]
settle_ms = 80
isi_ms = 300

[export]
dir = "/tmp/results"
format = "sqlite"

[stimulus]
hangul_only = true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timing.SettleMs != 80 {
		t.Errorf("SettleMs = %d, want 80", cfg.Timing.SettleMs)
	}
	if cfg.Timing.ISIMs != 300 {
		t.Errorf("ISIMs = %d, want 300", cfg.Timing.ISIMs)
	}
	// Unset sections keep their defaults.
	if cfg.Timing.InputBackupMs != 10 {
		t.Errorf("InputBackupMs = %d, want default 10", cfg.Timing.InputBackupMs)
	}
	if cfg.Export.Format != "sqlite" {
		t.Errorf("Format = %q, want sqlite", cfg.Export.Format)
	}
	if !cfg.Stimulus.HangulOnly {
		t.Error("HangulOnly not applied")
	}
}

func TestLoadJSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(jsonPath, []byte(`{"version":1,"timing":{"settle_ms":70}}`), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timing.SettleMs != 70 {
		t.Errorf("JSON SettleMs = %d, want 70", cfg.Timing.SettleMs)
	}

	yamlPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(yamlPath, []byte("version: 1\ntiming:\n  settle_ms: 60\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timing.SettleMs != 60 {
		t.Errorf("YAML SettleMs = %d, want 60", cfg.Timing.SettleMs)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PREDLAB_EXPORT_FORMAT", "sqlite")
	t.Setenv("PREDLAB_SETTLE_MS", "75")
	t.Setenv("PREDLAB_LOG_LEVEL", "debug")

	// Overrides apply whether or not a config file exists; deployments
	// commonly run with no file at all.
	missing := filepath.Join(t.TempDir(), "nope.toml")
	present := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(present, []byte("version = 1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{missing, present} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Export.Format != "sqlite" {
			t.Errorf("%s: Format = %q, want sqlite", path, cfg.Export.Format)
		}
		if cfg.Timing.SettleMs != 75 {
			t.Errorf("%s: SettleMs = %d, want 75", path, cfg.Timing.SettleMs)
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("%s: Level = %q, want debug", path, cfg.Logging.Level)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative settle", func(c *Config) { c.Timing.SettleMs = -1 }, "timing.settle_ms"},
		{"negative backup", func(c *Config) { c.Timing.InputBackupMs = -5 }, "timing.input_backup_ms"},
		{"unknown export format", func(c *Config) { c.Export.Format = "xlsx" }, "export.format"},
		{"empty export dir", func(c *Config) { c.Export.Dir = "" }, "export.dir"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"inverted age range", func(c *Config) { c.Participant.MinAge = 50; c.Participant.MaxAge = 20 }, "participant.max_age"},
		{"bad version", func(c *Config) { c.Version = 99 }, "version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var errs ValidationErrors
			if !errors.As(err, &errs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %s in %v", tt.field, errs)
			}
		})
	}
}

func TestZeroSettleAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timing.SettleMs = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero settle must validate for headless runs: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Export.Dir = filepath.Join(dir, "results")
	cfg.Logging.FilePath = filepath.Join(dir, "logs", "predlab.log")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	for _, d := range []string{cfg.Export.Dir, filepath.Dir(cfg.Logging.FilePath)} {
		if fi, err := os.Stat(d); err != nil || !fi.IsDir() {
			t.Errorf("directory %s not created: %v", d, err)
		}
	}
}
