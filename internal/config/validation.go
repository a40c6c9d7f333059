// Package config handles configuration loading and validation for predlab.
package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateParticipant(&c.Participant)...)
	errs = append(errs, validateTiming(&c.Timing)...)
	errs = append(errs, validateExport(&c.Export)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateParticipant(p *ParticipantConfig) ValidationErrors {
	var errs ValidationErrors

	if p.RequireAge {
		if p.MinAge < 0 {
			errs = append(errs, ValidationError{
				Field:   "participant.min_age",
				Message: "must not be negative",
			})
		}
		if p.MaxAge < p.MinAge {
			errs = append(errs, ValidationError{
				Field:   "participant.max_age",
				Message: fmt.Sprintf("must be >= min_age (%d)", p.MinAge),
			})
		}
	}

	return errs
}

func validateTiming(t *TimingConfig) ValidationErrors {
	var errs ValidationErrors

	// Zero settle is allowed for tests and headless runs; negative delays
	// never are.
	for _, f := range []struct {
		name  string
		value int
	}{
		{"timing.settle_ms", t.SettleMs},
		{"timing.input_backup_ms", t.InputBackupMs},
		{"timing.auto_advance_ms", t.AutoAdvanceMs},
		{"timing.isi_ms", t.ISIMs},
	} {
		if f.value < 0 {
			errs = append(errs, ValidationError{
				Field:   f.name,
				Message: "must not be negative",
			})
		}
	}

	return errs
}

func validateExport(e *ExportConfig) ValidationErrors {
	var errs ValidationErrors

	switch e.Format {
	case "csv", "sqlite":
	default:
		errs = append(errs, ValidationError{
			Field:   "export.format",
			Message: fmt.Sprintf("unknown format %q (want csv or sqlite)", e.Format),
		})
	}

	if e.Dir == "" {
		errs = append(errs, ValidationError{
			Field:   "export.dir",
			Message: "must not be empty",
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown level %q", l.Level),
		})
	}

	switch strings.ToLower(l.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown format %q", l.Format),
		})
	}

	if strings.ToLower(l.Output) == "file" && l.FilePath == "" {
		errs = append(errs, ValidationError{
			Field:   "logging.file_path",
			Message: "required when output is \"file\"",
		})
	}

	return errs
}
