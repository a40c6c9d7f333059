package session

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"predlab/internal/config"
)

//go:embed schema/participant-v1.schema.json
var participantSchema []byte

// IntakeError is a recoverable participant-intake failure. It blocks start
// and is surfaced to the operator; correcting the input clears it.
type IntakeError struct {
	Field   string
	Message string
}

func (e *IntakeError) Error() string {
	return fmt.Sprintf("intake: %s: %s", e.Field, e.Message)
}

// Validator checks demographics against the participant JSON Schema and the
// operator's intake policy.
type Validator struct {
	schema *jsonschema.Schema
	policy config.ParticipantConfig
}

// NewValidator compiles the participant schema. A schema_path in the policy
// overrides the embedded default.
func NewValidator(policy config.ParticipantConfig) (*Validator, error) {
	data := participantSchema
	url := "participant-v1.schema.json"

	if policy.SchemaPath != "" {
		var err error
		data, err = os.ReadFile(policy.SchemaPath)
		if err != nil {
			return nil, fmt.Errorf("read participant schema: %w", err)
		}
		url = policy.SchemaPath
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile participant schema: %w", err)
	}

	return &Validator{schema: schema, policy: policy}, nil
}

// Validate checks d against the schema and the intake policy. The returned
// error is an *IntakeError for policy failures so the UI can point at the
// offending field.
func (v *Validator) Validate(d Demographics) error {
	// Round-trip through JSON so the schema sees the wire representation.
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode demographics: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("decode demographics: %w", err)
	}
	if err := v.schema.Validate(instance); err != nil {
		return fmt.Errorf("participant metadata: %w", err)
	}

	if v.policy.RequireLabel && strings.TrimSpace(d.Label) == "" {
		return &IntakeError{Field: "label", Message: "participant label is required"}
	}
	if v.policy.RequireAge {
		if d.Age < v.policy.MinAge || d.Age > v.policy.MaxAge {
			return &IntakeError{
				Field:   "age",
				Message: fmt.Sprintf("age must be between %d and %d", v.policy.MinAge, v.policy.MaxAge),
			}
		}
	}

	return nil
}
