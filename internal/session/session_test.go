package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predlab/internal/clock"
	"predlab/internal/config"
)

func TestNewSessionID(t *testing.T) {
	s, err := New(Demographics{Label: "P001", Age: 25})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(s.ID, "P001-"), "ID = %q", s.ID)
	assert.Equal(t, "P001", s.Participant.Label)
	assert.NotEqual(t, [32]byte{}, s.Seed)

	// IDs embed a random component so concurrent runs cannot collide.
	s2, err := New(Demographics{Label: "P001", Age: 25})
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, s2.ID)
}

func TestSessionIDSanitizesLabel(t *testing.T) {
	s, err := New(Demographics{Label: "P 01/한글!"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "P_01____"), "ID = %q", s.ID)

	s, err = New(Demographics{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "P000-"), "ID = %q", s.ID)
}

func TestSessionStartOnce(t *testing.T) {
	s, err := New(Demographics{Label: "P001"})
	require.NoError(t, err)

	clk := clock.NewManual(1234.5)
	assert.False(t, s.Started())
	require.NoError(t, s.Start(clk))
	assert.True(t, s.Started())
	assert.Equal(t, 1234.5, s.StartMillis())

	assert.ErrorIs(t, s.Start(clk), ErrAlreadyStarted)
}

func intakePolicy() config.ParticipantConfig {
	return config.ParticipantConfig{
		RequireLabel: true,
		RequireAge:   true,
		MinAge:       18,
		MaxAge:       100,
	}
}

func TestValidateAccepts(t *testing.T) {
	v, err := NewValidator(intakePolicy())
	require.NoError(t, err)

	require.NoError(t, v.Validate(Demographics{
		Label:          "P001",
		Age:            25,
		Sex:            "여성",
		Handedness:     "right",
		NativeLanguage: "한국어",
	}))
}

func TestValidateRequiresLabel(t *testing.T) {
	v, err := NewValidator(intakePolicy())
	require.NoError(t, err)

	err = v.Validate(Demographics{Label: "  ", Age: 25})
	require.Error(t, err)

	var ie *IntakeError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "label", ie.Field)
}

func TestValidateAgeRange(t *testing.T) {
	v, err := NewValidator(intakePolicy())
	require.NoError(t, err)

	for _, age := range []int{0, 17, 101} {
		err := v.Validate(Demographics{Label: "P001", Age: age})
		var ie *IntakeError
		require.ErrorAs(t, err, &ie, "age %d must be rejected", age)
		assert.Equal(t, "age", ie.Field)
	}

	assert.NoError(t, v.Validate(Demographics{Label: "P001", Age: 18}))
	assert.NoError(t, v.Validate(Demographics{Label: "P001", Age: 100}))
}

func TestValidateSchemaEnum(t *testing.T) {
	v, err := NewValidator(intakePolicy())
	require.NoError(t, err)

	err = v.Validate(Demographics{Label: "P001", Age: 25, Handedness: "both"})
	require.Error(t, err)
	// Schema failures are not intake policy errors; they carry no field.
	var ie *IntakeError
	assert.False(t, errors.As(err, &ie))
}

func TestValidateOptionalPolicy(t *testing.T) {
	v, err := NewValidator(config.ParticipantConfig{})
	require.NoError(t, err)

	// With nothing required, a bare session is acceptable.
	assert.NoError(t, v.Validate(Demographics{}))
}
