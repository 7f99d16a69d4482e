package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCollectsAllViolations(t *testing.T) {
	v := New()
	v.Require("name", "  ")
	v.Email("email", "nope")
	v.MinLen("password", "abc", 6)

	err := v.Err()
	require.Error(t, err)
	require.Len(t, v.Errs(), 3)
	assert.Contains(t, err.Error(), "name: is required")
	assert.Contains(t, err.Error(), "password: must be at least 6 characters")
}

func TestErrNilWhenClean(t *testing.T) {
	v := New()
	v.Require("name", "fine")
	v.Email("email", "fde@example.com")
	assert.NoError(t, v.Err())
	assert.Empty(t, v.Errs())
}

func TestUUIDSkipsEmpty(t *testing.T) {
	v := New()
	v.UUID("company_id", "")
	assert.NoError(t, v.Err())

	v.UUID("company_id", "not-a-uuid")
	require.Error(t, v.Err())

	v2 := New()
	v2.UUID("company_id", "7c9e6679-7425-40de-944b-e07fc1f90ae7")
	assert.NoError(t, v2.Err())
}

func TestOneOfSkipsEmpty(t *testing.T) {
	v := New()
	v.OneOf("stage", "", "discovery", "pilot")
	assert.NoError(t, v.Err())

	v.OneOf("stage", "pilot", "discovery", "pilot")
	assert.NoError(t, v.Err())

	v.OneOf("stage", "warp", "discovery", "pilot")
	require.Error(t, v.Err())
	assert.Equal(t, "must be one of: discovery, pilot", v.Errs()[0].Message)
}

func TestNumericChecks(t *testing.T) {
	v := New()
	v.Range("pass_rate", 0.5, 0, 1)
	v.Positive("total_tests", 10)
	v.Min("passed_tests", 0, 0)
	assert.NoError(t, v.Err())

	v.Range("pass_rate", 1.2, 0, 1)
	v.Positive("total_tests", 0)
	v.Min("passed_tests", -1, 0)
	assert.Len(t, v.Errs(), 3)
}

func TestDateTime(t *testing.T) {
	v := New()

	parsed := v.DateTime("due_date", "2026-09-15T10:30:00Z")
	require.NoError(t, v.Err())
	assert.Equal(t, time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC), parsed)

	zero := v.DateTime("due_date", "")
	assert.NoError(t, v.Err())
	assert.True(t, zero.IsZero())

	v.DateTime("due_date", "tomorrow")
	assert.Error(t, v.Err())
}
