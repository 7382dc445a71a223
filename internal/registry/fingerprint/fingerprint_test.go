package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herdbook/internal/registry/models"
	dErrors "herdbook/pkg/domain-errors"
)

func TestCompute_Deterministic(t *testing.T) {
	a := Compute("Holstein", "Cow", "female", 1692921600, "Farm A")
	b := Compute("Holstein", "Cow", "female", 1692921600, "Farm A")
	assert.Equal(t, a, b)
}

func TestCompute_FieldBoundariesAreUnambiguous(t *testing.T) {
	// The length prefix must keep adjacent fields from bleeding into each
	// other: "ab"+"c" and "a"+"bc" concatenate identically without it.
	a := Compute("ab", "c", "x", 0, "")
	b := Compute("a", "bc", "x", 0, "")
	assert.NotEqual(t, a, b)
}

func TestCompute_EveryFieldParticipates(t *testing.T) {
	base := Compute("Holstein", "Cow", "female", 1692921600, "Farm A")

	tests := []struct {
		name  string
		other models.Fingerprint
	}{
		{"breed", Compute("Jersey", "Cow", "female", 1692921600, "Farm A")},
		{"species", Compute("Holstein", "Goat", "female", 1692921600, "Farm A")},
		{"gender", Compute("Holstein", "Cow", "male", 1692921600, "Farm A")},
		{"birth date", Compute("Holstein", "Cow", "female", 1692921601, "Farm A")},
		{"location", Compute("Holstein", "Cow", "female", 1692921600, "Farm B")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, tt.other)
		})
	}
}

func TestParseFingerprint(t *testing.T) {
	t.Run("round trips hex encoding", func(t *testing.T) {
		fp := Compute("Holstein", "Cow", "female", 1692921600, "Farm A")
		parsed, err := models.ParseFingerprint(fp.Hex())
		require.NoError(t, err)
		assert.Equal(t, fp, parsed)
	})

	t.Run("rejects non-hex input", func(t *testing.T) {
		_, err := models.ParseFingerprint("not-hex")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidHash))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := models.ParseFingerprint("deadbeef")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidHash))
	})
}
