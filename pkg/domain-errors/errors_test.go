package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct errors", func(t *testing.T) {
		err := New(CodePaused, "registry is paused")
		assert.True(t, HasCode(err, CodePaused))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		cause := errors.New("row missing")
		err := fmt.Errorf("loading record: %w", Wrap(cause, CodeNotFound, "animal not registered"))
		assert.True(t, HasCode(err, CodeNotFound))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidStatus, CodeOf(New(CodeInvalidStatus, "bad status")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("untagged")))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("unique violation")
	err := Wrap(cause, CodeAlreadyRegistered, "duplicate fingerprint")
	require.ErrorIs(t, err, cause)
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeAlreadyRegistered, http.StatusConflict},
		{CodeUnauthorized, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodePaused, http.StatusLocked},
		{CodeInvalidID, http.StatusBadRequest},
		{CodeInvalidParam, http.StatusBadRequest},
		{CodeInvalidHash, http.StatusBadRequest},
		{CodeMaxTagsExceeded, http.StatusBadRequest},
		{CodeInvalidStatus, http.StatusBadRequest},
		{CodeBadRequest, http.StatusBadRequest},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.code))
		})
	}
}
