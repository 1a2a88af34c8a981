package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	err := New("CACHE_DISABLED", "Cache disabled", http.StatusConflict)
	require.Equal(t, "Cache disabled", err.Error())
	require.Equal(t, http.StatusConflict, err.StatusCode)
}

func TestWithInternalKeepsOriginal(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrInternalServer.WithInternal(cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "disk full")
	// the shared sentinel must not be mutated
	require.Nil(t, ErrInternalServer.Internal)
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	appErr := FromError(ErrAccountLocked)
	require.Equal(t, ErrAccountLocked.Code, appErr.Code)

	wrapped := FromError(errors.New("boom"))
	require.Equal(t, ErrInternalServer.Code, wrapped.Code)
	require.Equal(t, http.StatusInternalServerError, wrapped.StatusCode)
}

func TestWrap(t *testing.T) {
	cause := errors.New("db unreachable")
	err := Wrap(cause, "failed to load testimonials")
	require.ErrorIs(t, err, cause)
	require.Equal(t, http.StatusInternalServerError, err.StatusCode)
}
