package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteError_Message(t *testing.T) {
	assert.Equal(t, "remote error: HTTP 500", (&RemoteError{Status: 500}).Error())
	assert.Equal(t, "remote error: HTTP 418: teapot", (&RemoteError{Status: 418, Message: "teapot"}).Error())

	var re *RemoteError
	wrapped := fmt.Errorf("get: %w", &RemoteError{Status: 502})
	if assert.True(t, errors.As(wrapped, &re)) {
		assert.Equal(t, 502, re.Status)
	}
}

func TestWrappers(t *testing.T) {
	err := Validation("password too short")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "password too short")
	var ve *ValidationError
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &ve)
	assert.Equal(t, "password too short", ve.Reason)

	err = Transport(errors.New("dial tcp: refused"))
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "refused")
}

func TestIsRetryableWrite(t *testing.T) {
	assert.True(t, IsRetryableWrite(fmt.Errorf("put: %w", ErrConflict)))
	assert.True(t, IsRetryableWrite(ErrAlreadyExists))
	assert.False(t, IsRetryableWrite(ErrAuth))
	assert.False(t, IsRetryableWrite(ErrTransport))
	assert.False(t, IsRetryableWrite(nil))
}
