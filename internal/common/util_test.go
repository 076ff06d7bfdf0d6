package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWipeByteArray(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, buf)

	require.NotPanics(t, func() { WipeByteArray(nil) })
}

func TestGenerateRandByteArray(t *testing.T) {
	a := GenerateRandByteArray(16)
	b := GenerateRandByteArray(16)

	require.Len(t, a, 16)
	require.Len(t, b, 16)
	if assert.ObjectsAreEqual(a, b) {
		t.Logf("warning: two GenerateRandByteArray(16) results are identical; extremely unlikely")
	}
	assert.Empty(t, GenerateRandByteArray(0))
}
