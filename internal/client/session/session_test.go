package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	s := NewStore(path)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	want := Session{Username: "alice", Bonuses: 40, UserID: "0190-abc"}
	require.NoError(t, s.Save(want))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice","bonuses":40,"userId":"0190-abc"}`, string(raw))

	got, err = s.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	got, err = s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_GarbageIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	got, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Disabled(t *testing.T) {
	s := NewStore("")
	require.NoError(t, s.Save(Session{Username: "x"}))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, s.Clear())
}
