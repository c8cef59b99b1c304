package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
)

var testFormat = Format{Magic: 0x54455354, Version: 2}

type state struct {
	Pending []string `json:"pending"`
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.dat")
	require.NoError(t, Write(path, testFormat, state{Pending: []string{"a", "b"}}))

	var got state
	version, err := Read(path, testFormat, &got)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), version)
	assert.Equal(t, []string{"a", "b"}, got.Pending)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.dat"), testFormat, &state{})
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestReadRejectsDamage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.dat")
	require.NoError(t, Write(path, testFormat, state{Pending: []string{"x"}}))
	good, err := os.ReadFile(path)
	require.NoError(t, err)

	corrupt := append([]byte(nil), good...)
	corrupt[len(corrupt)-2] ^= 0xFF
	require.NoError(t, os.WriteFile(path, corrupt, 0o644))
	_, err = Read(path, testFormat, &state{})
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	require.NoError(t, os.WriteFile(path, good[:HeaderSize-1], 0o644))
	_, err = Read(path, testFormat, &state{})
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	require.NoError(t, os.WriteFile(path, good, 0o644))
	_, err = Read(path, Format{Magic: 0x1, Version: 2}, &state{})
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	_, err = Read(path, Format{Magic: testFormat.Magic, Version: 1}, &state{})
	assert.ErrorIs(t, err, apperrors.ErrPersistence, "newer schema than the reader knows")
}

func TestFailedWriteKeepsPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.dat")
	require.NoError(t, Write(path, testFormat, state{Pending: []string{"old"}}))

	err := Write(path, testFormat, map[string]any{"bad": func() {}})
	require.Error(t, err)

	var got state
	_, err = Read(path, testFormat, &got)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, got.Pending)
}

func TestStartAutosaveFinalSave(t *testing.T) {
	var saves atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := StartAutosave(ctx, "test", time.Hour, func() error {
		saves.Add(1)
		return nil
	})
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("autosave did not stop")
	}
	assert.Equal(t, int32(1), saves.Load())
}
