package journal

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/shotty/pkg/resource"
)

func TestJournal_AppendAndRead(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir)
	require.NoError(t, err)

	events := []resource.Event{
		{Action: resource.ActionStop, ResourceID: "i-1", InstanceID: "i-1", Outcome: resource.OutcomeSuccess},
		{Action: resource.ActionCreateSnapshot, ResourceID: "vol-1", InstanceID: "i-1", Outcome: resource.OutcomeFailed, Error: "SnapshotLimitExceeded"},
		{Action: resource.ActionStart, ResourceID: "i-1", InstanceID: "i-1", Outcome: resource.OutcomeSuccess},
	}
	for _, e := range events {
		require.NoError(t, j.Emit(context.Background(), e))
	}
	require.NoError(t, j.Close())

	r, err := NewReader(j.Path())
	require.NoError(t, err)
	defer r.Close()

	for i, want := range events {
		entry, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), entry.Sequence)
		assert.Equal(t, want.Action, entry.Event.Action)
		assert.Equal(t, want.ResourceID, entry.Event.ResourceID)
		assert.Equal(t, want.Outcome, entry.Event.Outcome)
		assert.Equal(t, want.Error, entry.Event.Error)
	}

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReplay_Since(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir)
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	j.now = func() time.Time { return clock }

	require.NoError(t, j.Append(resource.Event{Action: resource.ActionStop, ResourceID: "i-old"}))
	clock = base.Add(time.Hour)
	require.NoError(t, j.Append(resource.Event{Action: resource.ActionStop, ResourceID: "i-new"}))
	require.NoError(t, j.Close())

	var seen []string
	err = Replay(dir, base.Add(30*time.Minute), func(e *Entry) error {
		seen = append(seen, e.Event.ResourceID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"i-new"}, seen)
}

func TestReplay_EmptyDir(t *testing.T) {
	called := false
	err := Replay(t.TempDir(), time.Time{}, func(*Entry) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.False(t, called)
}

func TestReplay_CorruptLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shotty-20240101-000000-1.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json\n"), 0644))

	err := Replay(dir, time.Time{}, func(*Entry) error { return nil })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal entry")
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "shotty-20200101-000000-1.jsonl")
	newPath := filepath.Join(dir, "shotty-20240101-000000-1.jsonl")
	require.NoError(t, os.WriteFile(oldPath, nil, 0644))
	require.NoError(t, os.WriteFile(newPath, nil, 0644))

	old := time.Now().Add(-90 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, old, old))

	removed, err := Prune(dir, time.Now().Add(-30*24*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, []string{oldPath}, removed)
	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, newPath)
}
