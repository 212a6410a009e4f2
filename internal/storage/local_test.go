package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveExportWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	ls := NewLocalStorage(dir)

	path, err := ls.SaveExport(context.Background(), "meeting_2024-03-10_standup.txt", "hello")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "meeting_2024-03-10_standup.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = ls.SaveExport(context.Background(), "meeting_2024-03-10_standup.txt", "again")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "again", string(data))
}

func TestSaveExportStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	ls := NewLocalStorage(dir)

	path, err := ls.SaveExport(context.Background(), "../../escape.txt", "x")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.txt"), path)
}

func TestSaveExportRejectsEmptyName(t *testing.T) {
	_, err := NewLocalStorage(t.TempDir()).SaveExport(context.Background(), "  ", "x")
	require.Error(t, err)
}

func TestSaveExportHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalStorage(t.TempDir()).SaveExport(ctx, "a.txt", "x")
	require.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeFilenameCapsLength(t *testing.T) {
	name := strings.Repeat("a", 300) + ".txt"
	got := sanitizeFilename(name)
	assert.Len(t, got, 200)
	assert.True(t, strings.HasSuffix(got, ".txt"))
}
