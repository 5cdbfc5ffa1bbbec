package monitoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUploadJanitorRejectsBadSchedule(t *testing.T) {
	_, err := NewUploadJanitor(t.TempDir(), "every tuesday", time.Hour)
	assert.Error(t, err)
}

func TestSweepRemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "stale.png")
	fresh := filepath.Join(dir, "fresh.png")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0644))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	j, err := NewUploadJanitor(dir, "*/10 * * * *", time.Hour)
	require.NoError(t, err)

	j.Sweep(time.Now())

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale file should be removed")
	_, err = os.Stat(fresh)
	assert.NoError(t, err, "fresh file should survive")
}

func TestSweepIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "keep")
	require.NoError(t, os.Mkdir(sub, 0755))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(sub, old, old))

	j, err := NewUploadJanitor(dir, "*/10 * * * *", time.Hour)
	require.NoError(t, err)

	j.Sweep(time.Now())

	_, err = os.Stat(sub)
	assert.NoError(t, err)
}
