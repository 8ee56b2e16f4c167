package analyzer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetStatus(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, SetStatus(dir, StatusIdle))
	assert.FileExists(t, filepath.Join(dir, "status.json"))

	require.NoError(t, SetStatus(dir, StatusAnalyzing))
	status := GetStatus(dir)
	assert.Equal(t, StatusAnalyzing, status.Status)
	require.NotNil(t, status.Since, "Analyzing status should have Since timestamp")
	assert.WithinDuration(t, time.Now(), *status.Since, 5*time.Second)

	require.NoError(t, SetStatus(dir, StatusIdle))
	status = GetStatus(dir)
	assert.Equal(t, StatusIdle, status.Status)
	assert.Nil(t, status.Since, "Idle status should not have Since timestamp")
}

func TestSetLastRun_SurvivesStatusChanges(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, SetLastRun(dir, "run-1"))
	require.NoError(t, SetStatus(dir, StatusAnalyzing))

	status := GetStatus(dir)
	assert.Equal(t, StatusAnalyzing, status.Status)
	assert.Equal(t, "run-1", status.LastRun)
}

func TestGetStatus_Fallbacks(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, StatusIdle, GetStatus(dir).Status, "missing file")

	path := filepath.Join(dir, "status.json")
	for name, content := range map[string]string{
		"invalid json": "invalid json",
		"empty file":   "",
		"no status":    `{"last_run":"x"}`,
	} {
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		assert.Equal(t, StatusIdle, GetStatus(dir).Status, name)
	}
}

func TestSetStatus_DirNotExist(t *testing.T) {
	err := SetStatus(filepath.Join(t.TempDir(), "nonexistent", ".codeflow"), StatusIdle)
	assert.Error(t, err)
}
