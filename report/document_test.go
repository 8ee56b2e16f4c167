package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	d := NewDocument("/src/demo", SourcePath, combined, 1500*time.Millisecond)

	assert.NotEmpty(t, d.RunID)
	assert.Equal(t, "/src/demo", d.Root)
	assert.Equal(t, int64(1500), d.DurationMs)
	assert.Len(t, d.Sections, 2)
	assert.WithinDuration(t, time.Now(), d.GeneratedAt, 5*time.Second)

	other := NewDocument("/src/demo", SourcePath, combined, 0)
	assert.NotEqual(t, d.RunID, other.RunID)
}

func TestSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".codeflow")
	d := NewDocument("/src/demo", SourceRepo, combined, time.Second)

	require.NoError(t, Save(dir, d))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, d.RunID, loaded.RunID)
	assert.Equal(t, d.Report, loaded.Report)
	assert.Equal(t, SourceRepo, loaded.Source)
	assert.True(t, d.GeneratedAt.Equal(loaded.GeneratedAt))

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSave_EmptyReport(t *testing.T) {
	dir := t.TempDir()
	d := NewDocument(dir, SourcePath, "[Summary generation failed] boom\n\n", 0)
	require.NoError(t, Save(dir, d))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, loaded.Sections)
	assert.Equal(t, "[Summary generation failed] boom", loaded.Summary)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestLoad_InvalidDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{"summary": 3, "files": [{"file": ""}]}`), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report.json is invalid")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		valid bool
	}{
		{
			name:  "minimal",
			json:  `{"run_id":"r1","root":"/x","generated_at":"2026-01-02T03:04:05Z","summary":"","files":[]}`,
			valid: true,
		},
		{
			name:  "missing run id",
			json:  `{"root":"/x","generated_at":"2026-01-02T03:04:05Z","summary":"","files":[]}`,
			valid: false,
		},
		{
			name:  "bad source",
			json:  `{"run_id":"r1","root":"/x","source":"ftp","generated_at":"2026-01-02T03:04:05Z","summary":"","files":[]}`,
			valid: false,
		},
		{
			name:  "file without analysis",
			json:  `{"run_id":"r1","root":"/x","generated_at":"2026-01-02T03:04:05Z","summary":"","files":[{"file":"a.py"}]}`,
			valid: false,
		},
		{
			name:  "not json",
			json:  `{`,
			valid: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate([]byte(tt.json))
			assert.Equal(t, tt.valid, res.Valid, FormatValidationErrors(res))
			if !tt.valid {
				assert.NotEmpty(t, FormatValidationErrors(res))
			}
		})
	}
}
