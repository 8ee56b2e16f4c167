//go:build unix

package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/YoungY620/codeflow/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeGit(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "git")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestRepo(t *testing.T) {
	git := fakeGit(t, `for a; do last=$a; done
mkdir -p "$last/cmd"
echo 'package main' > "$last/cmd/main.go"
`)
	fake := &fakeAnalyzer{}
	srv := NewServer(fake, Options{GitBinary: git, CloneDepth: 1})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze/repo",
		strings.NewReader(`{"url": " https://example.com/org/repo.git "}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, report.SourceRepo, resp.Source)
	assert.Equal(t, "https://example.com/org/repo.git", resp.Root)
	assert.Equal(t, []string{"main.go"}, resp.Files())

	require.Len(t, fake.roots, 1)
	_, err := os.Stat(fake.roots[0])
	assert.True(t, os.IsNotExist(err), "clone directory is removed")
}

func TestRepo_CloneFailure(t *testing.T) {
	git := fakeGit(t, `echo "fatal: repository not found" >&2
exit 128
`)
	fake := &fakeAnalyzer{}
	srv := NewServer(fake, Options{GitBinary: git})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze/repo",
		strings.NewReader(`{"url": "https://example.com/missing.git"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "clone_failed", resp.Code)
	assert.Contains(t, resp.Error, "repository not found")
	assert.Empty(t, fake.roots)
}
