package mcp

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/YoungY620/codeflow/analyzer"
	"github.com/YoungY620/codeflow/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCombined = "Project Understanding: demo\n\n" +
	"// From main.go\n> START\nmain → run\n\n" +
	"// From util.py\n> START\nhelper\n\n" +
	"// From main.go\n> START\nsecond main\n"

func saveSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	doc := report.NewDocument("/src/demo", report.SourcePath, sampleCombined, 1500*time.Millisecond)
	require.NoError(t, report.Save(dir, doc))
	return dir
}

// roundTrip feeds requests, one per line, and decodes every response.
func roundTrip(t *testing.T, stateDir string, requests ...string) []Response {
	t.Helper()
	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	var out bytes.Buffer
	require.NoError(t, NewServer(stateDir, "1.2.3", in, &out).Run())

	var resps []Response
	dec := json.NewDecoder(&out)
	for dec.More() {
		var r Response
		require.NoError(t, dec.Decode(&r))
		resps = append(resps, r)
	}
	return resps
}

// toolText extracts the text content of a tools/call result.
func toolText(t *testing.T, resp Response) (string, bool, string) {
	t.Helper()
	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var res ToolCallResult
	require.NoError(t, json.Unmarshal(data, &res))
	require.Len(t, res.Content, 1)
	return res.Content[0].Text, res.IsError, res.Warning
}

func TestServer_Initialize(t *testing.T) {
	resps := roundTrip(t, t.TempDir(),
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
	)
	require.Len(t, resps, 1, "notifications get no response")

	data, _ := json.Marshal(resps[0].Result)
	var res InitializeResult
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, "codeflow", res.ServerInfo.Name)
	assert.Equal(t, "1.2.3", res.ServerInfo.Version)
	assert.NotNil(t, res.Capabilities.Tools)
}

func TestServer_ToolsList(t *testing.T) {
	resps := roundTrip(t, t.TempDir(), `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.Len(t, resps, 1)

	data, _ := json.Marshal(resps[0].Result)
	var res ToolsListResult
	require.NoError(t, json.Unmarshal(data, &res))
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"codeflow_summary", "codeflow_list_files", "codeflow_get_file"}, names)
}

func TestServer_Summary(t *testing.T) {
	dir := saveSample(t)
	resps := roundTrip(t, dir, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"codeflow_summary","arguments":{}}}`)
	require.Len(t, resps, 1)

	text, isErr, warning := toolText(t, resps[0])
	assert.False(t, isErr)
	assert.Empty(t, warning)

	var res SummaryResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.Equal(t, "Project Understanding: demo", res.Summary)
	assert.Equal(t, "/src/demo", res.Root)
	assert.Equal(t, 3, res.Files)
	assert.NotEmpty(t, res.RunID)
}

func TestServer_ListAndGetFile(t *testing.T) {
	dir := saveSample(t)
	resps := roundTrip(t, dir,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"codeflow_list_files"}}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"codeflow_get_file","arguments":{"file":"main.go"}}}`,
		`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"codeflow_get_file","arguments":{"file":"nope.rs"}}}`,
	)
	require.Len(t, resps, 3)

	text, _, _ := toolText(t, resps[0])
	var list ListFilesResult
	require.NoError(t, json.Unmarshal([]byte(text), &list))
	assert.Equal(t, []string{"main.go", "util.py", "main.go"}, list.Files)

	text, isErr, _ := toolText(t, resps[1])
	require.False(t, isErr)
	var file GetFileResult
	require.NoError(t, json.Unmarshal([]byte(text), &file))
	assert.Equal(t, []string{"> START\nmain → run", "> START\nsecond main"}, file.Analyses)

	text, isErr, _ = toolText(t, resps[2])
	assert.True(t, isErr)
	assert.Contains(t, text, `"nope.rs" not in report`)
	assert.Contains(t, text, "util.py")
}

func TestServer_NoReport(t *testing.T) {
	resps := roundTrip(t, t.TempDir(), `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"codeflow_summary"}}`)
	require.Len(t, resps, 1)

	text, isErr, _ := toolText(t, resps[0])
	assert.True(t, isErr)
	assert.Contains(t, text, "no report saved yet")
}

func TestServer_StaleWarning(t *testing.T) {
	dir := saveSample(t)
	require.NoError(t, analyzer.SetStatus(dir, analyzer.StatusAnalyzing))

	resps := roundTrip(t, dir, `{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":"codeflow_list_files"}}`)
	require.Len(t, resps, 1)
	_, _, warning := toolText(t, resps[0])
	assert.Contains(t, warning, "Data may be stale: analysis in progress")
}

func TestServer_Errors(t *testing.T) {
	resps := roundTrip(t, t.TempDir(),
		`not json`,
		`{"jsonrpc":"2.0","id":9,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":10,"method":"tools/call","params":{"name":"unknown_tool","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":11,"method":"tools/call","params":"bad"}`,
	)
	require.Len(t, resps, 4)

	codes := make([]int, len(resps))
	for i, r := range resps {
		require.NotNil(t, r.Error, "response %d", i)
		codes[i] = r.Error.Code
	}
	assert.Equal(t, []int{-32700, -32601, -32602, -32602}, codes)
	assert.Contains(t, resps[1].Error.Message, "resources/list")
}

func TestServer_LastLineWithoutNewline(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.NoError(t, NewServer(t.TempDir(), "dev", in, &out).Run())
	assert.Contains(t, out.String(), "codeflow_get_file")
}
