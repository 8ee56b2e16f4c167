package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown(t *testing.T) {
	md := Markdown(Split(combined))

	assert.True(t, strings.HasPrefix(md, "### Project Summary\n\nProject Understanding: demo"))
	assert.Contains(t, md, "### Per-File Analysis")
	assert.Contains(t, md, "```text\n// From a.py\n> START\nmain → run\n```")
	assert.Contains(t, md, "```text\n// From c.js\n")
}

func TestMarkdown_Empty(t *testing.T) {
	md := Markdown(Report{})
	assert.Contains(t, md, "_No project summary returned._")
	assert.Contains(t, md, "_No per-file analysis found._")
}

func TestMarkdown_FenceLongerThanBody(t *testing.T) {
	r := Report{Sections: []Section{{File: "x.go", Body: "```go\nfunc main() {}\n```"}}}
	md := Markdown(r)
	assert.Contains(t, md, "````text\n// From x.go\n```go")
}

func TestRender(t *testing.T) {
	out, err := Render(Split(combined), "notty", 80)
	require.NoError(t, err)
	assert.Contains(t, out, "Project Summary")
	assert.Contains(t, out, "// From a.py")
	assert.Contains(t, out, "main → run")
}
