package report

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown lays the report out as a summary block followed by one fenced
// text block per file.
func Markdown(r Report) string {
	var b strings.Builder

	b.WriteString("### Project Summary\n\n")
	if strings.TrimSpace(r.Summary) == "" {
		b.WriteString("_No project summary returned._\n\n")
	} else {
		b.WriteString(r.Summary)
		b.WriteString("\n\n")
	}

	b.WriteString("### Per-File Analysis\n\n")
	if len(r.Sections) == 0 {
		b.WriteString("_No per-file analysis found._\n")
		return b.String()
	}
	for _, s := range r.Sections {
		fence := fenceFor(s.Body)
		b.WriteString(fence + "text\n")
		b.WriteString(s.Text())
		b.WriteString("\n" + fence + "\n\n")
	}
	return b.String()
}

// fenceFor returns a backtick fence longer than any run inside body.
func fenceFor(body string) string {
	longest, run := 0, 0
	for _, r := range body {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}

// Render formats the report for a terminal. An empty style picks one from
// the terminal background; otherwise it names a glamour style or style file.
func Render(r Report, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return renderer.Render(Markdown(r))
}
