// Package report recovers the structure of a combined analysis string and
// persists it as a schema-checked JSON document.
package report

import (
	"strings"
)

// Marker starts each per-file section of the combined analysis output.
const Marker = "// From"

// Report is the summary plus one section per analyzed file, in output order.
type Report struct {
	Summary  string    `json:"summary"`
	Sections []Section `json:"files"`
}

// Section is one "// From <file>" block.
type Section struct {
	File string `json:"file"`
	Body string `json:"analysis"`
}

// Split cuts combined on every occurrence of Marker. Segment 0 is the
// summary; each later segment is a section whose first line names the file.
// Nothing inside a section body is interpreted.
func Split(combined string) Report {
	parts := strings.Split(combined, Marker)
	r := Report{Summary: strings.TrimSpace(parts[0])}
	for _, part := range parts[1:] {
		r.Sections = append(r.Sections, parseSection(part))
	}
	return r
}

func parseSection(part string) Section {
	header, body, _ := strings.Cut(part, "\n")
	return Section{
		File: strings.TrimSpace(header),
		Body: strings.TrimSpace(body),
	}
}

// Combined rebuilds the delimiter string Split accepts.
func (r Report) Combined() string {
	var b strings.Builder
	b.WriteString(r.Summary)
	b.WriteString("\n\n")
	for i, s := range r.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s.Text())
		b.WriteString("\n")
	}
	return b.String()
}

// Text renders the section with its marker line.
func (s Section) Text() string {
	return Marker + " " + s.File + "\n" + s.Body
}

// Files lists section file names in order.
func (r Report) Files() []string {
	files := make([]string, 0, len(r.Sections))
	for _, s := range r.Sections {
		files = append(files, s.File)
	}
	return files
}

// Find returns the first section for file.
func (r Report) Find(file string) (Section, bool) {
	for _, s := range r.Sections {
		if s.File == file {
			return s, true
		}
	}
	return Section{}, false
}
