package analyzer

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed prompts/*.md
var promptFS embed.FS

var (
	filePrompt    = mustLoadPrompt("file")
	summaryPrompt = mustLoadPrompt("summary")
)

func mustLoadPrompt(name string) *template.Template {
	data, err := promptFS.ReadFile("prompts/" + name + ".md")
	if err != nil {
		panic(fmt.Sprintf("load prompt %s: %v", name, err))
	}
	return template.Must(template.New(name).Parse(string(data)))
}

// FilePromptData fills prompts/file.md.
type FilePromptData struct {
	Language string
	Code     string
}

// SummaryPromptData fills prompts/summary.md.
type SummaryPromptData struct {
	Corpus string
}

// BuildFilePrompt renders the single-file analysis instruction.
func BuildFilePrompt(language, code string) (string, error) {
	return render(filePrompt, FilePromptData{Language: language, Code: code})
}

// BuildSummaryPrompt renders the project summary instruction.
func BuildSummaryPrompt(corpus string) (string, error) {
	return render(summaryPrompt, SummaryPromptData{Corpus: corpus})
}

func render(tpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", tpl.Name(), err)
	}
	return buf.String(), nil
}
