package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/YoungY620/codeflow/internal"
	"github.com/YoungY620/codeflow/oracle"
)

// SectionMarker starts every per-file section of the combined output.
// Splitting on it is the only parsing contract consumers may rely on.
const SectionMarker = "// From"

// Placeholder and failure texts embedded in the combined output.
const (
	EmptyCodeText        = "<Empty code provided>"
	NoFlowText           = "<No function calls found>"
	FileErrorPrefix      = "Error analyzing code: "
	ReadErrorPrefix      = "Error: "
	SummaryFailurePrefix = "[Summary generation failed] "
)

var errInvalidUTF8 = errors.New("invalid UTF-8 text")

// Walker analyzes a directory tree file by file through an oracle.
type Walker struct {
	oracle         oracle.Oracle
	ignorePatterns []string
}

// NewWalker creates a Walker. Paths with a component matching one of
// ignorePatterns (a name or a glob such as "*.min.js") are skipped.
func NewWalker(o oracle.Oracle, ignorePatterns []string) *Walker {
	return &Walker{oracle: o, ignorePatterns: ignorePatterns}
}

// AnalyzeFolder walks root, analyzes every file with a supported extension,
// then asks for a project summary over all files read. The result is the
// summary followed by one "// From <name>" section per file.
//
// Read and oracle failures are reported inline for the affected file only.
// Errors from the traversal itself, including context cancellation, are
// returned.
func (w *Walker) AnalyzeFolder(ctx context.Context, root string) (string, error) {
	start := time.Now()
	var sections, corpus []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != root && Ignored(relPath(root, path), w.ignorePatterns) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		language, ok := LanguageFor(d.Name())
		if !ok {
			return nil
		}
		name := d.Name()

		code, err := readSource(path)
		if err != nil {
			internal.LogError("Failed to read %s: %v", path, err)
			sections = append(sections, formatSection(name, ReadErrorPrefix+err.Error()))
			return nil
		}
		corpus = append(corpus, "# File: "+name+"\n"+code)

		internal.LogInfo("Analyzing %s (%s)", relPath(root, path), language)
		sections = append(sections, formatSection(name, w.AnalyzeCode(ctx, code, language)))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", root, err)
	}

	internal.LogInfo("Analyzed %d files, generating project summary", len(sections))
	summary := w.Summarize(ctx, strings.Join(corpus, "\n\n"))

	internal.LogDebug("Folder analysis of %s finished in %s", root, time.Since(start).Round(time.Millisecond))
	return summary + "\n\n" + strings.Join(sections, "\n"), nil
}

// AnalyzeCode asks for the flow chart, security risks and performance
// bottlenecks of a single file's code. Failures become an error line.
func (w *Walker) AnalyzeCode(ctx context.Context, code, language string) string {
	if strings.TrimSpace(code) == "" {
		return EmptyCodeText
	}

	prompt, err := BuildFilePrompt(language, code)
	if err != nil {
		return FileErrorPrefix + err.Error()
	}

	out, err := w.oracle.Ask(ctx, prompt)
	if err != nil {
		internal.LogError("Oracle failed on %s code: %v", language, err)
		return FileErrorPrefix + oracle.Stderr(err)
	}

	cleaned := CleanFlowOutput(StripANSI(strings.TrimSpace(out)))
	if cleaned == "" {
		return NoFlowText
	}
	return cleaned
}

// Summarize asks for a project-level summary of corpus. The answer is
// ANSI-stripped only; "> START" lines are left alone.
func (w *Walker) Summarize(ctx context.Context, corpus string) string {
	prompt, err := BuildSummaryPrompt(corpus)
	if err != nil {
		return SummaryFailurePrefix + err.Error()
	}

	out, err := w.oracle.Ask(ctx, prompt)
	if err != nil {
		internal.LogError("Summary generation failed: %v", err)
		return SummaryFailurePrefix + oracle.Stderr(err)
	}
	return StripANSI(strings.TrimSpace(out))
}

func formatSection(name, body string) string {
	return SectionMarker + " " + name + "\n" + body + "\n"
}

// readSource reads a UTF-8 text file with newlines normalized to \n.
func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), errInvalidUTF8)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}

// Ignored reports whether any component of the slash- or OS-separated
// relative path matches one of patterns.
func Ignored(rel string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "" || part == "." {
			continue
		}
		for _, p := range patterns {
			if part == p {
				return true
			}
			if ok, _ := filepath.Match(p, part); ok {
				return true
			}
		}
	}
	return false
}

// relPath returns path relative to root, or path itself when that fails.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
