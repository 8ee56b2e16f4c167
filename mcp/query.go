package mcp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/YoungY620/codeflow/report"
)

// SummaryResult is the result of codeflow_summary
type SummaryResult struct {
	RunID       string    `json:"run_id"`
	Root        string    `json:"root"`
	GeneratedAt time.Time `json:"generated_at"`
	Files       int       `json:"files"`
	Summary     string    `json:"summary"`
}

// ListFilesResult is the result of codeflow_list_files
type ListFilesResult struct {
	Files []string `json:"files"`
}

// GetFileResult is the result of codeflow_get_file. A base name shared by
// several files yields one entry per file, in report order.
type GetFileResult struct {
	File     string   `json:"file"`
	Analyses []string `json:"analyses"`
}

func loadReport(stateDir string) (report.Document, error) {
	doc, err := report.Load(stateDir)
	if errors.Is(err, report.ErrNoReport) {
		return doc, fmt.Errorf("no report saved yet; run 'codeflow watch' or 'codeflow analyze --save' first")
	}
	return doc, err
}

// Summary returns the project summary of the saved report.
func Summary(stateDir string) (*SummaryResult, error) {
	doc, err := loadReport(stateDir)
	if err != nil {
		return nil, err
	}
	return &SummaryResult{
		RunID:       doc.RunID,
		Root:        doc.Root,
		GeneratedAt: doc.GeneratedAt,
		Files:       len(doc.Sections),
		Summary:     doc.Summary,
	}, nil
}

// ListFiles returns the file names of the saved report in section order.
func ListFiles(stateDir string) (*ListFilesResult, error) {
	doc, err := loadReport(stateDir)
	if err != nil {
		return nil, err
	}
	files := doc.Files()
	if files == nil {
		files = []string{}
	}
	return &ListFilesResult{Files: files}, nil
}

// GetFile returns the analysis of every section named file.
func GetFile(stateDir, file string) (*GetFileResult, error) {
	file = strings.TrimSpace(file)
	if file == "" {
		return nil, fmt.Errorf("empty file name")
	}
	doc, err := loadReport(stateDir)
	if err != nil {
		return nil, err
	}

	res := &GetFileResult{File: file}
	for _, s := range doc.Sections {
		if s.File == file {
			res.Analyses = append(res.Analyses, s.Body)
		}
	}
	if len(res.Analyses) == 0 {
		return nil, fmt.Errorf("file %q not in report (available: %s)", file, strings.Join(doc.Files(), ", "))
	}
	return res, nil
}
