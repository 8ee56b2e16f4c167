package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileName is the report file written inside the state directory.
const FileName = "report.json"

// Source kinds recorded in a Document.
const (
	SourcePath   = "path"
	SourceUpload = "upload"
	SourceRepo   = "repo"
)

// ErrNoReport is returned by Load when no report has been saved yet.
var ErrNoReport = errors.New("no report found")

// Document is the persisted form of one analysis run.
type Document struct {
	RunID       string    `json:"run_id"`
	Root        string    `json:"root"`
	Source      string    `json:"source,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	DurationMs  int64     `json:"duration_ms,omitempty"`
	Report
}

// NewDocument wraps the combined output of a run rooted at root.
func NewDocument(root, source, combined string, took time.Duration) Document {
	return Document{
		RunID:       uuid.NewString(),
		Root:        root,
		Source:      source,
		GeneratedAt: time.Now().UTC(),
		DurationMs:  took.Milliseconds(),
		Report:      Split(combined),
	}
}

// Marshal encodes the document and checks it against the schema.
func (d Document) Marshal() ([]byte, error) {
	if d.Sections == nil {
		d.Sections = []Section{}
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	if res := Validate(data); !res.Valid {
		return nil, fmt.Errorf("report does not match schema:\n%s", FormatValidationErrors(res))
	}
	return data, nil
}

// Save writes the document to <dir>/report.json through a temp file.
func Save(dir string, d Document) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, FileName))
}

// Load reads and validates <dir>/report.json.
func Load(dir string) (Document, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, ErrNoReport
		}
		return Document{}, err
	}
	if res := Validate(data); !res.Valid {
		return Document{}, fmt.Errorf("%s is invalid:\n%s", FileName, FormatValidationErrors(res))
	}

	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("parse %s: %w", FileName, err)
	}
	return d, nil
}
