package analyzer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const statusFileName = "status.json"

const (
	StatusIdle      = "idle"
	StatusAnalyzing = "analyzing"
)

// Status is the watcher state persisted next to the saved report.
type Status struct {
	Status  string     `json:"status"`             // "idle" | "analyzing"
	Since   *time.Time `json:"since,omitempty"`    // when analysis started
	LastRun string     `json:"last_run,omitempty"` // run id of the last saved report
}

// SetStatus writes status to <stateDir>/status.json, keeping the last run id.
func SetStatus(stateDir string, status string) error {
	s := GetStatus(stateDir)
	s.Status = status
	s.Since = nil
	if status == StatusAnalyzing {
		now := time.Now()
		s.Since = &now
	}
	return writeStatus(stateDir, s)
}

// SetLastRun records the run id of a freshly saved report and marks the
// watcher idle.
func SetLastRun(stateDir, runID string) error {
	return writeStatus(stateDir, Status{Status: StatusIdle, LastRun: runID})
}

func writeStatus(stateDir string, s Status) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(stateDir, statusFileName), data, 0644)
}

// GetStatus reads <stateDir>/status.json.
// Returns "idle" if the file doesn't exist or is invalid.
func GetStatus(stateDir string) Status {
	data, err := os.ReadFile(filepath.Join(stateDir, statusFileName))
	if err != nil {
		return Status{Status: StatusIdle}
	}

	var s Status
	if err := json.Unmarshal(data, &s); err != nil || s.Status == "" {
		return Status{Status: StatusIdle}
	}
	return s
}
