// Package internal provides shared logging utilities for codeflow
package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const historyFileName = ".history"

// HistoryLogger appends JSONL events to .codeflow/.history
type HistoryLogger struct {
	file   *os.File
	mu     sync.Mutex
	seqNum int64
	source string
}

// HistoryEntry represents a single log entry
type HistoryEntry struct {
	Seq       int64  `json:"seq"`
	Timestamp string `json:"ts"`
	Source    string `json:"src"`              // "analyze", "watch", "serve" or "mcp"
	Type      string `json:"type"`             // "request", "response", "error", "info", "debug"
	Method    string `json:"method,omitempty"` // mcp method or oracle command
	ID        any    `json:"id,omitempty"`     // request/response correlation
	Params    any    `json:"params,omitempty"`
	Result    any    `json:"result,omitempty"`
	Error     any    `json:"error,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Message   string `json:"msg,omitempty"`
}

// NewHistoryLogger opens (or creates) the history file in dir
func NewHistoryLogger(dir, source string) (*HistoryLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, historyFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	return &HistoryLogger{file: f, source: source}, nil
}

// Log writes an entry. Safe to call on a nil logger.
func (h *HistoryLogger) Log(entry HistoryEntry) {
	if h == nil || h.file == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seqNum++
	entry.Seq = h.seqNum
	entry.Timestamp = time.Now().Format(time.RFC3339Nano)
	entry.Source = h.source

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = h.file.Write(append(data, '\n'))
}

// LogRequest records an outgoing request (oracle prompt, mcp call)
func (h *HistoryLogger) LogRequest(method string, id, params any) {
	h.Log(HistoryEntry{Type: "request", Method: method, ID: id, Params: params})
}

// LogResponse records the matching response and how long it took
func (h *HistoryLogger) LogResponse(id, result any, errValue any, duration time.Duration) {
	entry := HistoryEntry{Type: "response", ID: id, Duration: duration.String()}
	if errValue != nil {
		entry.Error = errValue
	} else {
		entry.Result = result
	}
	h.Log(entry)
}

// LogError logs an error
func (h *HistoryLogger) LogError(message string, err error) {
	entry := HistoryEntry{Type: "error", Message: message}
	if err != nil {
		entry.Error = err.Error()
	}
	h.Log(entry)
}

// LogInfo logs an informational message
func (h *HistoryLogger) LogInfo(format string, v ...any) {
	h.Log(HistoryEntry{Type: "info", Message: sprintf(format, v...)})
}

// LogDebug logs a debug message
func (h *HistoryLogger) LogDebug(format string, v ...any) {
	h.Log(HistoryEntry{Type: "debug", Message: sprintf(format, v...)})
}

// Close closes the history file
func (h *HistoryLogger) Close() error {
	if h != nil && h.file != nil {
		return h.file.Close()
	}
	return nil
}

func sprintf(format string, v ...any) string {
	if len(v) == 0 {
		return format
	}
	return fmt.Sprintf(format, v...)
}
