package internal

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Log levels: error=0, notice=1, info=2, debug=3
const (
	levelError = iota
	levelNotice
	levelInfo
	levelDebug
)

var (
	logMu    sync.RWMutex
	logLevel = levelInfo

	// Global history logger, mirrors every log line once initialized
	historyLog *HistoryLogger
)

// SetLogLevel sets the console log level. Unknown values fall back to info.
func SetLogLevel(level string) {
	logMu.Lock()
	defer logMu.Unlock()
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logLevel = levelError
	case "notice":
		logLevel = levelNotice
	case "debug":
		logLevel = levelDebug
	default:
		logLevel = levelInfo
	}
}

// GetLogLevel returns the current level name
func GetLogLevel() string {
	logMu.RLock()
	defer logMu.RUnlock()
	return [...]string{"error", "notice", "info", "debug"}[logLevel]
}

// InitHistoryLogger opens <dir>/.history for the given source.
// Failure is logged and otherwise ignored; history is best-effort.
func InitHistoryLogger(dir, source string) {
	h, err := NewHistoryLogger(dir, source)
	if err != nil {
		LogError("Failed to open history log: %v", err)
		return
	}
	logMu.Lock()
	historyLog = h
	logMu.Unlock()
}

// CloseHistoryLogger closes the global history logger
func CloseHistoryLogger() {
	logMu.Lock()
	h := historyLog
	historyLog = nil
	logMu.Unlock()
	if h != nil {
		h.Close()
	}
}

// History returns the global history logger, nil if not initialized
func History() *HistoryLogger {
	logMu.RLock()
	defer logMu.RUnlock()
	return historyLog
}

func enabled(level int) (bool, *HistoryLogger) {
	logMu.RLock()
	defer logMu.RUnlock()
	return logLevel >= level, historyLog
}

func LogError(format string, v ...any) {
	on, h := enabled(levelError)
	if on {
		log.Printf("[ERROR] "+format, v...)
	}
	h.LogError(fmt.Sprintf(format, v...), nil)
}

func LogNotice(format string, v ...any) {
	on, h := enabled(levelNotice)
	if on {
		log.Printf("[NOTICE] "+format, v...)
	}
	h.LogInfo(format, v...)
}

func LogInfo(format string, v ...any) {
	on, h := enabled(levelInfo)
	if on {
		log.Printf("[INFO] "+format, v...)
	}
	h.LogInfo(format, v...)
}

func LogDebug(format string, v ...any) {
	on, h := enabled(levelDebug)
	if on {
		log.Printf("[DEBUG] "+format, v...)
	}
	h.LogDebug(format, v...)
}

// ============== Line Buffer ==============

// LineBuffer buffers streamed text and releases it on newlines or timeout
type LineBuffer struct {
	buffer    strings.Builder
	lastFlush time.Time
	timeout   time.Duration
}

// NewLineBuffer creates a new LineBuffer with the specified timeout
func NewLineBuffer(timeout time.Duration) *LineBuffer {
	return &LineBuffer{
		timeout:   timeout,
		lastFlush: time.Now(),
	}
}

// Write appends text to the buffer
func (lb *LineBuffer) Write(s string) {
	lb.buffer.WriteString(s)
}

// Flush returns content that should be output.
// force=true flushes everything; otherwise only complete lines, or all
// pending text once the timeout has elapsed.
func (lb *LineBuffer) Flush(force bool) string {
	content := lb.buffer.String()
	if content == "" {
		return ""
	}

	if force {
		lb.reset("")
		return strings.TrimRight(content, "\n")
	}

	if idx := strings.LastIndex(content, "\n"); idx != -1 {
		lb.reset(content[idx+1:])
		return content[:idx]
	}

	if time.Since(lb.lastFlush) >= lb.timeout {
		lb.reset("")
		return content
	}

	return ""
}

func (lb *LineBuffer) reset(rest string) {
	lb.buffer.Reset()
	lb.buffer.WriteString(rest)
	lb.lastFlush = time.Now()
}
