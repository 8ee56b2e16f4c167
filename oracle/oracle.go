// Package oracle talks to the external chat tool that produces the analysis
// text. The tool is opaque: a prompt goes in, free-form text comes out.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultCommand is the argument vector used when none is configured.
var DefaultCommand = []string{"q", "chat"}

// Oracle answers a single prompt. Calls are synchronous and single-shot.
type Oracle interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to the Oracle interface.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Ask(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ExitError reports a non-zero exit of the oracle process.
type ExitError struct {
	Command  []string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d: %s",
		strings.Join(e.Command, " "), e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Stderr returns the text to show in place of an answer for err: the
// captured standard error of a failed process, otherwise the error message.
func Stderr(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Stderr
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Config selects and parameterizes a backend.
type Config struct {
	Backend string   // "exec" (default) or "kimi"
	Command []string // exec backend argument vector
	Timeout time.Duration
	WorkDir string
	APIKey  string // kimi backend
	Model   string // kimi backend
}

// New builds the backend named by cfg.Backend.
func New(cfg Config) (Oracle, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "exec":
		return NewExec(cfg.Command...).WithTimeout(cfg.Timeout), nil
	case "kimi":
		return NewKimi(KimiConfig{APIKey: cfg.APIKey, Model: cfg.Model, WorkDir: cfg.WorkDir}), nil
	default:
		return nil, fmt.Errorf("unknown oracle backend %q (want exec or kimi)", cfg.Backend)
	}
}
