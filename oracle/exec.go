package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/YoungY620/codeflow/internal"
)

// waitDelay bounds how long Ask waits for output pipes after the context
// ends and the process has been killed.
const waitDelay = 2 * time.Second

// Exec runs the oracle as a subprocess, feeding the prompt on stdin.
type Exec struct {
	command []string
	timeout time.Duration
	dir     string
}

// NewExec returns an Exec for the given argument vector, or DefaultCommand
// when none is given.
func NewExec(command ...string) *Exec {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &Exec{command: append([]string(nil), command...)}
}

// WithTimeout bounds every call. Zero means no timeout.
func (e *Exec) WithTimeout(d time.Duration) *Exec {
	e.timeout = d
	return e
}

// WithDir sets the working directory of the subprocess.
func (e *Exec) WithDir(dir string) *Exec {
	e.dir = dir
	return e
}

// Command returns a copy of the argument vector.
func (e *Exec) Command() []string {
	return append([]string(nil), e.command...)
}

// Ask runs the command once and returns its standard output.
// A non-zero exit yields *ExitError carrying standard error.
func (e *Exec) Ask(ctx context.Context, prompt string) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.command[0], e.command[1:]...)
	cmd.Dir = e.dir
	cmd.Stdin = strings.NewReader(prompt)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	internal.LogDebug("Running oracle: %s (prompt %d bytes)", strings.Join(e.command, " "), len(prompt))
	start := time.Now()
	err := cmd.Run()
	internal.LogDebug("Oracle finished in %s (stdout %d bytes, stderr %d bytes)",
		time.Since(start).Round(time.Millisecond), stdout.Len(), stderr.Len())

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ExitError{
				Command:  e.Command(),
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		return "", fmt.Errorf("run %s: %w", e.command[0], err)
	}
	return stdout.String(), nil
}
