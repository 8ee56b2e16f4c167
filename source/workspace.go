// Package source turns uploaded files or a repository URL into a local
// directory that lives for the duration of one analysis.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/YoungY620/codeflow/internal"
)

var (
	ErrNoFiles    = errors.New("no files uploaded")
	ErrUnsafePath = errors.New("unsafe upload path")
)

// Workspace is a temporary directory removed by Close.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh temporary directory.
func NewWorkspace(prefix string) (*Workspace, error) {
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	internal.LogDebug("Created workspace %s", dir)
	return &Workspace{Dir: dir}, nil
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	internal.LogDebug("Removing workspace %s", w.Dir)
	return os.RemoveAll(w.Dir)
}

// Upload is one uploaded file. Name may carry a relative path such as
// "src/app.py".
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Stage writes uploads into a new workspace, recreating their relative
// paths. The workspace is removed again if any file fails.
func Stage(uploads []Upload) (*Workspace, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	ws, err := NewWorkspace("codeflow-upload-")
	if err != nil {
		return nil, err
	}
	for _, u := range uploads {
		if err := ws.write(u); err != nil {
			ws.Close()
			return nil, err
		}
	}
	internal.LogInfo("Staged %d uploaded files into %s", len(uploads), ws.Dir)
	return ws, nil
}

func (w *Workspace) write(u Upload) error {
	dest, err := w.resolve(u.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", u.Name, err)
	}

	src, err := u.Open()
	if err != nil {
		return fmt.Errorf("open upload %s: %w", u.Name, err)
	}
	defer src.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", u.Name, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", u.Name, err)
	}
	return f.Close()
}

// resolve maps an upload name to a path inside the workspace, rejecting
// absolute paths and parent traversal.
func (w *Workspace) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || clean == "." || filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" ||
		clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return filepath.Join(w.Dir, clean), nil
}
