package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/YoungY620/codeflow/internal"
)

var (
	ErrEmptyURL    = errors.New("please enter a repository URL")
	ErrInvalidURL  = errors.New("invalid repository URL")
	ErrCloneFailed = errors.New("git clone failed")
)

// CloneOptions tune Clone. Depth 0 clones full history.
type CloneOptions struct {
	GitBinary string
	Depth     int
}

// ValidateRepoURL accepts http(s), ssh, git and scp-style (user@host:path)
// URLs.
func ValidateRepoURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}
	if strings.HasPrefix(raw, "-") {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	if at := strings.Index(raw, "@"); at > 0 && !strings.Contains(raw, "://") {
		if colon := strings.Index(raw[at:], ":"); colon > 1 {
			return raw, nil
		}
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "http", "https", "ssh", "git":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return raw, nil
}

// Clone clones repoURL into a new workspace using the git binary. The
// workspace is removed if the clone fails.
func Clone(ctx context.Context, repoURL string, opts CloneOptions) (*Workspace, error) {
	repoURL, err := ValidateRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	ws, err := NewWorkspace("codeflow-repo-")
	if err != nil {
		return nil, err
	}

	git := opts.GitBinary
	if git == "" {
		git = "git"
	}
	args := []string{"clone", "--quiet"}
	if opts.Depth > 0 {
		args = append(args, fmt.Sprintf("--depth=%d", opts.Depth))
	}
	args = append(args, "--", repoURL, ws.Dir)

	cmd := exec.CommandContext(ctx, git, args...)
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	internal.LogInfo("Cloning %s", repoURL)
	start := time.Now()
	if err := cmd.Run(); err != nil {
		ws.Close()
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrCloneFailed, repoURL, msg)
	}
	internal.LogDebug("Cloned %s in %s", repoURL, time.Since(start).Round(time.Millisecond))
	return ws, nil
}
