package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/YoungY620/codeflow/analyzer"
	"github.com/YoungY620/codeflow/internal"
	"github.com/YoungY620/codeflow/oracle"
)

const stateDirName = ".codeflow"

func stateDirPath(workDir string) string {
	return filepath.Join(workDir, stateDirName)
}

// initStateDir creates <workDir>/.codeflow with a .gitignore for the
// runtime files and returns its path.
func initStateDir(workDir string) (string, error) {
	stateDir := stateDirPath(workDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return "", err
	}

	gitignoreFile := filepath.Join(stateDir, ".gitignore")
	if _, err := os.Stat(gitignoreFile); os.IsNotExist(err) {
		gitignoreContent := `# Runtime files - do not commit
watcher.lock
status.json
.history
`
		internal.LogDebug("Creating %s", gitignoreFile)
		if err := os.WriteFile(gitignoreFile, []byte(gitignoreContent), 0644); err != nil {
			return "", err
		}
	}
	return stateDir, nil
}

// loadConfigAndSetup loads config and sets up logging. Gitignore patterns
// of workDir are merged when walk.respect_gitignore is set.
func loadConfigAndSetup(workDir string) (*Config, error) {
	cfg, err := LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}

	// flag takes precedence over config
	if logLevel != "" {
		internal.SetLogLevel(logLevel)
	} else {
		internal.SetLogLevel(cfg.LogLevel)
	}
	internal.LogDebug("Config loaded: logLevel=%s, backend=%s, debounce=%dms, maxWait=%dms",
		cfg.LogLevel, cfg.Oracle.Backend, cfg.Watch.DebounceMs, cfg.Watch.MaxWaitMs)

	if workDir != "" && cfg.Walk.RespectGitignore {
		if err := cfg.MergeGitignore(workDir); err != nil {
			internal.LogError("Failed to load .gitignore: %v", err)
		}
	}
	internal.LogDebug("Total ignore patterns: %d", len(cfg.Walk.IgnorePatterns))

	return cfg, nil
}

// buildOracle creates the configured backend, recording every exchange in
// the history log.
func buildOracle(cfg *Config, workDir string) (oracle.Oracle, error) {
	o, err := oracle.New(cfg.OracleSettings(workDir))
	if err != nil {
		return nil, err
	}
	return oracle.Record(o, cfg.Oracle.Backend), nil
}

// newWalker wires the oracle and ignore patterns into a folder walker.
func newWalker(cfg *Config, workDir string) (*analyzer.Walker, error) {
	o, err := buildOracle(cfg, workDir)
	if err != nil {
		return nil, err
	}
	return analyzer.NewWalker(o, cfg.Walk.IgnorePatterns), nil
}

// oracleLabel describes the backend for the banner.
func oracleLabel(cfg *Config) string {
	if cfg.Oracle.Backend == "kimi" {
		if cfg.Oracle.Kimi.Model != "" {
			return "kimi (" + cfg.Oracle.Kimi.Model + ")"
		}
		return "kimi"
	}
	return strings.Join(cfg.Oracle.Command, " ")
}
