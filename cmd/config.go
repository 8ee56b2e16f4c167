package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/YoungY620/codeflow/oracle"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string       `yaml:"log_level"`
	Oracle   OracleConfig `yaml:"oracle"`
	Walk     WalkConfig   `yaml:"walk"`
	Watch    WatchConfig  `yaml:"watch"`
	Serve    ServeConfig  `yaml:"serve"`
}

type OracleConfig struct {
	Backend string        `yaml:"backend"` // exec | kimi
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"` // 0 = no timeout
	Kimi    AgentConfig   `yaml:"kimi"`
}

type AgentConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type WalkConfig struct {
	IgnorePatterns   []string `yaml:"ignore_patterns"`
	RespectGitignore bool     `yaml:"respect_gitignore"`
}

type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
	MaxWaitMs  int `yaml:"max_wait_ms"`
}

type ServeConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
	CloneDepth  int    `yaml:"clone_depth"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Oracle: OracleConfig{
			Backend: "exec",
			Command: append([]string(nil), oracle.DefaultCommand...),
		},
		Walk: WalkConfig{
			IgnorePatterns: []string{".git", stateDirName},
		},
		Watch: WatchConfig{
			DebounceMs: 2000,
			MaxWaitMs:  30000,
		},
		Serve: ServeConfig{
			Addr:        ":8080",
			MaxUploadMB: 32,
			CloneDepth:  1,
		},
	}
}

// LoadConfig reads path over the defaults. An empty path or a missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// applyDefaults fills fields a file left at their zero value.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Oracle.Backend == "" {
		c.Oracle.Backend = def.Oracle.Backend
	}
	if len(c.Oracle.Command) == 0 {
		c.Oracle.Command = def.Oracle.Command
	}
	if c.Watch.DebounceMs <= 0 {
		c.Watch.DebounceMs = def.Watch.DebounceMs
	}
	if c.Watch.MaxWaitMs <= 0 {
		c.Watch.MaxWaitMs = def.Watch.MaxWaitMs
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = def.Serve.Addr
	}
	if c.Serve.MaxUploadMB <= 0 {
		c.Serve.MaxUploadMB = def.Serve.MaxUploadMB
	}
}

// Validate performs simple sanity checks on the configuration.
func (c *Config) Validate() error {
	switch c.Oracle.Backend {
	case "exec", "kimi":
	default:
		return fmt.Errorf("config: oracle.backend must be exec or kimi, got %q", c.Oracle.Backend)
	}
	if c.Oracle.Timeout < 0 {
		return errors.New("config: oracle.timeout must not be negative")
	}
	if c.Serve.CloneDepth < 0 {
		return errors.New("config: serve.clone_depth must not be negative")
	}
	return nil
}

// OracleSettings converts the oracle section for oracle.New.
func (c *Config) OracleSettings(workDir string) oracle.Config {
	return oracle.Config{
		Backend: c.Oracle.Backend,
		Command: c.Oracle.Command,
		Timeout: c.Oracle.Timeout,
		WorkDir: workDir,
		APIKey:  c.Oracle.Kimi.APIKey,
		Model:   c.Oracle.Kimi.Model,
	}
}

// LoadGitignore reads simple patterns from dir/.gitignore. Comments,
// negations and blank lines are skipped; leading and trailing slashes are
// dropped. A missing file yields nil.
func LoadGitignore(dir string) ([]string, error) {
	f, err := os.Open(filepath.Join(dir, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		line = strings.Trim(line, "/")
		if line == "" {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}

// MergeGitignore appends the .gitignore patterns of dir that are not
// already in walk.ignore_patterns.
func (c *Config) MergeGitignore(dir string) error {
	patterns, err := LoadGitignore(dir)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Walk.IgnorePatterns))
	for _, p := range c.Walk.IgnorePatterns {
		seen[p] = true
	}
	for _, p := range patterns {
		if !seen[p] {
			c.Walk.IgnorePatterns = append(c.Walk.IgnorePatterns, p)
			seen[p] = true
		}
	}
	return nil
}
