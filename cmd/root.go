package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	// Version is set by main.go from build flags
	Version = "dev"

	// Global flags
	pathFlag   string
	logLevel   string
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "codeflow",
	Short: "Per-file flow charts and risk notes for a codebase",
	Long: `Codeflow walks a source tree, asks an external chat tool for a flow chart,
security risks and performance bottlenecks of every supported file, and
prefixes the result with a project summary.

Commands:
  analyze    Analyze a directory or a git repository once and print the report
  watch      Re-run the analysis whenever source files change
  serve      Start the HTTP API for uploads and repository URLs
  mcp        Start an MCP server exposing the last saved report
  languages  List the supported file extensions`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&pathFlag, "path", "p", "", "target directory (default: current dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: error/notice/info/debug")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "codeflow.yaml", "config file path")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	Version = v
	rootCmd.Version = v
}

// resolveWorkDir resolves the working directory from the path flag
func resolveWorkDir() (string, error) {
	workDir := pathFlag
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}
