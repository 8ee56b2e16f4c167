package cmd

import (
	"fmt"
	"os"

	"github.com/YoungY620/codeflow/internal"
	"github.com/YoungY620/codeflow/mcp"
	"github.com/YoungY620/codeflow/report"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing the last saved report",
	Long:  `Starts an MCP server on stdio for AI agents to query .codeflow/report.json. Requires a saved report (run 'codeflow watch' or 'codeflow analyze --save' first).`,
	Args:  cobra.NoArgs,
	RunE:  runMcp,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMcp(cmd *cobra.Command, args []string) error {
	workDir, err := resolveWorkDir()
	if err != nil {
		return err
	}
	if _, err := loadConfigAndSetup(workDir); err != nil {
		return err
	}

	stateDir := stateDirPath(workDir)
	if _, err := os.Stat(stateDir); os.IsNotExist(err) {
		return fmt.Errorf("state directory not found: %s\nRun 'codeflow watch' or 'codeflow analyze --save' first", stateDir)
	}
	if _, err := report.Load(stateDir); err != nil {
		internal.LogNotice("Tools will fail until a report is saved: %v", err)
	}

	return mcp.Serve(stateDir, Version)
}
