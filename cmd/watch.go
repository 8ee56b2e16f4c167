package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/YoungY620/codeflow/analyzer"
	"github.com/YoungY620/codeflow/internal"
	"github.com/YoungY620/codeflow/report"
	"github.com/spf13/cobra"
)

var (
	skipScan bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the analysis whenever source files change",
	Long: `Runs an initial analysis, then monitors the directory and re-runs the full
analysis after source files change. Each run is saved to .codeflow/report.json.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&skipScan, "skip-scan", false, "skip initial full analysis")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	workDir, err := resolveWorkDir()
	if err != nil {
		return err
	}

	cfg, err := loadConfigAndSetup(workDir)
	if err != nil {
		return err
	}

	stateDir, err := initStateDir(workDir)
	if err != nil {
		return err
	}
	internal.LogDebug("Initialized state directory: %s", stateDir)

	// Acquire single instance lock
	lockFile, err := analyzer.TryLock(stateDir)
	if err != nil {
		return err
	}
	defer analyzer.Unlock(lockFile)

	internal.InitHistoryLogger(stateDir, "watcher")
	defer internal.CloseHistoryLogger()

	// Ensure status is idle on startup and exit
	if err := analyzer.SetStatus(stateDir, analyzer.StatusIdle); err != nil {
		internal.LogError("Failed to set initial status: %v", err)
	}
	defer func() {
		if err := analyzer.SetStatus(stateDir, analyzer.StatusIdle); err != nil {
			internal.LogError("Failed to reset status on exit: %v", err)
		}
	}()

	walker, err := newWalker(cfg, workDir)
	if err != nil {
		return err
	}

	watcher, err := analyzer.NewWatcher(workDir, cfg.Walk.IgnorePatterns, cfg.Watch.DebounceMs, cfg.Watch.MaxWaitMs,
		func(ctx context.Context, files []string) {
			internal.LogInfo("Triggered with %d changed files", len(files))
			internal.LogDebug("Changed files: %v", files)
			analyzeAndSave(ctx, walker, workDir, stateDir)
		})
	if err != nil {
		return err
	}
	defer watcher.Close()

	analyzer.PrintBanner(cmd.OutOrStdout(), analyzer.BannerOptions{
		WorkDir: workDir,
		Version: Version,
		Mode:    "watch",
		Oracle:  oracleLabel(cfg),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	internal.LogInfo("Watcher started, workDir=%s", workDir)
	if !skipScan {
		watcher.ScanAll()
	} else {
		internal.LogInfo("Skipping initial scan (--skip-scan)")
	}

	err = watcher.Run(ctx)
	internal.LogInfo("Shutting down...")
	return err
}

// analyzeAndSave runs one full analysis of workDir and saves the report,
// keeping status.json in step.
func analyzeAndSave(ctx context.Context, w *analyzer.Walker, workDir, stateDir string) {
	if err := analyzer.SetStatus(stateDir, analyzer.StatusAnalyzing); err != nil {
		internal.LogError("Failed to set status: %v", err)
	}

	doc, _, err := runAnalysis(ctx, w, workDir, report.SourcePath)
	if err != nil {
		internal.LogError("Analysis failed: %v", err)
		if err := analyzer.SetStatus(stateDir, analyzer.StatusIdle); err != nil {
			internal.LogError("Failed to set status: %v", err)
		}
		return
	}
	if err := report.Save(stateDir, doc); err != nil {
		internal.LogError("Failed to save report: %v", err)
		analyzer.SetStatus(stateDir, analyzer.StatusIdle)
		return
	}
	if err := analyzer.SetLastRun(stateDir, doc.RunID); err != nil {
		internal.LogError("Failed to set status: %v", err)
	}
	internal.LogNotice("Report %s saved (%d files)", doc.RunID, len(doc.Sections))
}
