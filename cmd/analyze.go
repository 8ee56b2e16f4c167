package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YoungY620/codeflow/analyzer"
	"github.com/YoungY620/codeflow/internal"
	"github.com/YoungY620/codeflow/report"
	"github.com/YoungY620/codeflow/source"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	repoFlag   string
	formatFlag string
	outputFlag string
	saveFlag   bool
	styleFlag  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a directory or a git repository once and print the report",
	Long: `Walks the target once, sends every supported file to the oracle, then asks
for a project summary. With --repo the repository is cloned into a temporary
directory that is removed afterwards.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&repoFlag, "repo", "", "git repository URL to clone and analyze instead of --path")
	analyzeCmd.Flags().StringVarP(&formatFlag, "format", "f", "text", "output format: text/json/markdown")
	analyzeCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().BoolVar(&saveFlag, "save", false, "save the report to .codeflow/report.json for the mcp command")
	analyzeCmd.Flags().StringVar(&styleFlag, "style", "", "glamour style for markdown on a terminal (default: auto)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	switch formatFlag {
	case "text", "json", "markdown":
	default:
		return fmt.Errorf("unknown format %q (want text, json or markdown)", formatFlag)
	}
	if repoFlag != "" && cmd.Flags().Changed("path") {
		return fmt.Errorf("--repo and --path are mutually exclusive")
	}

	workDir, err := resolveWorkDir()
	if err != nil {
		return err
	}
	cfg, err := loadConfigAndSetup(workDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if saveFlag {
		stateDir, err := initStateDir(workDir)
		if err != nil {
			return err
		}
		internal.InitHistoryLogger(stateDir, "analyze")
		defer internal.CloseHistoryLogger()
	}

	root, kind := workDir, report.SourcePath
	if repoFlag != "" {
		ws, err := source.Clone(ctx, repoFlag, source.CloneOptions{Depth: cfg.Serve.CloneDepth})
		if err != nil {
			return err
		}
		defer ws.Close()
		root, kind = ws.Dir, report.SourceRepo
	}

	walker, err := newWalker(cfg, root)
	if err != nil {
		return err
	}
	doc, combined, err := runAnalysis(ctx, walker, root, kind)
	if err != nil {
		return err
	}
	if repoFlag != "" {
		doc.Root = repoFlag
	}

	if saveFlag {
		if err := report.Save(stateDirPath(workDir), doc); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		internal.LogNotice("Report %s saved to %s", doc.RunID, stateDirPath(workDir))
	}

	out := cmd.OutOrStdout()
	if outputFlag != "" {
		f, err := os.Create(outputFlag)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return writeReport(out, doc, combined, formatFlag, styleFlag)
}

// runAnalysis walks root once and wraps the combined output in a Document.
func runAnalysis(ctx context.Context, w *analyzer.Walker, root, kind string) (report.Document, string, error) {
	start := time.Now()
	combined, err := w.AnalyzeFolder(ctx, root)
	if err != nil {
		return report.Document{}, "", err
	}
	took := time.Since(start)
	doc := report.NewDocument(root, kind, combined, took)
	internal.LogInfo("Analysis of %s finished in %s (%d files)", root, took.Round(time.Millisecond), len(doc.Sections))
	return doc, combined, nil
}

// writeReport prints doc in the requested format. Markdown is rendered
// with glamour when out is a terminal.
func writeReport(out io.Writer, doc report.Document, combined, format, style string) error {
	switch format {
	case "json":
		data, err := doc.Marshal()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "markdown":
		md := report.Markdown(doc.Report)
		if width, ok := terminalWidth(out); ok {
			rendered, err := report.Render(doc.Report, style, width)
			if err != nil {
				internal.LogError("Failed to render markdown: %v", err)
			} else {
				md = rendered
			}
		}
		_, err := io.WriteString(out, md)
		return err
	default:
		_, err := fmt.Fprintln(out, combined)
		return err
	}
}

// terminalWidth reports the width of out when it is a terminal.
func terminalWidth(out io.Writer) (int, bool) {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return 80, true
	}
	return w, true
}
