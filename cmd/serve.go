package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/YoungY620/codeflow/analyzer"
	"github.com/YoungY620/codeflow/internal"
	"github.com/YoungY620/codeflow/web"
	"github.com/spf13/cobra"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for uploads and repository URLs",
	Long: `Serves POST /api/analyze/upload (multipart field "files") and
POST /api/analyze/repo ({"url": "..."}). Each request is analyzed in its own
temporary directory, which is removed once the response is written.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigAndSetup("")
	if err != nil {
		return err
	}
	addr := cfg.Serve.Addr
	if addrFlag != "" {
		addr = addrFlag
	}

	walker, err := newWalker(cfg, "")
	if err != nil {
		return err
	}
	srv := web.NewServer(walker, web.Options{
		MaxUploadBytes: cfg.Serve.MaxUploadMB << 20,
		CloneDepth:     cfg.Serve.CloneDepth,
	})

	analyzer.PrintBanner(cmd.OutOrStdout(), analyzer.BannerOptions{
		WorkDir: "uploads and repository URLs",
		Version: Version,
		Mode:    "serve " + addr,
		Oracle:  oracleLabel(cfg),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = srv.ListenAndServe(ctx, addr)
	internal.LogInfo("Server stopped")
	return err
}
