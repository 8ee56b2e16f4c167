package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/YoungY620/codeflow/analyzer"
	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the supported file extensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, ext := range analyzer.SupportedExtensions() {
			lang, _ := analyzer.LanguageFor("x" + ext)
			fmt.Fprintf(tw, "%s\t%s\n", ext, lang)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
