package cli

import (
	"context"

	"github.com/certcc/cvescan/config"
	"github.com/certcc/cvescan/internal"
	"github.com/spf13/cobra"
)

func summarize() {
	summarizeCmd := &cobra.Command{
		Use:   "summarize",
		Short: `Generate per-CVE summaries of stored repositories`,
		Long: `Examples:
  # Summarize everything found by earlier searches
  $ cvescan summarize

  # Summarize into a specific directory
  $ cvescan summarize -o reports/summaries.json`,
		Args: NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := config.Ctx
			ctx = context.WithValue(ctx, "output", outfile)
			ctx = context.WithValue(ctx, "skip", skipUpdate)

			internal.DoSummaries(ctx)
		},
	}

	summarizeCmd.Flags().StringVarP(&outfile, "output", "o", "output", "output file location")
	summarizeCmd.Flags().BoolVar(&skipUpdate, "skip", false, "skip the database updating")

	rootCmd.AddCommand(summarizeCmd)
}
