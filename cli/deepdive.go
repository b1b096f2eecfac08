package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/certcc/cvescan/config"
	"github.com/certcc/cvescan/internal"
	"github.com/spf13/cobra"
)

func deepdive() {
	deepdiveCmd := &cobra.Command{
		Use:   "deepdive [OPTIONS] OWNER/REPO",
		Short: `Analyze a single repository for exploit evidence`,
		Long: `Examples:
  # Analyze a repository
  $ cvescan deepdive researcher/CVE-2021-44228-poc

  # Analyze without refreshing the CVE database
  $ cvescan deepdive --skip researcher/CVE-2021-44228-poc`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := config.Ctx
			ctx = context.WithValue(ctx, "output", outfile)
			ctx = context.WithValue(ctx, "skip", skipUpdate)
			ctx = context.WithValue(ctx, "token", ghToken)

			if len(args) < 1 {
				fmt.Println("Require a repository as OWNER/REPO.")
				os.Exit(1)
			}

			internal.DoDeepDive(ctx, args[0])
		},
	}

	deepdiveCmd.Flags().StringVarP(&outfile, "output", "o", "output", "output file location")
	deepdiveCmd.Flags().StringVar(&ghToken, "token", "", "github api token")
	deepdiveCmd.Flags().BoolVar(&skipUpdate, "skip", false, "skip the database updating")

	rootCmd.AddCommand(deepdiveCmd)
}
