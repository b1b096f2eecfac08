package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/certcc/cvescan/config"
	"github.com/certcc/cvescan/internal"
	"github.com/spf13/cobra"
)

func mapid() {
	mapidCmd := &cobra.Command{
		Use:   "mapid [OPTIONS] [OWNER/REPO...]",
		Short: `Map repositories to the vulnerability ids they reference`,
		Long: `Examples:
  # Map one repository
  $ cvescan mapid researcher/CVE-2021-44228-poc

  # Map several repositories concurrently
  $ cvescan mapid --workers 8 a/poc1 b/poc2 c/poc3

  # Map a list of repositories from stdin
  $ cat repos.txt | cvescan mapid -`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := config.Ctx
			ctx = context.WithValue(ctx, "output", outfile)
			ctx = context.WithValue(ctx, "skip", skipUpdate)
			ctx = context.WithValue(ctx, "token", ghToken)
			ctx = context.WithValue(ctx, "workers", workers)

			repoNames := args

			if len(args) == 1 && args[0] == "-" {
				repoNames = []string{}
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					if line := scanner.Text(); line != "" {
						repoNames = append(repoNames, line)
					}
				}
			}

			if len(repoNames) < 1 {
				fmt.Println("Require at least 1 repository as OWNER/REPO.")
				os.Exit(1)
			}

			internal.DoMapRepo(ctx, repoNames)
		},
	}

	mapidCmd.Flags().StringVarP(&outfile, "output", "o", "output", "output file location")
	mapidCmd.Flags().StringVar(&ghToken, "token", "", "github api token")
	mapidCmd.Flags().BoolVar(&skipUpdate, "skip", false, "skip the database updating")
	mapidCmd.Flags().IntVar(&workers, "workers", 4, "concurrent fetch workers")

	rootCmd.AddCommand(mapidCmd)
}
