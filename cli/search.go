package cli

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/certcc/cvescan/config"
	"github.com/certcc/cvescan/internal"
	"github.com/spf13/cobra"
)

func search() {
	searchCmd := &cobra.Command{
		Use:   "search [OPTIONS] [CVE-ID...]",
		Short: `Search GitHub for PoC repositories`,
		Long: `Examples:
  # Search PoC repositories of a CVE
  $ cvescan search CVE-2021-44228

  # Search several CVEs at once
  $ cvescan search CVE-2022-22963 CVE-2022-22965

  # Search every CVE listed in a file
  $ cvescan search -f cvelist.txt

  # Search the CVEs published in the last 3 days
  $ cvescan search --days 3`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := config.Ctx
			ctx = context.WithValue(ctx, "output", outfile)
			ctx = context.WithValue(ctx, "skip", skipUpdate)
			ctx = context.WithValue(ctx, "token", ghToken)
			ctx = context.WithValue(ctx, "limit", limit)
			ctx = context.WithValue(ctx, "days", days)

			cveIDs := args

			if cveFile != "" {
				fileIDs, err := readCVEFile(cveFile)
				if err != nil {
					log.Printf("Cannot read CVE list %s, error: %v", cveFile, err)
					os.Exit(1)
				}

				cveIDs = append(cveIDs, fileIDs...)
			}

			internal.DoSearch(ctx, cveIDs)
		},
	}

	searchCmd.Flags().StringVarP(&cveFile, "file", "f", "", "path of a CVE id list, one per line")
	searchCmd.Flags().StringVarP(&outfile, "output", "o", "output", "output file location")
	searchCmd.Flags().StringVar(&ghToken, "token", "", "github api token")
	searchCmd.Flags().BoolVar(&skipUpdate, "skip", false, "skip the database updating")
	searchCmd.Flags().IntVar(&limit, "limit", 0, "cap the results per query, 0 means the full search window")
	searchCmd.Flags().IntVar(&days, "days", 7, "without arguments, search CVEs published in the last days")

	rootCmd.AddCommand(searchCmd)
}

func readCVEFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	ids := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		ids = append(ids, line)
	}

	return ids, scanner.Err()
}
