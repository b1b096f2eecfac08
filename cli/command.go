package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/certcc/cvescan/config"
	"github.com/certcc/cvescan/pkg/vulnlib"
	"github.com/spf13/cobra"
)

var versions = "cvescan version 0.8"

var (
	rootCmd = &cobra.Command{
		Use:   "cvescan [OPTIONS]",
		Short: "Search GitHub for exploit proof-of-concept code",
		Long: `Cvescan searches GitHub for exploit proof-of-concept repositories,
               maps repositories to CVE identifiers and generates per-CVE summaries`,
	}

	cveFile    string
	outfile    string
	ghToken    string
	skipUpdate bool
	upgradeall bool
	limit      int
	days       int
	workers    int
)

func Execute() error {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information and quit",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(versions)
		},
	}

	// Upgrade vulnerability database
	dataupgradeCmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade vulnerability database",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := config.Ctx
			ctx = context.WithValue(ctx, "reset", upgradeall)

			err := vulnlib.Fetch(ctx)
			if err != nil {
				log.Printf("Updating vulnerability database failed, error: %v", err)
				return
			}

			log.Printf(config.Green("Updating vulnerability database success"))
		},
	}

	dataupgradeCmd.Flags().BoolVarP(&upgradeall, "all", "a", false, "Reset the database")

	rootCmd.AddCommand(dataupgradeCmd)
	rootCmd.AddCommand(versionCmd)

	search()
	summarize()
	deepdive()
	mapid()

	return rootCmd.Execute()
}
