package internal

import (
	"context"
	"log"

	"github.com/certcc/cvescan/config"
	"github.com/certcc/cvescan/internal/deepdive"
	"github.com/certcc/cvescan/internal/mapid"
	"github.com/certcc/cvescan/internal/report"
	"github.com/certcc/cvescan/internal/searcher"
	"github.com/certcc/cvescan/internal/summarize"
	"github.com/certcc/cvescan/pkg/gitsearch"
	"github.com/certcc/cvescan/pkg/vulnlib"
)

func githubClient(ctx context.Context) *gitsearch.Client {
	token := config.GithubToken()
	if ctx.Value("token") != nil && ctx.Value("token").(string) != "" {
		token = ctx.Value("token").(string)
	}

	if token == "" {
		log.Printf(config.Yellow("No GitHub token configured, using the unauthenticated rate budget"))
	}

	gh := gitsearch.NewClient(token)

	fileConf := config.LoadFile()
	if fileConf.APIBase != "" {
		gh.SetBaseURL(fileConf.APIBase)
	}
	if fileConf.RequestRate > 0 {
		gh.SetRequestRate(fileConf.RequestRate)
	}

	return gh
}

func updateDB(ctx context.Context) {
	if ctx.Value("skip") != nil && ctx.Value("skip").(bool) {
		return
	}

	if err := vulnlib.Fetch(ctx); err != nil {
		log.Printf("failed to update vulnerability database, error: %v", err)
	}
}

// DoSearch searches GitHub for PoC repositories of the given CVEs
func DoSearch(ctx context.Context, cveIDs []string) {

	updateDB(ctx)

	limit := 0
	if ctx.Value("limit") != nil {
		limit = ctx.Value("limit").(int)
	}

	scanner := searcher.Scanner{}

	err := scanner.Search(ctx, githubClient(ctx), cveIDs, limit)
	if err != nil {
		log.Printf("search error %v", err)
	}

	err = report.ResolveSearchData(ctx, scanner)
	if err != nil {
		log.Printf("report error %v", err)
	}

	err = report.SearchToJson(ctx, scanner)
	if err != nil {
		log.Printf("saving error %v", err)
	}
}

// DoSummaries generates per-CVE summaries from the local database
func DoSummaries(ctx context.Context) {

	updateDB(ctx)

	summarizer := summarize.Summarizer{}

	err := summarizer.Generate(ctx)
	if err != nil {
		log.Printf("summarize error %v", err)
	}

	err = report.ResolveSummaryData(ctx, summarizer)
	if err != nil {
		log.Printf("report error %v", err)
	}

	err = report.SummariesToFiles(ctx, summarizer)
	if err != nil {
		log.Printf("saving error %v", err)
	}
}

// DoDeepDive analyzes one repository for exploit evidence
func DoDeepDive(ctx context.Context, fullName string) {

	updateDB(ctx)

	diver := deepdive.Diver{}

	err := diver.Dive(ctx, githubClient(ctx), fullName)
	if err != nil {
		log.Printf("deep dive error %v", err)
		return
	}

	err = report.ResolveDeepDiveData(ctx, diver)
	if err != nil {
		log.Printf("report error %v", err)
	}

	err = report.DeepDiveToJson(ctx, diver)
	if err != nil {
		log.Printf("saving error %v", err)
	}
}

// DoMapRepo maps repositories to the vulnerability ids they reference
func DoMapRepo(ctx context.Context, repoNames []string) {

	updateDB(ctx)

	workers := 0
	if ctx.Value("workers") != nil {
		workers = ctx.Value("workers").(int)
	}

	mapper := mapid.Mapper{}

	err := mapper.MapRepos(ctx, githubClient(ctx), repoNames, workers)
	if err != nil {
		log.Printf("mapping error %v", err)
	}

	err = report.ResolveMappingData(ctx, mapper)
	if err != nil {
		log.Printf("report error %v", err)
	}

	err = report.MappingToJson(ctx, mapper)
	if err != nil {
		log.Printf("saving error %v", err)
	}
}
