package report

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/certcc/cvescan/config"
	"github.com/certcc/cvescan/internal/deepdive"
	"github.com/certcc/cvescan/internal/mapid"
	"github.com/certcc/cvescan/internal/searcher"
	"github.com/certcc/cvescan/internal/summarize"

	"github.com/olekukonko/tablewriter"
)

// ResolveSearchData print the result of the GitHub search
func ResolveSearchData(ctx context.Context, s searcher.Scanner) error {

	high, medium, low := 0, 0, 0

	for _, h := range s.Hits {
		switch h.Confidence {
		case "high":
			high += 1
		case "medium":
			medium += 1
		case "low":
			low += 1
		default:
			// ignore
		}
	}

	fmt.Printf("\nDiscovered %s candidate repositories | "+
		"High: %s Medium: %s Low: %s\n\n",
		config.Yellow(len(s.Hits)),
		config.Red(high),
		config.Yellow(medium),
		config.Green(low))

	if len(s.Hits) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)

	table.SetHeader([]string{"ID", "Repository", "Stars", "CVEID", "Confidence", "Pushed", "Description"})
	table.SetRowLine(true)
	table.SetAutoMergeCellsByColumnIndex([]int{3})

	for i, h := range s.Hits {
		table.Append([]string{
			strconv.Itoa(i + 1), h.FullName,
			strconv.Itoa(h.Stars), h.CVEID,
			judgeConfidence(h.Confidence),
			h.PushedAt.Format("2006-01-02"),
			limitDesc(h.Description),
		})
	}

	table.Render()

	return nil
}

// ResolveSummaryData print the per-CVE summaries
func ResolveSummaryData(ctx context.Context, s summarize.Summarizer) error {

	fmt.Printf("\nSummarized %s CVEs\n\n", config.Yellow(len(s.Summaries)))

	if len(s.Summaries) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)

	table.SetHeader([]string{"ID", "CVEID", "Severity", "Score", "PoCs", "Stars", "First PoC", "Days"})
	table.SetRowLine(true)

	for i, c := range s.Summaries {
		days := "-"
		if c.FirstPoC != "" && c.PublishDate != "" {
			days = strconv.Itoa(c.DaysToPoC)
		}

		table.Append([]string{
			strconv.Itoa(i + 1), c.CVEID,
			judgeSeverity(c.Severity),
			fmt.Sprintf("%.1f", c.Score),
			strconv.Itoa(c.RepoCount),
			strconv.Itoa(c.TotalStars),
			c.FirstPoC, days,
		})
	}

	table.Render()

	return nil
}

// ResolveDeepDiveData print the analysis of a single repository
func ResolveDeepDiveData(ctx context.Context, d deepdive.Diver) error {

	r := d.Report

	fmt.Printf("\n%s | Stars: %s Forks: %s Files: %s | Verdict: %s (score %s)\n",
		r.FullName,
		config.Yellow(r.Stars),
		config.Yellow(r.Forks),
		config.Yellow(r.FileCount),
		judgeConfidence(r.Confidence),
		config.Yellow(r.Score))

	if len(r.Languages) > 0 {
		langs := []string{}
		for l := range r.Languages {
			langs = append(langs, l)
		}
		sort.Slice(langs, func(i, j int) bool {
			return r.Languages[langs[i]] > r.Languages[langs[j]]
		})
		fmt.Printf("Languages: %s\n", strings.Join(langs, ", "))
	}

	if len(r.CVEIDs) > 0 {
		fmt.Printf("Referenced CVEs: %s\n", strings.Join(r.CVEIDs, ", "))
	}

	if len(r.KnownCVEs) > 0 {
		fmt.Printf("Known to NVD: %s\n", config.Pink(strings.Join(r.KnownCVEs, ", ")))
	}

	if r.Truncated {
		fmt.Printf("%s\n", config.Yellow("File tree truncated, indicator scan is partial"))
	}

	if len(r.Indicators) == 0 {
		return nil
	}

	fmt.Printf("\nIndicators:\n")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Path", "Keyword", "Weight"})
	table.SetRowLine(true)
	table.SetAutoMergeCellsByColumnIndex([]int{1})

	for i, ind := range r.Indicators {
		table.Append([]string{
			strconv.Itoa(i + 1), ind.Path, ind.Keyword, strconv.Itoa(ind.Weight),
		})
	}

	table.Render()

	return nil
}

// ResolveMappingData print the repository to CVE mapping
func ResolveMappingData(ctx context.Context, m mapid.Mapper) error {

	mapped := 0
	for _, r := range m.Results {
		if len(r.IDs) > 0 {
			mapped += 1
		}
	}

	fmt.Printf("\nMapped %s of %s repositories to vulnerability ids\n\n",
		config.Yellow(mapped),
		config.Yellow(len(m.Results)))

	table := tablewriter.NewWriter(os.Stdout)

	table.SetHeader([]string{"ID", "Repository", "CVEID", "Known", "Severity", "Confidence", "Source"})
	table.SetRowLine(true)
	table.SetAutoMergeCellsByColumnIndex([]int{0, 1})

	for i, r := range m.Results {
		if r.Err != "" {
			table.Append([]string{
				strconv.Itoa(i + 1), r.FullName, "-", "-", "-", "-", r.Err,
			})
			continue
		}

		if len(r.IDs) == 0 {
			table.Append([]string{
				strconv.Itoa(i + 1), r.FullName, "-", "-", "-", "-", "no ids found",
			})
			continue
		}

		for _, e := range r.IDs {
			known := "no"
			if e.Known {
				known = config.Green("yes")
			}

			table.Append([]string{
				strconv.Itoa(i + 1), r.FullName, e.CVEID, known,
				judgeSeverity(e.Severity), judgeConfidence(e.Confidence), e.Source,
			})
		}
	}

	table.Render()

	return nil
}

func limitDesc(desc string) string {
	runes := []rune(desc)
	if len(runes) > 120 {
		return string(runes[:120]) + " ..."
	}
	return desc
}

func judgeSeverity(severity string) string {

	switch strings.ToLower(severity) {
	case "critical":
		return config.Red("critical")
	case "high":
		return config.Pink("high")
	case "medium":
		return config.Yellow("medium")
	case "low":
		return config.Green("low")
	case "":
		return "-"
	default:
		// ignore
	}

	return severity
}

func judgeConfidence(confidence string) string {

	switch strings.ToLower(confidence) {
	case "high":
		return config.Red("high")
	case "medium":
		return config.Yellow("medium")
	case "low":
		return config.Green("low")
	default:
		// ignore
	}

	return confidence
}
