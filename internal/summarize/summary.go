package summarize

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/certcc/cvescan/config"
	"github.com/certcc/cvescan/pkg/vulnlib"
)

const topRepoCount = 5

type Summarizer struct {
	Summaries []*CVESummary
	VulnDB    vulnlib.Client
}

// CVESummary aggregates every stored PoC repository of one CVE
type CVESummary struct {
	CVEID       string
	Severity    string
	Score       float64
	PublishDate string
	Description string

	RepoCount  int
	TotalStars int
	TopRepos   []*vulnlib.RepoRow

	// FirstPoC is the creation date of the earliest repository,
	// DaysToPoC its distance from the CVE publication
	FirstPoC  string
	DaysToPoC int
}

// Generate builds summaries from the local database only, no network
func (s *Summarizer) Generate(ctx context.Context) error {
	log.Printf(config.Green("Begin generating summaries"))

	err := s.VulnDB.Init()
	if err != nil {
		log.Printf("failed to open database")
		return err
	}

	defer s.VulnDB.DB.Close()

	ids, err := s.VulnDB.RepoCVEIDs()
	if err != nil {
		log.Printf("failed to list stored CVEs, error: %v", err)
		return err
	}

	if len(ids) == 0 {
		log.Printf("No stored repositories, run a search first")
		return nil
	}

	for _, id := range ids {
		repos, err := s.VulnDB.QueryReposByCVEID(id)
		if err != nil {
			log.Printf("failed to load repositories of %s, error: %v", id, err)
			continue
		}

		var vuln *vulnlib.VulnRow
		if rows, err := s.VulnDB.QueryVulnByCVEID(id); err == nil && len(rows) > 0 {
			vuln = rows[0]
		}

		s.Summaries = append(s.Summaries, buildSummary(id, repos, vuln))
	}

	sort.Slice(s.Summaries, func(i, j int) bool {
		si := config.SeverityMap[s.Summaries[i].Severity]
		sj := config.SeverityMap[s.Summaries[j].Severity]
		if si != sj {
			return si > sj
		}
		return s.Summaries[i].RepoCount > s.Summaries[j].RepoCount
	})

	log.Printf("Generated %d summaries", len(s.Summaries))

	return nil
}

func buildSummary(cveID string, repos []*vulnlib.RepoRow, vuln *vulnlib.VulnRow) *CVESummary {
	summary := &CVESummary{
		CVEID:     cveID,
		Severity:  "none",
		RepoCount: len(repos),
	}

	if vuln != nil {
		summary.Severity = vuln.Severity
		summary.Score = vuln.Score
		summary.PublishDate = vuln.PublishDate
		summary.Description = vuln.Description
	}

	var earliest time.Time
	for _, r := range repos {
		summary.TotalStars += r.Stars

		created, err := time.Parse("2006-01-02", r.CreatedAt)
		if err != nil {
			continue
		}

		if earliest.IsZero() || created.Before(earliest) {
			earliest = created
		}
	}

	if !earliest.IsZero() {
		summary.FirstPoC = earliest.Format("2006-01-02")

		if published, err := time.Parse("2006-01-02", summary.PublishDate); err == nil {
			summary.DaysToPoC = int(earliest.Sub(published).Hours() / 24)
		}
	}

	// Rows arrive ordered by stars
	top := topRepoCount
	if len(repos) < top {
		top = len(repos)
	}
	summary.TopRepos = repos[:top]

	return summary
}

// Markdown renders a per-CVE summary file
func (c *CVESummary) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", c.CVEID)

	if c.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", c.Description)
	}

	fmt.Fprintf(&b, "- Severity: %s (%.1f)\n", c.Severity, c.Score)
	if c.PublishDate != "" {
		fmt.Fprintf(&b, "- Published: %s\n", c.PublishDate)
	}
	fmt.Fprintf(&b, "- PoC repositories: %d\n", c.RepoCount)
	fmt.Fprintf(&b, "- Total stars: %d\n", c.TotalStars)

	if c.FirstPoC != "" {
		fmt.Fprintf(&b, "- First PoC created: %s", c.FirstPoC)
		if c.PublishDate != "" {
			unit := "days"
			if c.DaysToPoC == 1 {
				unit = "day"
			}
			fmt.Fprintf(&b, " (%d %s after publication)", c.DaysToPoC, unit)
		}
		b.WriteString("\n")
	}

	if len(c.TopRepos) > 0 {
		b.WriteString("\n## Top repositories\n\n")
		for _, r := range c.TopRepos {
			fmt.Fprintf(&b, "- [%s](%s) - %d stars, %s - %s\n",
				r.FullName, r.HTMLURL, r.Stars, r.Confidence, r.Description)
		}
	}

	return b.String()
}
