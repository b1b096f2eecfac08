package searcher

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/certcc/cvescan/config"
	"github.com/certcc/cvescan/pkg/gitsearch"
	"github.com/certcc/cvescan/pkg/match"
	"github.com/certcc/cvescan/pkg/vulnlib"
)

type Scanner struct {
	Hits   []*RepoHit
	VulnDB vulnlib.Client
}

type RepoHit struct {
	FullName    string
	Description string
	HTMLURL     string
	Stars       int
	Forks       int
	CreatedAt   time.Time
	PushedAt    time.Time
	CVEID       string
	Confidence  string
	Query       string
}

// Search runs every bundled query template for each target CVE and
// persists the discovered repositories
func (s *Scanner) Search(ctx context.Context, gh *gitsearch.Client, cveIDs []string, limit int) error {
	log.Printf(config.Green("Begin searching GitHub for PoC repositories"))

	err := s.VulnDB.Init()
	if err != nil {
		log.Printf("failed to open database")
		return err
	}

	defer s.VulnDB.DB.Close()

	if len(cveIDs) == 0 {
		days := 7
		if ctx.Value("days") != nil {
			days = ctx.Value("days").(int)
		}

		cveIDs, err = s.VulnDB.RecentCVEIDs(days)
		if err != nil {
			log.Printf("failed to list recent CVEs, error: %v", err)
			return err
		}

		log.Printf("No CVE given, searching %d CVEs published in the last %d days",
			len(cveIDs), days)
	}

	for _, cveID := range cveIDs {
		id := match.Normalize(cveID)
		if id == "" || !match.ValidID(id) {
			log.Printf("skipping invalid CVE id %s", cveID)
			continue
		}

		hits, err := s.searchCVE(ctx, gh, id, limit)

		// Keep partial results on rate limit abort
		s.Hits = append(s.Hits, hits...)

		if err != nil {
			log.Printf("search aborted for %s, error: %v", id, err)
			return err
		}
	}

	sortConfidence(s.Hits)

	return nil
}

func (s *Scanner) searchCVE(ctx context.Context, gh *gitsearch.Client, cveID string, limit int) ([]*RepoHit, error) {
	hits := []*RepoHit{}
	seen := make(map[string]bool)

	for _, tpl := range match.QueryTemplates() {
		query := tpl
		if strings.Contains(tpl, "%s") {
			query = fmt.Sprintf(tpl, cveID)
		}

		repos, err := gh.SearchRepositories(ctx, query, limit)
		if err != nil {
			return hits, err
		}

		for i := range repos {
			r := &repos[i]

			key := strings.ToLower(r.FullName)
			if seen[key] {
				continue
			}
			seen[key] = true

			if r.Fork || match.Excluded(r.FullName) {
				continue
			}

			hit := &RepoHit{
				FullName:    r.FullName,
				Description: r.Description,
				HTMLURL:     r.HTMLURL,
				Stars:       r.Stars,
				Forks:       r.Forks,
				CreatedAt:   r.CreatedAt,
				PushedAt:    r.PushedAt,
				CVEID:       cveID,
				Confidence:  judgeHit(r, cveID),
				Query:       query,
			}

			hits = append(hits, hit)

			row := &vulnlib.RepoRow{
				FullName:    hit.FullName,
				Description: hit.Description,
				HTMLURL:     hit.HTMLURL,
				Stars:       hit.Stars,
				Forks:       hit.Forks,
				CreatedAt:   hit.CreatedAt.Format("2006-01-02"),
				PushedAt:    hit.PushedAt.Format("2006-01-02"),
				CVEID:       hit.CVEID,
				Confidence:  hit.Confidence,
				Query:       hit.Query,
			}

			if err := s.VulnDB.UpsertRepo(row); err != nil {
				log.Printf("failed to store %s, error: %v", hit.FullName, err)
			}
		}
	}

	log.Printf("%s: %d candidate repositories", cveID, len(hits))

	return hits, nil
}

// judgeHit scores how likely a search result is a real PoC for the CVE
func judgeHit(r *gitsearch.Repository, cveID string) string {
	text := strings.Join([]string{r.FullName, r.Description, strings.Join(r.Topics, " ")}, " ")

	score := match.Score(text)

	// An exact id mention is the strongest signal
	for _, id := range match.ExtractCVEIDs(text) {
		if id == cveID {
			score += 6
			break
		}
	}

	// A repository created before the CVE year is almost never its PoC
	if year := match.CVEYear(cveID); year > 0 && !r.CreatedAt.IsZero() {
		if r.CreatedAt.Year() < year {
			return "low"
		}
	}

	return match.Confidence(score)
}

func sortConfidence(hits []*RepoHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		ci := config.ConfidenceMap[hits[i].Confidence]
		cj := config.ConfidenceMap[hits[j].Confidence]
		if ci != cj {
			return ci > cj
		}
		return hits[i].Stars > hits[j].Stars
	})
}
