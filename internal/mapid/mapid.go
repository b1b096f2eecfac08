package mapid

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/certcc/cvescan/config"
	"github.com/certcc/cvescan/pkg/gitsearch"
	"github.com/certcc/cvescan/pkg/match"
	"github.com/certcc/cvescan/pkg/vulnlib"
)

const defaultWorkers = 4

type Mapper struct {
	Results []*Mapping
	VulnDB  vulnlib.Client
}

// Mapping connects one repository to the vulnerability ids it references
type Mapping struct {
	FullName string
	IDs      []*IDEvidence
	Err      string
}

type IDEvidence struct {
	CVEID      string
	Source     string
	Known      bool
	Severity   string
	Score      float64
	Confidence string
}

// MapRepos resolves every repository to its referenced CVE ids,
// fetching metadata and READMEs concurrently
func (m *Mapper) MapRepos(ctx context.Context, gh *gitsearch.Client, repoNames []string, workers int) error {
	log.Printf(config.Green("Begin mapping repositories to vulnerability ids"))

	err := m.VulnDB.Init()
	if err != nil {
		log.Printf("failed to open database")
		return err
	}

	defer m.VulnDB.DB.Close()

	if workers <= 0 {
		workers = defaultWorkers
	}

	jobs := make(chan string)
	results := make(chan *Mapping, len(repoNames))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fullName := range jobs {
				results <- m.mapOne(ctx, gh, fullName)
			}
		}()
	}

	go func() {
		seen := make(map[string]bool)
		for _, name := range repoNames {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			jobs <- strings.TrimSpace(name)
		}
		close(jobs)

		wg.Wait()
		close(results)
	}()

	for mapping := range results {
		m.Results = append(m.Results, mapping)
	}

	sort.Slice(m.Results, func(i, j int) bool {
		return m.Results[i].FullName < m.Results[j].FullName
	})

	return nil
}

func (m *Mapper) mapOne(ctx context.Context, gh *gitsearch.Client, fullName string) *Mapping {
	repo, err := gh.GetRepository(ctx, fullName)
	if err != nil {
		log.Printf("failed to fetch %s, error: %v", fullName, err)
		return &Mapping{FullName: fullName, Err: err.Error()}
	}

	readme, err := gh.GetReadme(ctx, fullName)
	if err != nil {
		log.Printf("failed to fetch readme of %s, error: %v", fullName, err)
	}

	return buildMapping(repo, readme, m.lookup)
}

func (m *Mapper) lookup(cveID string) []*vulnlib.VulnRow {
	rows, err := m.VulnDB.QueryVulnByCVEID(cveID)
	if err != nil {
		return nil
	}
	return rows
}

// buildMapping extracts CVE ids from each metadata source and grades
// the evidence. An id in the repository name outweighs one buried in
// the README.
func buildMapping(repo *gitsearch.Repository, readme string, lookup func(string) []*vulnlib.VulnRow) *Mapping {
	mapping := &Mapping{FullName: repo.FullName}

	sources := []struct {
		name       string
		text       string
		confidence string
	}{
		{"name", repo.FullName, "high"},
		{"description", repo.Description, "medium"},
		{"topics", strings.Join(repo.Topics, " "), "medium"},
		{"readme", readme, "low"},
	}

	seen := make(map[string]bool)

	for _, src := range sources {
		for _, id := range match.ExtractCVEIDs(src.text) {
			if seen[id] {
				continue
			}
			seen[id] = true

			evidence := &IDEvidence{
				CVEID:      id,
				Source:     src.name,
				Confidence: src.confidence,
			}

			// A repository created before the CVE year is suspect
			if year := match.CVEYear(id); year > 0 && !repo.CreatedAt.IsZero() {
				if repo.CreatedAt.Year() < year {
					evidence.Confidence = "low"
				}
			}

			if rows := lookup(id); len(rows) > 0 {
				evidence.Known = true
				evidence.Severity = rows[0].Severity
				evidence.Score = rows[0].Score
			}

			mapping.IDs = append(mapping.IDs, evidence)
		}
	}

	sort.Slice(mapping.IDs, func(i, j int) bool {
		ci := config.ConfidenceMap[mapping.IDs[i].Confidence]
		cj := config.ConfidenceMap[mapping.IDs[j].Confidence]
		if ci != cj {
			return ci > cj
		}
		return mapping.IDs[i].CVEID < mapping.IDs[j].CVEID
	})

	return mapping
}
