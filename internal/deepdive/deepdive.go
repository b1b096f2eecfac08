package deepdive

import (
	"context"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/certcc/cvescan/config"
	"github.com/certcc/cvescan/pkg/gitsearch"
	"github.com/certcc/cvescan/pkg/match"
	"github.com/certcc/cvescan/pkg/vulnlib"
)

const (
	maxBlobSize  = 64 * 1024
	maxBlobFetch = 20
)

// textExts are the file types worth scanning for indicator keywords
var textExts = map[string]bool{
	".c": true, ".cpp": true, ".go": true, ".java": true,
	".js": true, ".md": true, ".php": true, ".ps1": true,
	".py": true, ".rb": true, ".sh": true, ".txt": true,
}

type Diver struct {
	Report *Report
	VulnDB vulnlib.Client
}

type Report struct {
	FullName    string
	Description string
	HTMLURL     string
	Stars       int
	Forks       int
	Archived    bool

	Languages map[string]int64
	FileCount int
	Truncated bool

	CVEIDs    []string
	KnownCVEs []string

	Indicators []*Indicator
	Score      int
	Confidence string
}

type Indicator struct {
	Path    string
	Keyword string
	Weight  int
}

// Dive analyzes a single repository for exploit PoC evidence
func (d *Diver) Dive(ctx context.Context, gh *gitsearch.Client, fullName string) error {
	log.Printf(config.Green("Begin deep dive of %s"), fullName)

	err := d.VulnDB.Init()
	if err != nil {
		log.Printf("failed to open database")
		return err
	}

	defer d.VulnDB.DB.Close()

	repo, err := gh.GetRepository(ctx, fullName)
	if err != nil {
		return err
	}

	d.Report = &Report{
		FullName:    repo.FullName,
		Description: repo.Description,
		HTMLURL:     repo.HTMLURL,
		Stars:       repo.Stars,
		Forks:       repo.Forks,
		Archived:    repo.Archived,
	}

	readme, err := gh.GetReadme(ctx, fullName)
	if err != nil {
		log.Printf("failed to fetch readme, error: %v", err)
	}

	d.Report.Languages, err = gh.GetLanguages(ctx, fullName)
	if err != nil {
		log.Printf("failed to fetch languages, error: %v", err)
	}

	tree, err := gh.GetTree(ctx, fullName, repo.DefaultBranch)
	if err != nil {
		log.Printf("failed to fetch file tree, error: %v", err)
		tree = &gitsearch.Tree{}
	}

	d.Report.Truncated = tree.Truncated

	blobs := []gitsearch.TreeEntry{}
	for _, e := range tree.Entries {
		if e.Type != "blob" {
			continue
		}
		d.Report.FileCount++
		blobs = append(blobs, e)
	}

	d.Report.Indicators = scanPaths(blobs)

	// Content scan over a bounded sample of text files
	for _, e := range candidateFiles(blobs) {
		content, err := gh.GetFileContent(ctx, fullName, e.Path)
		if err != nil {
			log.Printf("failed to fetch %s, error: %v", e.Path, err)
			continue
		}

		for word, weight := range match.Indicators(string(content)) {
			d.Report.Indicators = append(d.Report.Indicators, &Indicator{
				Path:    e.Path,
				Keyword: word,
				Weight:  weight,
			})
		}
	}

	metaText := strings.Join([]string{repo.FullName, repo.Description,
		strings.Join(repo.Topics, " "), readme}, " ")

	d.Report.CVEIDs = match.ExtractCVEIDs(metaText)

	for _, id := range d.Report.CVEIDs {
		rows, err := d.VulnDB.QueryVulnByCVEID(id)
		if err != nil || len(rows) == 0 {
			continue
		}

		d.Report.KnownCVEs = append(d.Report.KnownCVEs, id)

		// A README version inside the vulnerable window corroborates the id
		for _, v := range match.ExtractVersions(readme) {
			if match.InRange(v, rows[0].MinVersion, rows[0].MaxVersion) {
				d.Report.Score += 3
				break
			}
		}
	}

	d.Report.Score += match.Score(metaText)
	for _, ind := range d.Report.Indicators {
		d.Report.Score += ind.Weight
	}

	d.Report.Confidence = match.Confidence(d.Report.Score)

	return nil
}

// scanPaths flags file names that look like exploit tooling
func scanPaths(entries []gitsearch.TreeEntry) []*Indicator {
	indicators := []*Indicator{}

	for _, e := range entries {
		base := strings.ToLower(filepath.Base(e.Path))
		for word, weight := range match.Indicators(base) {
			indicators = append(indicators, &Indicator{
				Path:    e.Path,
				Keyword: word,
				Weight:  weight,
			})
		}
	}

	sort.Slice(indicators, func(i, j int) bool {
		if indicators[i].Weight != indicators[j].Weight {
			return indicators[i].Weight > indicators[j].Weight
		}
		return indicators[i].Path < indicators[j].Path
	})

	return indicators
}

// candidateFiles picks the text files worth a content scan, smallest
// first so the fetch budget covers more of the tree
func candidateFiles(entries []gitsearch.TreeEntry) []gitsearch.TreeEntry {
	candidates := []gitsearch.TreeEntry{}

	for _, e := range entries {
		if e.Size == 0 || e.Size > maxBlobSize {
			continue
		}

		if !textExts[strings.ToLower(filepath.Ext(e.Path))] {
			continue
		}

		candidates = append(candidates, e)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Size < candidates[j].Size
	})

	if len(candidates) > maxBlobFetch {
		candidates = candidates[:maxBlobFetch]
	}

	return candidates
}
