package mapid

import (
	"testing"
	"time"

	"github.com/certcc/cvescan/pkg/gitsearch"
	"github.com/certcc/cvescan/pkg/vulnlib"
)

func fakeLookup(known map[string]*vulnlib.VulnRow) func(string) []*vulnlib.VulnRow {
	return func(id string) []*vulnlib.VulnRow {
		if row, ok := known[id]; ok {
			return []*vulnlib.VulnRow{row}
		}
		return nil
	}
}

func TestBuildMapping(t *testing.T) {
	repo := &gitsearch.Repository{
		FullName:    "researcher/CVE-2022-22965-poc",
		Description: "Spring4Shell exploit, related to cve-2022-22963",
		Topics:      []string{"spring", "rce"},
		CreatedAt:   time.Date(2022, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	readme := "Also mentions CVE-2010-1622 which this bypasses."

	known := map[string]*vulnlib.VulnRow{
		"CVE-2022-22965": {CVEID: "CVE-2022-22965", Severity: "critical", Score: 9.8},
	}

	mapping := buildMapping(repo, readme, fakeLookup(known))

	if len(mapping.IDs) != 3 {
		t.Fatalf("got %d ids, want 3", len(mapping.IDs))
	}

	first := mapping.IDs[0]
	if first.CVEID != "CVE-2022-22965" {
		t.Errorf("first id = %s, want CVE-2022-22965", first.CVEID)
	}

	if first.Source != "name" || first.Confidence != "high" {
		t.Errorf("first evidence = %s/%s, want name/high", first.Source, first.Confidence)
	}

	if !first.Known || first.Score != 9.8 {
		t.Errorf("first evidence not joined with database row: %+v", first)
	}

	for _, e := range mapping.IDs {
		switch e.CVEID {
		case "CVE-2022-22963":
			if e.Source != "description" || e.Confidence != "medium" {
				t.Errorf("CVE-2022-22963 = %s/%s, want description/medium", e.Source, e.Confidence)
			}
			if e.Known {
				t.Errorf("CVE-2022-22963 should be unknown to the database")
			}
		case "CVE-2010-1622":
			// Repository postdates the CVE year, but README evidence is low anyway
			if e.Confidence != "low" {
				t.Errorf("CVE-2010-1622 confidence = %s, want low", e.Confidence)
			}
		}
	}
}

func TestBuildMapping_PredatingRepo(t *testing.T) {
	repo := &gitsearch.Repository{
		FullName:  "someone/CVE-2023-12345",
		CreatedAt: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	mapping := buildMapping(repo, "", fakeLookup(nil))

	if len(mapping.IDs) != 1 {
		t.Fatalf("got %d ids, want 1", len(mapping.IDs))
	}

	if mapping.IDs[0].Confidence != "low" {
		t.Errorf("confidence = %s, want low for a repo predating the CVE", mapping.IDs[0].Confidence)
	}
}

func TestBuildMapping_NoIDs(t *testing.T) {
	repo := &gitsearch.Repository{
		FullName:    "someone/todo-app",
		Description: "a todo list",
	}

	mapping := buildMapping(repo, "no vulnerabilities here", fakeLookup(nil))

	if len(mapping.IDs) != 0 {
		t.Errorf("got %d ids, want 0", len(mapping.IDs))
	}
}
