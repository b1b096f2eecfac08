package deepdive

import (
	"testing"

	"github.com/certcc/cvescan/pkg/gitsearch"
)

func TestScanPaths(t *testing.T) {
	entries := []gitsearch.TreeEntry{
		{Path: "exploit.py", Type: "blob", Size: 2048},
		{Path: "src/shellcode.c", Type: "blob", Size: 4096},
		{Path: "README.md", Type: "blob", Size: 512},
		{Path: "docs/usage.md", Type: "blob", Size: 256},
	}

	indicators := scanPaths(entries)

	if len(indicators) != 2 {
		t.Fatalf("got %d indicators, want 2", len(indicators))
	}

	found := map[string]string{}
	for _, ind := range indicators {
		found[ind.Keyword] = ind.Path
	}

	if found["exploit"] != "exploit.py" {
		t.Errorf("exploit indicator path = %s, want exploit.py", found["exploit"])
	}

	if found["shellcode"] != "src/shellcode.c" {
		t.Errorf("shellcode indicator path = %s, want src/shellcode.c", found["shellcode"])
	}
}

func TestCandidateFiles(t *testing.T) {
	entries := []gitsearch.TreeEntry{
		{Path: "poc.py", Type: "blob", Size: 100},
		{Path: "big.py", Type: "blob", Size: 1 << 20},
		{Path: "empty.sh", Type: "blob", Size: 0},
		{Path: "binary.exe", Type: "blob", Size: 100},
		{Path: "notes.txt", Type: "blob", Size: 50},
	}

	candidates := candidateFiles(entries)

	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}

	// Smallest first
	if candidates[0].Path != "notes.txt" || candidates[1].Path != "poc.py" {
		t.Errorf("candidates = %v, want [notes.txt poc.py]", candidates)
	}
}

func TestCandidateFiles_Cap(t *testing.T) {
	entries := []gitsearch.TreeEntry{}
	for i := 0; i < maxBlobFetch*2; i++ {
		entries = append(entries, gitsearch.TreeEntry{
			Path: "file.py", Type: "blob", Size: int64(i + 1),
		})
	}

	candidates := candidateFiles(entries)

	if len(candidates) != maxBlobFetch {
		t.Errorf("got %d candidates, want %d", len(candidates), maxBlobFetch)
	}
}
