package gitsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSearchRepositories_Pagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/search/repositories") {
			t.Errorf("Path = %s, want /search/repositories", r.URL.Path)
		}

		page := r.URL.Query().Get("page")

		resp := searchResponse{TotalCount: 150}
		count := 100
		if page == "2" {
			count = 50
		}

		for i := 0; i < count; i++ {
			resp.Items = append(resp.Items, Repository{
				FullName: fmt.Sprintf("owner/repo-%s-%d", page, i),
			})
		}

		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.SetBaseURL(server.URL)

	repos, err := client.SearchRepositories(context.Background(), "CVE-2021-44228", 0)
	if err != nil {
		t.Fatalf("SearchRepositories failed: %v", err)
	}

	if len(repos) != 150 {
		t.Errorf("got %d repositories, want 150", len(repos))
	}
}

func TestSearchRepositories_Limit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := searchResponse{TotalCount: 100}
		for i := 0; i < 100; i++ {
			resp.Items = append(resp.Items, Repository{
				FullName: fmt.Sprintf("owner/repo-%d", i),
			})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.SetBaseURL(server.URL)

	repos, err := client.SearchRepositories(context.Background(), "CVE-2021-44228", 10)
	if err != nil {
		t.Fatalf("SearchRepositories failed: %v", err)
	}

	if len(repos) != 10 {
		t.Errorf("got %d repositories, want 10", len(repos))
	}
}

func TestSearchRepositories_RateLimitExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "API rate limit exceeded"}`))
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.SetBaseURL(server.URL)

	_, err := client.SearchRepositories(context.Background(), "CVE-2021-44228", 0)
	if err == nil {
		t.Fatal("expected rate limit error, got nil")
	}

	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("expected rate limit error, got: %v", err)
	}
}

func TestSearchRepositories_SecondaryRateLimitRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.Header().Set("X-RateLimit-Remaining", "29")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message": "You have exceeded a secondary rate limit"}`))
			return
		}

		resp := searchResponse{
			TotalCount: 1,
			Items:      []Repository{{FullName: "owner/poc"}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.SetBaseURL(server.URL)

	repos, err := client.SearchRepositories(context.Background(), "CVE-2021-44228", 0)
	if err != nil {
		t.Fatalf("SearchRepositories failed: %v", err)
	}

	if calls != 2 {
		t.Errorf("got %d requests, want 2", calls)
	}

	if len(repos) != 1 {
		t.Errorf("got %d repositories, want 1", len(repos))
	}
}

func TestSetRequestRate(t *testing.T) {
	client := NewClient("test-token")
	client.SetRequestRate(6)

	if got := float64(client.limiter.Limit()); got != 0.1 {
		t.Errorf("limiter rate = %v, want 0.1", got)
	}

	// Out-of-range values keep the default pacing
	client.SetRequestRate(0)
	if got := float64(client.limiter.Limit()); got != 0.1 {
		t.Errorf("limiter rate = %v, want 0.1 after no-op", got)
	}
}

func TestGetReadme_Missing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer server.Close()

	client := NewClient("")
	client.SetBaseURL(server.URL)

	readme, err := client.GetReadme(context.Background(), "owner/repo")
	if err != nil {
		t.Fatalf("GetReadme failed: %v", err)
	}

	if readme != "" {
		t.Errorf("readme = %q, want empty", readme)
	}
}

func TestGetRepository_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer server.Close()

	client := NewClient("")
	client.SetBaseURL(server.URL)

	_, err := client.GetRepository(context.Background(), "owner/gone")
	if err == nil {
		t.Fatal("expected error for 404, got nil")
	}
}

func TestGetTree(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("recursive") != "1" {
			t.Errorf("recursive = %s, want 1", r.URL.Query().Get("recursive"))
		}

		tree := Tree{
			Entries: []TreeEntry{
				{Path: "exploit.py", Type: "blob", Size: 2048},
				{Path: "README.md", Type: "blob", Size: 512},
			},
		}
		_ = json.NewEncoder(w).Encode(tree)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.SetBaseURL(server.URL)

	tree, err := client.GetTree(context.Background(), "owner/repo", "main")
	if err != nil {
		t.Fatalf("GetTree failed: %v", err)
	}

	if len(tree.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(tree.Entries))
	}
}
