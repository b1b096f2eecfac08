package gitsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const (
	perPage = 100

	// The search API never returns results past the first thousand
	searchWindow = 1000
)

// SearchRepositories pages through /search/repositories for a query and
// returns every repository inside the search window, capped at limit
// when limit is positive.
func (c *Client) SearchRepositories(ctx context.Context, query string, limit int) ([]Repository, error) {
	repos := []Repository{}

	for page := 1; ; page++ {
		u := fmt.Sprintf("%s/search/repositories?q=%s&sort=updated&order=desc&per_page=%d&page=%d",
			c.baseURL, url.QueryEscape(query), perPage, page)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return repos, err
		}
		c.setHeaders(req)

		resp, err := c.do(req)
		if err != nil {
			return repos, err
		}

		if resp.StatusCode == http.StatusUnprocessableEntity {
			// Past the search window
			resp.Body.Close()
			return repos, nil
		}

		if resp.StatusCode != http.StatusOK {
			err = readError(resp)
			resp.Body.Close()
			return repos, err
		}

		var result searchResponse
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			return repos, fmt.Errorf("failed to decode search response: %w", err)
		}

		for _, r := range result.Items {
			repos = append(repos, r)
			if limit > 0 && len(repos) >= limit {
				return repos, nil
			}
		}

		if len(result.Items) < perPage || page*perPage >= searchWindow {
			return repos, nil
		}

		if page*perPage >= result.TotalCount {
			return repos, nil
		}
	}
}
