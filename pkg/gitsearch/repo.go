package gitsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GetRepository fetches the metadata of a single repository
func (c *Client) GetRepository(ctx context.Context, fullName string) (*Repository, error) {
	u := fmt.Sprintf("%s/repos/%s", c.baseURL, fullName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("repository not found: %s", fullName)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	repo := &Repository{}
	if err := json.NewDecoder(resp.Body).Decode(repo); err != nil {
		return nil, fmt.Errorf("failed to decode repository: %w", err)
	}

	return repo, nil
}

// GetReadme returns the raw README content, an empty string when the
// repository has none
func (c *Client) GetReadme(ctx context.Context, fullName string) (string, error) {
	u := fmt.Sprintf("%s/repos/%s/readme", c.baseURL, fullName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "application/vnd.github.raw+json")

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}

	if resp.StatusCode != http.StatusOK {
		return "", readError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// GetTree lists the full file tree of a branch in one request
func (c *Client) GetTree(ctx context.Context, fullName, branch string) (*Tree, error) {
	if branch == "" {
		branch = "HEAD"
	}

	u := fmt.Sprintf("%s/repos/%s/git/trees/%s?recursive=1", c.baseURL, fullName, branch)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	tree := &Tree{}
	if err := json.NewDecoder(resp.Body).Decode(tree); err != nil {
		return nil, fmt.Errorf("failed to decode tree: %w", err)
	}

	return tree, nil
}

// GetLanguages returns the byte counts per language
func (c *Client) GetLanguages(ctx context.Context, fullName string) (map[string]int64, error) {
	u := fmt.Sprintf("%s/repos/%s/languages", c.baseURL, fullName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	languages := map[string]int64{}
	if err := json.NewDecoder(resp.Body).Decode(&languages); err != nil {
		return nil, fmt.Errorf("failed to decode languages: %w", err)
	}

	return languages, nil
}

// GetFileContent downloads a single file as raw bytes
func (c *Client) GetFileContent(ctx context.Context, fullName, path string) ([]byte, error) {
	path = strings.TrimPrefix(path, "/")
	u := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, fullName, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "application/vnd.github.raw+json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	return io.ReadAll(resp.Body)
}
