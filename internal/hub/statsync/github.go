package statsync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

var sshRepoPattern = regexp.MustCompile(`github\.com:([^/]+)/([^/]+)$`)

// parseGitHubRepo extracts owner/repo from common GitHub URL formats.
func parseGitHubRepo(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, ".git")
	if strings.Contains(raw, "github.com/") {
		parts := strings.Split(raw, "github.com/")
		path := parts[len(parts)-1]
		segs := strings.Split(strings.Trim(path, "/"), "/")
		if len(segs) >= 2 {
			return segs[0], segs[1]
		}
	}
	m := sshRepoPattern.FindStringSubmatch(raw)
	if len(m) == 3 {
		return m[1], m[2]
	}
	return "", ""
}

// fetchGitHubStars queries the GitHub repo API for stargazers_count.
func (s *Syncer) fetchGitHubStars(ctx context.Context, owner, repo string) (int64, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", s.githubURL, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	if s.githubToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.githubToken)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("github api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Stars int64 `json:"stargazers_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}
	return payload.Stars, nil
}
