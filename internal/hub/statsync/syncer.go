// Package statsync refreshes popularity metrics (GitHub stars, Docker
// pulls) for indexed servers and records append-only snapshots.
package statsync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pluginhub-dev/pluginhub/internal/hub/database"
	"github.com/pluginhub-dev/pluginhub/internal/hub/logging"
	"github.com/pluginhub-dev/pluginhub/internal/hub/metrics"
	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

const defaultGitHubURL = "https://api.github.com"

// Summary reports one sync pass.
type Summary struct {
	Updated int
	Failed  int
}

// Syncer walks active servers and conditionally re-fetches their metrics.
type Syncer struct {
	db           database.Database
	httpClient   *http.Client
	dockerHubURL string
	githubURL    string
	githubToken  string
	now          func() time.Time
}

// New creates a syncer with sane HTTP defaults. The GitHub token is
// optional; it only raises rate limits.
func New(db database.Database, dockerHubURL, githubToken string) *Syncer {
	return &Syncer{
		db:           db,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		dockerHubURL: strings.TrimRight(dockerHubURL, "/"),
		githubURL:    defaultGitHubURL,
		githubToken:  strings.TrimSpace(githubToken),
		now:          time.Now,
	}
}

// SetHTTPClient overrides the HTTP client used for fetches.
func (s *Syncer) SetHTTPClient(client *http.Client) {
	if client != nil {
		s.httpClient = client
	}
}

// SetGitHubURL overrides the GitHub API base URL.
func (s *Syncer) SetGitHubURL(url string) {
	if url != "" {
		s.githubURL = strings.TrimRight(url, "/")
	}
}

// Run syncs every active server once. If the bulk load itself fails the
// pass is aborted with zero counts rather than processed partially.
func (s *Syncer) Run(ctx context.Context) Summary {
	servers, err := s.db.ListActiveServersForStats(ctx)
	if err != nil {
		logging.Log(ctx, logging.IndexerLog, zapcore.ErrorLevel, "stats sync aborted, bulk load failed",
			zap.Error(err))
		return Summary{}
	}

	sum := Summary{}
	for _, server := range servers {
		s.syncServer(ctx, server, &sum)
	}

	logging.Log(ctx, logging.IndexerLog, zapcore.InfoLevel, "stats sync finished",
		zap.Int("updated", sum.Updated), zap.Int("failed", sum.Failed))
	return sum
}

// syncServer refreshes one record. Each record gets at most one snapshot
// per pass even when both lookups succeed; any lookup failure is counted
// and the pass moves on.
func (s *Syncer) syncServer(ctx context.Context, server *models.MCPServer, sum *Summary) {
	stars := server.GitHubStars
	pulls := server.DockerPulls
	downloads := server.DownloadCount
	snapshotted := false
	updated := false
	failed := false

	if server.SourceRegistry == models.SourceDockerHub && server.DockerImage != "" {
		count, err := s.fetchDockerPulls(ctx, server.DockerImage)
		if err != nil {
			failed = true
			logging.Log(ctx, logging.IndexerLog, zapcore.WarnLevel, "docker pulls lookup failed",
				zap.String("slug", server.Slug), zap.Error(err))
		} else if err := s.db.UpdateServerStats(ctx, server.Slug, database.ServerStats{DockerPulls: &count}); err != nil {
			failed = true
			logging.Log(ctx, logging.IndexerLog, zapcore.WarnLevel, "docker pulls update failed",
				zap.String("slug", server.Slug), zap.Error(err))
		} else {
			pulls = &count
			downloads = &count
			updated = true
			s.insertSnapshot(ctx, server.Slug, stars, pulls, downloads, &snapshotted, &failed)
		}
	}

	if owner, repo := parseGitHubRepo(server.RepositoryURL); owner != "" && repo != "" {
		count, err := s.fetchGitHubStars(ctx, owner, repo)
		if err != nil {
			failed = true
			logging.Log(ctx, logging.IndexerLog, zapcore.WarnLevel, "github stars lookup failed",
				zap.String("slug", server.Slug), zap.Error(err))
		} else if err := s.db.UpdateServerStats(ctx, server.Slug, database.ServerStats{GitHubStars: &count}); err != nil {
			failed = true
			logging.Log(ctx, logging.IndexerLog, zapcore.WarnLevel, "github stars update failed",
				zap.String("slug", server.Slug), zap.Error(err))
		} else {
			stars = &count
			updated = true
			if !snapshotted {
				s.insertSnapshot(ctx, server.Slug, stars, pulls, downloads, &snapshotted, &failed)
			}
		}
	}

	if updated {
		sum.Updated++
		metrics.StatsSyncRecords.WithLabelValues("updated").Inc()
	}
	if failed {
		sum.Failed++
		metrics.StatsSyncRecords.WithLabelValues("failed").Inc()
	}
}

// insertSnapshot writes one point-in-time row carrying all three tracked
// metrics, using last-known values for metrics not refreshed this pass.
func (s *Syncer) insertSnapshot(ctx context.Context, slug string, stars, pulls, downloads *int64, snapshotted, failed *bool) {
	snapshot := &models.StatsSnapshot{
		ServerSlug:    slug,
		GitHubStars:   stars,
		DockerPulls:   pulls,
		DownloadCount: downloads,
		CapturedAt:    s.now().UTC(),
	}
	if err := s.db.InsertStatsSnapshot(ctx, snapshot); err != nil {
		*failed = true
		logging.Log(ctx, logging.IndexerLog, zapcore.WarnLevel, "snapshot insert failed",
			zap.String("slug", slug), zap.Error(err))
		return
	}
	*snapshotted = true
}

// fetchDockerPulls looks up the current pull count for an image.
func (s *Syncer) fetchDockerPulls(ctx context.Context, image string) (int64, error) {
	repo := image
	if i := strings.Index(repo, ":"); i >= 0 {
		repo = repo[:i]
	}
	if !strings.Contains(repo, "/") {
		repo = "library/" + repo
	}

	url := fmt.Sprintf("%s/v2/repositories/%s/", s.dockerHubURL, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("docker hub api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		PullCount int64 `json:"pull_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}
	return payload.PullCount, nil
}
