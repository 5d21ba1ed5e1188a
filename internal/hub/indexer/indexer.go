// Package indexer pulls MCP server records from upstream registries and
// upserts them into the catalog. A run walks each source once: fetch
// pages, normalize every record into the internal shape, upsert by slug.
package indexer

import (
	"context"
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

// maxPages bounds pagination per source so a misbehaving upstream with an
// unbounded cursor or next-link chain cannot stall a run.
const maxPages = 20

// Summary accumulates per-source record outcomes.
type Summary struct {
	Indexed int
	Failed  int
	Skipped int
}

// RunSummary reports one indexing run across all sources.
type RunSummary struct {
	Official  Summary
	DockerHub Summary
}

// Total sums the per-source summaries.
func (r RunSummary) Total() Summary {
	return Summary{
		Indexed: r.Official.Indexed + r.DockerHub.Indexed,
		Failed:  r.Official.Failed + r.DockerHub.Failed,
		Skipped: r.Official.Skipped + r.DockerHub.Skipped,
	}
}

// Service fetches upstream registries and writes normalized records.
type Service struct {
	db           database.Database
	httpClient   *http.Client
	officialURL  string
	dockerHubURL string
}

// New creates an indexer with sane HTTP defaults.
func New(db database.Database, officialURL, dockerHubURL string) *Service {
	return &Service{
		db:           db,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		officialURL:  strings.TrimRight(officialURL, "/"),
		dockerHubURL: strings.TrimRight(dockerHubURL, "/"),
	}
}

// SetHTTPClient overrides the HTTP client used for fetches.
func (s *Service) SetHTTPClient(client *http.Client) {
	if client != nil {
		s.httpClient = client
	}
}

// Run indexes every source once. A failure fetching one source never
// prevents the others from being attempted.
func (s *Service) Run(ctx context.Context) RunSummary {
	run := RunSummary{
		Official:  s.indexOfficial(ctx),
		DockerHub: s.indexDockerHub(ctx),
	}

	total := run.Total()
	logging.Log(ctx, logging.IndexerLog, zapcore.InfoLevel, "indexing run finished",
		zap.Int("indexed", total.Indexed),
		zap.Int("failed", total.Failed),
		zap.Int("skipped", total.Skipped))
	return run
}

// apply upserts one normalized record and accounts for the outcome. A
// record whose derived name came out empty is skipped, not failed.
func (s *Service) apply(ctx context.Context, source string, rec *models.MCPServer, sum *Summary) {
	if rec.Name == "" {
		sum.Skipped++
		metrics.IndexedRecords.WithLabelValues(source, "skipped").Inc()
		return
	}

	if err := s.db.UpsertMCPServer(ctx, rec); err != nil {
		sum.Failed++
		metrics.IndexedRecords.WithLabelValues(source, "failed").Inc()
		logging.Log(ctx, logging.IndexerLog, zapcore.WarnLevel, "upsert failed",
			zap.String("slug", rec.Slug), zap.Error(err))
		return
	}

	sum.Indexed++
	metrics.IndexedRecords.WithLabelValues(source, "indexed").Inc()
}

// fetchJSON performs a GET and returns the body for 200 responses.
func (s *Service) fetchJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}
