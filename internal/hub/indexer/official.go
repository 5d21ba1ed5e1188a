package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	apiv0 "github.com/modelcontextprotocol/registry/pkg/api/v0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pluginhub-dev/pluginhub/internal/hub/logging"
	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

// indexOfficial walks the official MCP registry's cursor-paginated server
// listing and upserts every record it yields. A fetch failure anywhere in
// the walk discards the batch: the source contributes nothing this run.
func (s *Service) indexOfficial(ctx context.Context) Summary {
	servers, err := s.fetchOfficialPages(ctx)
	if err != nil {
		logging.Log(ctx, logging.IndexerLog, zapcore.WarnLevel, "official registry fetch failed",
			zap.Error(err))
		return Summary{}
	}

	sum := Summary{}
	for _, srv := range servers {
		s.apply(ctx, models.SourceOfficial, normalizeOfficial(srv), &sum)
	}

	logging.Log(ctx, logging.IndexerLog, zapcore.InfoLevel, "official registry indexed",
		zap.Int("indexed", sum.Indexed), zap.Int("failed", sum.Failed), zap.Int("skipped", sum.Skipped))
	return sum
}

func (s *Service) fetchOfficialPages(ctx context.Context) ([]*apiv0.ServerJSON, error) {
	var all []*apiv0.ServerJSON
	cursor := ""

	for page := 0; page < maxPages; page++ {
		pageURL := s.officialURL + "/v0/servers"
		if cursor != "" {
			pageURL += "?cursor=" + url.QueryEscape(cursor)
		}

		data, err := s.fetchJSON(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page from registry API: %w", err)
		}

		var response struct {
			Servers  []apiv0.ServerResponse `json:"servers"`
			Metadata *struct {
				NextCursor string `json:"nextCursor,omitempty"`
			} `json:"metadata,omitempty"`
		}
		if err := json.Unmarshal(data, &response); err != nil {
			return nil, fmt.Errorf("failed to parse registry API response: %w", err)
		}

		for _, serverResponse := range response.Servers {
			all = append(all, &serverResponse.Server)
		}

		if response.Metadata == nil || response.Metadata.NextCursor == "" {
			break
		}
		cursor = response.Metadata.NextCursor
	}

	return all, nil
}

// normalizeOfficial maps one upstream ServerJSON into a catalog record.
func normalizeOfficial(server *apiv0.ServerJSON) *models.MCPServer {
	short := shortName(server.Name)
	rec := &models.MCPServer{
		Slug:           models.SourceOfficial + "-" + short,
		Name:           short,
		DisplayName:    displayName(short),
		Description:    server.Description,
		Category:       classify(server.Name, server.Description),
		Vendor:         vendorFor(server.Name, short),
		SourceRegistry: models.SourceOfficial,
		Verification:   models.VerificationCommunity,
		ServerType:     serverTypeFromRemotes(server.Remotes),
		Active:         true,
	}
	if server.Repository.URL != "" {
		rec.RepositoryURL = server.Repository.URL
	}
	rec.InstallMethods, rec.DockerImage = installMethods(server)
	return rec
}
