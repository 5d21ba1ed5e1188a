package indexer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pluginhub-dev/pluginhub/internal/hub/logging"
	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

type dockerHubRepository struct {
	RepoName         string `json:"repo_name"`
	ShortDescription string `json:"short_description"`
	PullCount        int64  `json:"pull_count"`
	StarCount        int64  `json:"star_count"`
	IsOfficial       bool   `json:"is_official"`
}

// indexDockerHub walks Docker Hub's repository search for MCP images and
// upserts every result. Pagination follows the next links the API
// returns; a fetch failure anywhere in the walk discards the batch.
func (s *Service) indexDockerHub(ctx context.Context) Summary {
	repos, err := s.fetchDockerHubPages(ctx)
	if err != nil {
		logging.Log(ctx, logging.IndexerLog, zapcore.WarnLevel, "docker hub fetch failed",
			zap.Error(err))
		return Summary{}
	}

	sum := Summary{}
	for _, repo := range repos {
		s.apply(ctx, models.SourceDockerHub, normalizeDockerHub(repo), &sum)
	}

	logging.Log(ctx, logging.IndexerLog, zapcore.InfoLevel, "docker hub indexed",
		zap.Int("indexed", sum.Indexed), zap.Int("failed", sum.Failed), zap.Int("skipped", sum.Skipped))
	return sum
}

func (s *Service) fetchDockerHubPages(ctx context.Context) ([]dockerHubRepository, error) {
	var all []dockerHubRepository
	pageURL := s.dockerHubURL + "/v2/search/repositories/?query=mcp&page_size=100"

	for page := 0; page < maxPages; page++ {
		data, err := s.fetchJSON(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page from docker hub: %w", err)
		}

		var response struct {
			Next    string                `json:"next"`
			Results []dockerHubRepository `json:"results"`
		}
		if err := json.Unmarshal(data, &response); err != nil {
			return nil, fmt.Errorf("failed to parse docker hub response: %w", err)
		}

		all = append(all, response.Results...)

		if response.Next == "" {
			break
		}
		pageURL = response.Next
	}

	return all, nil
}

// normalizeDockerHub maps one repository search result into a catalog
// record. Docker Hub images run locally, so the server type is stdio and
// the single install method is the docker command.
func normalizeDockerHub(repo dockerHubRepository) *models.MCPServer {
	short := shortName(repo.RepoName)

	verification := models.VerificationCommunity
	if repo.IsOfficial {
		verification = models.VerificationVerified
	}

	pulls := repo.PullCount
	return &models.MCPServer{
		Slug:           models.SourceDockerHub + "-" + short,
		Name:           short,
		DisplayName:    displayName(short),
		Description:    repo.ShortDescription,
		Category:       classify(repo.RepoName, repo.ShortDescription),
		Vendor:         vendorFor(repo.RepoName, short),
		SourceRegistry: models.SourceDockerHub,
		Verification:   verification,
		ServerType:     "stdio",
		DockerImage:    repo.RepoName,
		InstallMethods: []models.InstallMethod{{
			Type:        "docker",
			Command:     "docker run -i --rm " + repo.RepoName,
			Image:       repo.RepoName,
			Recommended: true,
		}},
		DockerPulls:   &pulls,
		DownloadCount: &pulls,
		Active:        true,
	}
}
