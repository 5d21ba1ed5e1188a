// Package v0 contains the catalog's HTTP listing endpoints.
package v0

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pluginhub-dev/pluginhub/internal/hub/metrics"
	"github.com/pluginhub-dev/pluginhub/internal/hub/service"
	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

// ServerListInput holds the query parameters of the server listing.
// Enum-like values are parsed leniently: unknown sorts fall back to
// relevance and unknown filter values mean unfiltered, so listing
// requests never fail on bad input.
type ServerListInput struct {
	Limit        int    `query:"limit" json:"limit,omitempty" doc:"Number of items per page" default:"30" example:"30"`
	Offset       int    `query:"offset" json:"offset,omitempty" doc:"Number of items to skip" example:"0"`
	Search       string `query:"search" json:"search,omitempty" doc:"Search term matched against name, display name, description and tags"`
	Sort         string `query:"sort" json:"sort,omitempty" doc:"Sort order (relevance, name, name-desc, recent, stars, downloads)" example:"relevance"`
	Category     string `query:"category" json:"category,omitempty" doc:"Filter by category; 'all' or empty for no filter"`
	Source       string `query:"source" json:"source,omitempty" doc:"Filter by source registry (official, dockerhub, local, community)"`
	Verification string `query:"verification" json:"verification,omitempty" doc:"Filter by verification level (verified, community, unverified)"`
}

// ServerListResponse is the server listing page.
type ServerListResponse struct {
	CacheControl string `header:"Cache-Control"`
	Body         struct {
		Servers []*models.MCPServer `json:"servers"`
		Total   int                 `json:"total"`
		Limit   int                 `json:"limit"`
		Offset  int                 `json:"offset"`
		HasMore bool                `json:"hasMore"`
	}
}

// RegisterServersEndpoint registers the MCP server listing.
func RegisterServersEndpoint(api huma.API, pathPrefix string, servers *service.MCPServerService, cacheControl string) {
	huma.Register(api, huma.Operation{
		OperationID: "list-servers",
		Method:      http.MethodGet,
		Path:        pathPrefix + "/servers",
		Summary:     "List MCP servers",
		Description: "Paginated directory of indexed MCP servers with filtering, search and sorting",
		Tags:        []string{"servers"},
	}, func(ctx context.Context, input *ServerListInput) (*ServerListResponse, error) {
		metrics.HTTPRequests.WithLabelValues("servers").Inc()

		page, fromSource := servers.List(ctx, service.ServerListOptions{
			Limit:          input.Limit,
			Offset:         input.Offset,
			Search:         strings.TrimSpace(input.Search),
			Sort:           service.ParseSort(input.Sort),
			Category:       service.ParseFilterValue(input.Category),
			SourceRegistry: service.ParseSourceRegistry(input.Source),
			Verification:   service.ParseVerification(input.Verification),
		})
		if !fromSource {
			metrics.DegradedResponses.WithLabelValues("servers").Inc()
		}

		resp := &ServerListResponse{CacheControl: cacheControl}
		resp.Body.Servers = page.Items
		resp.Body.Total = page.Total
		resp.Body.Limit = page.Limit
		resp.Body.Offset = page.Offset
		resp.Body.HasMore = page.HasMore
		return resp, nil
	})
}
