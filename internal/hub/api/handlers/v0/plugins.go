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

// PluginListInput holds the query parameters of the unified plugin
// listing, spanning curated local content and indexed marketplaces.
type PluginListInput struct {
	Limit       int    `query:"limit" json:"limit,omitempty" doc:"Number of items per page" default:"50" example:"50"`
	Offset      int    `query:"offset" json:"offset,omitempty" doc:"Number of items to skip" example:"0"`
	Search      string `query:"search" json:"search,omitempty" doc:"Search term matched against name, display name, description and keywords"`
	Sort        string `query:"sort" json:"sort,omitempty" doc:"Sort order (relevance, name, name-desc, recent, stars, downloads)" example:"relevance"`
	Category    string `query:"category" json:"category,omitempty" doc:"Filter by category; 'all' or empty for no filter"`
	Type        string `query:"type" json:"type,omitempty" doc:"Filter by plugin type (plugin, skill, command, hook, subagent)"`
	Marketplace string `query:"marketplace" json:"marketplace,omitempty" doc:"Filter by marketplace; 'local' for curated content only"`
}

// PluginListResponse is the unified plugin listing page.
type PluginListResponse struct {
	CacheControl string `header:"Cache-Control"`
	Body         struct {
		Plugins []models.UnifiedPlugin `json:"plugins"`
		Total   int                    `json:"total"`
		Limit   int                    `json:"limit"`
		Offset  int                    `json:"offset"`
		HasMore bool                   `json:"hasMore"`
	}
}

// RegisterPluginsEndpoint registers the unified plugin listing.
func RegisterPluginsEndpoint(api huma.API, pathPrefix string, plugins *service.PluginService, cacheControl string) {
	huma.Register(api, huma.Operation{
		OperationID: "list-plugins",
		Method:      http.MethodGet,
		Path:        pathPrefix + "/plugins",
		Summary:     "List plugins",
		Description: "Paginated unified listing of plugins, skills, commands, hooks and subagents across local content and indexed marketplaces",
		Tags:        []string{"plugins"},
	}, func(ctx context.Context, input *PluginListInput) (*PluginListResponse, error) {
		metrics.HTTPRequests.WithLabelValues("plugins").Inc()

		page, fromSource := plugins.List(ctx, service.PluginListOptions{
			Limit:       input.Limit,
			Offset:      input.Offset,
			Search:      strings.TrimSpace(input.Search),
			Sort:        service.ParseSort(input.Sort),
			Category:    service.ParseFilterValue(input.Category),
			PluginType:  service.ParsePluginType(input.Type),
			Marketplace: service.ParseFilterValue(input.Marketplace),
		})
		if !fromSource {
			metrics.DegradedResponses.WithLabelValues("plugins").Inc()
		}

		resp := &PluginListResponse{CacheControl: cacheControl}
		resp.Body.Plugins = page.Items
		resp.Body.Total = page.Total
		resp.Body.Limit = page.Limit
		resp.Body.Offset = page.Offset
		resp.Body.HasMore = page.HasMore
		return resp, nil
	})
}
