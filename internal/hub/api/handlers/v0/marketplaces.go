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

// MarketplaceListInput holds the query parameters of the marketplace
// listing.
type MarketplaceListInput struct {
	Limit    int    `query:"limit" json:"limit,omitempty" doc:"Number of items per page" default:"20" example:"20"`
	Offset   int    `query:"offset" json:"offset,omitempty" doc:"Number of items to skip" example:"0"`
	Search   string `query:"search" json:"search,omitempty" doc:"Search term matched against name, display name, description and tags"`
	Sort     string `query:"sort" json:"sort,omitempty" doc:"Sort order (relevance, name, name-desc, recent, stars, downloads)" example:"relevance"`
	Category string `query:"category" json:"category,omitempty" doc:"Filter by category; 'all' or empty for no filter"`
}

// MarketplaceListResponse is the marketplace listing page.
type MarketplaceListResponse struct {
	CacheControl string `header:"Cache-Control"`
	Body         struct {
		Marketplaces []*models.Marketplace `json:"marketplaces"`
		Total        int                   `json:"total"`
		Limit        int                   `json:"limit"`
		Offset       int                   `json:"offset"`
		HasMore      bool                  `json:"hasMore"`
	}
}

// RegisterMarketplacesEndpoint registers the marketplace listing.
func RegisterMarketplacesEndpoint(api huma.API, pathPrefix string, marketplaces *service.MarketplaceService, cacheControl string) {
	huma.Register(api, huma.Operation{
		OperationID: "list-marketplaces",
		Method:      http.MethodGet,
		Path:        pathPrefix + "/marketplaces",
		Summary:     "List marketplaces",
		Description: "Paginated directory of plugin and skill marketplaces",
		Tags:        []string{"marketplaces"},
	}, func(ctx context.Context, input *MarketplaceListInput) (*MarketplaceListResponse, error) {
		metrics.HTTPRequests.WithLabelValues("marketplaces").Inc()

		page, fromSource := marketplaces.List(ctx, service.MarketplaceListOptions{
			Limit:    input.Limit,
			Offset:   input.Offset,
			Search:   strings.TrimSpace(input.Search),
			Sort:     service.ParseSort(input.Sort),
			Category: service.ParseFilterValue(input.Category),
		})
		if !fromSource {
			metrics.DegradedResponses.WithLabelValues("marketplaces").Inc()
		}

		resp := &MarketplaceListResponse{CacheControl: cacheControl}
		resp.Body.Marketplaces = page.Items
		resp.Body.Total = page.Total
		resp.Body.Limit = page.Limit
		resp.Body.Offset = page.Offset
		resp.Body.HasMore = page.HasMore
		return resp, nil
	})
}
