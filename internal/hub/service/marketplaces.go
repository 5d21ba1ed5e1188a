package service

import (
	"context"

	"github.com/pluginhub-dev/pluginhub/internal/hub/database"
	"github.com/pluginhub-dev/pluginhub/internal/hub/resilience"
	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

// MarketplaceListOptions are boundary-validated inputs for the
// marketplace listing.
type MarketplaceListOptions struct {
	Limit    int
	Offset   int
	Search   string
	Sort     database.Sort
	Category string
}

// MarketplaceService lists plugin/skill marketplaces.
type MarketplaceService struct {
	db      database.Database
	breaker *resilience.Breaker
}

// NewMarketplaceService creates the marketplace listing service.
func NewMarketplaceService(db database.Database, breaker *resilience.Breaker) *MarketplaceService {
	return &MarketplaceService{db: db, breaker: breaker}
}

type marketplaceQueryResult struct {
	items []*models.Marketplace
	total int
}

// List returns one page of marketplaces; false means fallback data.
func (s *MarketplaceService) List(ctx context.Context, opts MarketplaceListOptions) (*Page[*models.Marketplace], bool) {
	limit := clampLimit(opts.Limit, DefaultMarketplaceLimit)
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	sort := opts.Sort
	if sort == "" {
		sort = database.SortRelevance
	}

	filter := &database.MarketplaceFilter{
		Search:   opts.Search,
		Category: opts.Category,
	}

	fallback := marketplaceQueryResult{items: []*models.Marketplace{}}
	result, fromSource := resilience.Guard(ctx, s.breaker, "marketplaces.list", fallback,
		func(ctx context.Context) (marketplaceQueryResult, error) {
			items, err := s.db.ListMarketplaces(ctx, filter, sort, limit, offset)
			if err != nil {
				return marketplaceQueryResult{}, err
			}
			total, err := s.db.CountMarketplaces(ctx, filter)
			if err != nil {
				return marketplaceQueryResult{}, err
			}
			return marketplaceQueryResult{items: items, total: total}, nil
		})

	if result.items == nil {
		result.items = []*models.Marketplace{}
	}
	return &Page[*models.Marketplace]{
		Items:   result.items,
		Total:   result.total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(result.items) < result.total,
	}, fromSource
}
