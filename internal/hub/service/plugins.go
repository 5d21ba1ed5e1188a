package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pluginhub-dev/pluginhub/internal/hub/database"
	"github.com/pluginhub-dev/pluginhub/internal/hub/localcontent"
	"github.com/pluginhub-dev/pluginhub/internal/hub/logging"
	"github.com/pluginhub-dev/pluginhub/internal/hub/resilience"
	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

// PluginListOptions are boundary-validated inputs for the unified plugin
// listing. Marketplace may name the local marketplace, a specific
// external one, or be empty for all.
type PluginListOptions struct {
	Limit       int
	Offset      int
	Search      string
	Sort        database.Sort
	Category    string
	PluginType  string
	Marketplace string
}

// PluginService presents one paginated list spanning the curated local
// content set and externally indexed marketplaces. Local definitions are
// authoritative: an external item sharing a local item's type and
// case-insensitive name never shadows it.
type PluginService struct {
	db      database.Database
	breaker *resilience.Breaker

	// loadLocal is swapped in tests; defaults to localcontent.LoadAll.
	loadLocal func() []localcontent.LoaderResult
}

// NewPluginService creates the unified plugin listing service.
func NewPluginService(db database.Database, breaker *resilience.Breaker) *PluginService {
	return &PluginService{db: db, breaker: breaker, loadLocal: localcontent.LoadAll}
}

func unifiedFromPlugin(p *models.Plugin) models.UnifiedPlugin {
	marketplace := p.Marketplace
	if marketplace == "" {
		marketplace = p.SourceRegistry
	}
	return models.UnifiedPlugin{
		Name:          p.Name,
		DisplayName:   p.DisplayName,
		Description:   p.Description,
		Type:          p.PluginType,
		Category:      p.Category,
		Keywords:      p.Keywords,
		Marketplace:   marketplace,
		Source:        p.SourceRegistry,
		Verification:  p.Verification,
		GitHubStars:   p.GitHubStars,
		DownloadCount: p.DownloadCount,
		UpdatedAt:     p.UpdatedAt,
	}
}

// List returns one page of the merged plugin listing; false means the
// database portion was served from fallback data.
func (s *PluginService) List(ctx context.Context, opts PluginListOptions) (*Page[models.UnifiedPlugin], bool) {
	limit := clampLimit(opts.Limit, DefaultPluginLimit)
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	sort := opts.Sort
	if sort == "" {
		sort = database.SortRelevance
	}

	// A specific external marketplace never includes local content.
	if opts.Marketplace != "" && opts.Marketplace != localcontent.MarketplaceName {
		return s.listExternal(ctx, opts, sort, limit, offset)
	}

	local := s.loadLocalItems(ctx, opts)

	// The local marketplace is served without touching the database.
	if opts.Marketplace == localcontent.MarketplaceName {
		sortUnified(local, sort, opts.Search)
		return pageOf(local, limit, offset), true
	}

	filter := &database.PluginFilter{
		Search:     opts.Search,
		Category:   opts.Category,
		PluginType: opts.PluginType,
	}
	external, fromSource := resilience.Guard(ctx, s.breaker, "plugins.list", []*models.Plugin{},
		func(ctx context.Context) ([]*models.Plugin, error) {
			return s.db.ListPlugins(ctx, filter, sort, mergeFetchLimit, 0)
		})

	merged := mergeUnified(local, external)
	sortUnified(merged, sort, opts.Search)
	return pageOf(merged, limit, offset), fromSource
}

// listExternal serves a marketplace-scoped page straight from the
// database, shaped like any other listing.
func (s *PluginService) listExternal(ctx context.Context, opts PluginListOptions, sort database.Sort, limit, offset int) (*Page[models.UnifiedPlugin], bool) {
	filter := &database.PluginFilter{
		Search:      opts.Search,
		Category:    opts.Category,
		PluginType:  opts.PluginType,
		Marketplace: opts.Marketplace,
	}

	type pluginQueryResult struct {
		items []*models.Plugin
		total int
	}
	fallback := pluginQueryResult{items: []*models.Plugin{}}
	result, fromSource := resilience.Guard(ctx, s.breaker, "plugins.list", fallback,
		func(ctx context.Context) (pluginQueryResult, error) {
			items, err := s.db.ListPlugins(ctx, filter, sort, limit, offset)
			if err != nil {
				return pluginQueryResult{}, err
			}
			total, err := s.db.CountPlugins(ctx, filter)
			if err != nil {
				return pluginQueryResult{}, err
			}
			return pluginQueryResult{items: items, total: total}, nil
		})

	items := make([]models.UnifiedPlugin, 0, len(result.items))
	for _, p := range result.items {
		items = append(items, unifiedFromPlugin(p))
	}
	return &Page[models.UnifiedPlugin]{
		Items:   items,
		Total:   result.total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(items) < result.total,
	}, fromSource
}

// loadLocalItems runs every local loader fresh and filters the results
// with the same predicate the SQL listing uses. A failed loader
// contributes zero items and a logged diagnostic.
func (s *PluginService) loadLocalItems(ctx context.Context, opts PluginListOptions) []models.UnifiedPlugin {
	items := []models.UnifiedPlugin{}
	for _, result := range s.loadLocal() {
		if result.Err != nil {
			logging.Log(ctx, logging.ServiceLog, zapcore.WarnLevel, "local content loader failed",
				zap.String("kind", result.Kind), zap.Error(result.Err))
			continue
		}
		for _, item := range result.Items {
			if matchesUnified(&item, opts.PluginType, opts.Category, opts.Search) {
				items = append(items, item)
			}
		}
	}
	return items
}

// mergeUnified merges local items with database rows, skipping any
// database item whose (type, lowercased name) was already seen among
// local items. Local definitions win on conflict.
func mergeUnified(local []models.UnifiedPlugin, external []*models.Plugin) []models.UnifiedPlugin {
	merged := make([]models.UnifiedPlugin, 0, len(local)+len(external))
	seen := make(map[string]struct{}, len(local))

	for _, item := range local {
		merged = append(merged, item)
		seen[item.Type+":"+strings.ToLower(item.Name)] = struct{}{}
	}
	for _, p := range external {
		key := p.PluginType + ":" + strings.ToLower(p.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		merged = append(merged, unifiedFromPlugin(p))
	}
	return merged
}

// pageOf slices [offset, offset+limit) out of the full merged set.
func pageOf(all []models.UnifiedPlugin, limit, offset int) *Page[models.UnifiedPlugin] {
	total := len(all)

	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	items := make([]models.UnifiedPlugin, end-start)
	copy(items, all[start:end])

	return &Page[models.UnifiedPlugin]{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(items) < total,
	}
}
