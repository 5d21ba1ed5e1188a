package service

import (
	"context"

	"github.com/pluginhub-dev/pluginhub/internal/hub/database"
	"github.com/pluginhub-dev/pluginhub/internal/hub/resilience"
	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

// ServerListOptions are boundary-validated inputs for the MCP server
// listing. Filter fields are empty when unfiltered.
type ServerListOptions struct {
	Limit          int
	Offset         int
	Search         string
	Sort           database.Sort
	Category       string
	SourceRegistry string
	Verification   string
}

// MCPServerService lists directory entries for MCP servers.
type MCPServerService struct {
	db      database.Database
	breaker *resilience.Breaker
}

// NewMCPServerService creates the server listing service. The breaker is
// shared with the other listing services.
func NewMCPServerService(db database.Database, breaker *resilience.Breaker) *MCPServerService {
	return &MCPServerService{db: db, breaker: breaker}
}

type serverQueryResult struct {
	items []*models.MCPServer
	total int
}

// List returns one page of servers. The second return is false when the
// page was served from fallback data because the database was
// unavailable; it is never an error.
func (s *MCPServerService) List(ctx context.Context, opts ServerListOptions) (*Page[*models.MCPServer], bool) {
	limit := clampLimit(opts.Limit, DefaultServerLimit)
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	sort := opts.Sort
	if sort == "" {
		sort = database.SortRelevance
	}

	filter := &database.ServerFilter{
		Search:         opts.Search,
		Category:       opts.Category,
		SourceRegistry: opts.SourceRegistry,
		Verification:   opts.Verification,
	}

	fallback := serverQueryResult{items: []*models.MCPServer{}}
	result, fromSource := resilience.Guard(ctx, s.breaker, "servers.list", fallback,
		func(ctx context.Context) (serverQueryResult, error) {
			items, err := s.db.ListMCPServers(ctx, filter, sort, limit, offset)
			if err != nil {
				return serverQueryResult{}, err
			}
			total, err := s.db.CountMCPServers(ctx, filter)
			if err != nil {
				return serverQueryResult{}, err
			}
			return serverQueryResult{items: items, total: total}, nil
		})

	if result.items == nil {
		result.items = []*models.MCPServer{}
	}
	return &Page[*models.MCPServer]{
		Items:   result.items,
		Total:   result.total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(result.items) < result.total,
	}, fromSource
}
