// Package database provides Postgres-backed storage for the plugin
// catalog: listing queries, the indexer upsert, and stats snapshots.
package database

import (
	"context"
	"errors"

	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

// Common database errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
)

// Sort is a closed set of sort orders. HTTP-facing code validates into
// this type at the boundary; unknown values never reach a query.
type Sort string

const (
	// SortRelevance is the default: popularity without a search term,
	// tiered textual match quality with one.
	SortRelevance Sort = "relevance"
	// SortName orders lexicographically by display name, ascending.
	SortName Sort = "name"
	// SortNameDesc orders lexicographically by display name, descending.
	SortNameDesc Sort = "name-desc"
	// SortRecent orders by update timestamp, newest first.
	SortRecent Sort = "recent"
	// SortStars orders by star count descending, missing treated as zero.
	SortStars Sort = "stars"
	// SortDownloads orders by download/pull counter descending, missing
	// treated as zero.
	SortDownloads Sort = "downloads"
)

// ServerFilter narrows MCP server listings. Empty fields are skipped;
// all filters are combined with AND. Active=false rows are always
// excluded regardless of the filter.
type ServerFilter struct {
	Search         string
	Category       string
	SourceRegistry string
	Verification   string
}

// MarketplaceFilter narrows marketplace listings.
type MarketplaceFilter struct {
	Search   string
	Category string
}

// PluginFilter narrows plugin listings.
type PluginFilter struct {
	Search      string
	Category    string
	PluginType  string
	Marketplace string
}

// ServerStats carries one refreshed metric set for a server.
type ServerStats struct {
	GitHubStars *int64
	DockerPulls *int64
}

// Database is the storage contract consumed by the listing services, the
// registry indexer and the stats syncer.
type Database interface {
	// ListMCPServers returns one page of active servers under the filter
	// and sort. Limit 0 returns no rows.
	ListMCPServers(ctx context.Context, filter *ServerFilter, sort Sort, limit, offset int) ([]*models.MCPServer, error)
	// CountMCPServers counts active servers under the same predicate as
	// ListMCPServers.
	CountMCPServers(ctx context.Context, filter *ServerFilter) (int, error)

	ListMarketplaces(ctx context.Context, filter *MarketplaceFilter, sort Sort, limit, offset int) ([]*models.Marketplace, error)
	CountMarketplaces(ctx context.Context, filter *MarketplaceFilter) (int, error)

	ListPlugins(ctx context.Context, filter *PluginFilter, sort Sort, limit, offset int) ([]*models.Plugin, error)
	CountPlugins(ctx context.Context, filter *PluginFilter) (int, error)

	// UpsertMCPServer inserts the record or, on slug conflict, overwrites
	// all descriptive fields with the fetched values and stamps
	// updated_at/last_indexed_at. created_at, active and stats columns
	// are left untouched on update.
	UpsertMCPServer(ctx context.Context, server *models.MCPServer) error

	// ListActiveServersForStats returns every active server so the stats
	// syncer can iterate them.
	ListActiveServersForStats(ctx context.Context) ([]*models.MCPServer, error)
	// UpdateServerStats writes non-nil metrics onto the server row.
	UpdateServerStats(ctx context.Context, slug string, stats ServerStats) error
	// InsertStatsSnapshot appends one immutable snapshot row.
	InsertStatsSnapshot(ctx context.Context, snapshot *models.StatsSnapshot) error

	Close()
}
