// Package testing provides test utilities for the catalog services.
package testing

import (
	"context"
	"strings"
	"sync"

	"github.com/pluginhub-dev/pluginhub/internal/hub/database"
	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

// FakeDatabase is a configurable in-memory implementation of
// database.Database for testing. It supports data-driven setup via
// struct fields and function hooks for custom behavior; hooks take
// precedence over data fields when set.
type FakeDatabase struct {
	mu sync.Mutex

	// Data fields for simple data-driven tests
	Servers      []*models.MCPServer
	Marketplaces []*models.Marketplace
	Plugins      []*models.Plugin

	// Err, when set, is returned from every query; it simulates an
	// unreachable database.
	Err error

	// Recorded writes for verification
	Upserted  []*models.MCPServer
	Stats     map[string]database.ServerStats
	Snapshots []*models.StatsSnapshot

	// Call counters for verification
	ListServerCalls int
	ListPluginCalls int

	// Function hooks for custom behavior
	ListMCPServersFn func(ctx context.Context, filter *database.ServerFilter, sort database.Sort, limit, offset int) ([]*models.MCPServer, error)
	ListPluginsFn    func(ctx context.Context, filter *database.PluginFilter, sort database.Sort, limit, offset int) ([]*models.Plugin, error)
	UpsertFn         func(ctx context.Context, server *models.MCPServer) error
}

// NewFakeDatabase creates an empty fake.
func NewFakeDatabase() *FakeDatabase {
	return &FakeDatabase{Stats: map[string]database.ServerStats{}}
}

func matchesSearchTerms(search string, name, displayName, description string, tags []string) bool {
	if search == "" {
		return true
	}
	term := strings.ToLower(search)
	if strings.Contains(strings.ToLower(name), term) ||
		strings.Contains(strings.ToLower(displayName), term) ||
		strings.Contains(strings.ToLower(description), term) {
		return true
	}
	for _, tag := range tags {
		if strings.ToLower(tag) == term {
			return true
		}
	}
	return false
}

func (f *FakeDatabase) filteredServers(filter *database.ServerFilter) []*models.MCPServer {
	out := []*models.MCPServer{}
	for _, s := range f.Servers {
		if !s.Active {
			continue
		}
		if filter != nil {
			if filter.Category != "" && s.Category != filter.Category {
				continue
			}
			if filter.SourceRegistry != "" && s.SourceRegistry != filter.SourceRegistry {
				continue
			}
			if filter.Verification != "" && s.Verification != filter.Verification {
				continue
			}
			if !matchesSearchTerms(filter.Search, s.Name, s.DisplayName, s.Description, s.Tags) {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func (f *FakeDatabase) filteredPlugins(filter *database.PluginFilter) []*models.Plugin {
	out := []*models.Plugin{}
	for _, p := range f.Plugins {
		if !p.Active {
			continue
		}
		if filter != nil {
			if filter.Category != "" && p.Category != filter.Category {
				continue
			}
			if filter.PluginType != "" && p.PluginType != filter.PluginType {
				continue
			}
			if filter.Marketplace != "" && p.Marketplace != filter.Marketplace {
				continue
			}
			if !matchesSearchTerms(filter.Search, p.Name, p.DisplayName, p.Description, p.Keywords) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func pageSlice[T any](all []T, limit, offset int) []T {
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	if limit <= 0 {
		return []T{}
	}
	return all[offset:end]
}

func (f *FakeDatabase) ListMCPServers(ctx context.Context, filter *database.ServerFilter, sort database.Sort, limit, offset int) ([]*models.MCPServer, error) {
	f.mu.Lock()
	f.ListServerCalls++
	f.mu.Unlock()

	if f.ListMCPServersFn != nil {
		return f.ListMCPServersFn(ctx, filter, sort, limit, offset)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return pageSlice(f.filteredServers(filter), limit, offset), nil
}

func (f *FakeDatabase) CountMCPServers(_ context.Context, filter *database.ServerFilter) (int, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return len(f.filteredServers(filter)), nil
}

func (f *FakeDatabase) ListMarketplaces(_ context.Context, filter *database.MarketplaceFilter, _ database.Sort, limit, offset int) ([]*models.Marketplace, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := []*models.Marketplace{}
	for _, m := range f.Marketplaces {
		if !m.Active {
			continue
		}
		if filter != nil {
			if filter.Category != "" && m.Category != filter.Category {
				continue
			}
			if !matchesSearchTerms(filter.Search, m.Name, m.DisplayName, m.Description, m.Tags) {
				continue
			}
		}
		out = append(out, m)
	}
	return pageSlice(out, limit, offset), nil
}

func (f *FakeDatabase) CountMarketplaces(ctx context.Context, filter *database.MarketplaceFilter) (int, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	all, err := f.ListMarketplaces(ctx, filter, database.SortRelevance, len(f.Marketplaces), 0)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (f *FakeDatabase) ListPlugins(ctx context.Context, filter *database.PluginFilter, sort database.Sort, limit, offset int) ([]*models.Plugin, error) {
	f.mu.Lock()
	f.ListPluginCalls++
	f.mu.Unlock()

	if f.ListPluginsFn != nil {
		return f.ListPluginsFn(ctx, filter, sort, limit, offset)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return pageSlice(f.filteredPlugins(filter), limit, offset), nil
}

func (f *FakeDatabase) CountPlugins(_ context.Context, filter *database.PluginFilter) (int, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return len(f.filteredPlugins(filter)), nil
}

func (f *FakeDatabase) UpsertMCPServer(ctx context.Context, server *models.MCPServer) error {
	if f.UpsertFn != nil {
		return f.UpsertFn(ctx, server)
	}
	if f.Err != nil {
		return f.Err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Upserted = append(f.Upserted, server)
	for i, existing := range f.Servers {
		if existing.Slug == server.Slug {
			f.Servers[i] = server
			return nil
		}
	}
	f.Servers = append(f.Servers, server)
	return nil
}

func (f *FakeDatabase) ListActiveServersForStats(context.Context) ([]*models.MCPServer, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := []*models.MCPServer{}
	for _, s := range f.Servers {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *FakeDatabase) UpdateServerStats(_ context.Context, slug string, stats database.ServerStats) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Stats == nil {
		f.Stats = map[string]database.ServerStats{}
	}
	f.Stats[slug] = stats
	return nil
}

func (f *FakeDatabase) InsertStatsSnapshot(_ context.Context, snapshot *models.StatsSnapshot) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Snapshots = append(f.Snapshots, snapshot)
	return nil
}

func (f *FakeDatabase) Close() {}
