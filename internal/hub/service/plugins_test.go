package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginhub-dev/pluginhub/internal/hub/database"
	"github.com/pluginhub-dev/pluginhub/internal/hub/localcontent"
	"github.com/pluginhub-dev/pluginhub/internal/hub/resilience"
	servicetesting "github.com/pluginhub-dev/pluginhub/internal/hub/service/testing"
	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

func localItem(name, pluginType string) models.UnifiedPlugin {
	return models.UnifiedPlugin{
		Name:         name,
		DisplayName:  name,
		Type:         pluginType,
		Category:     "development",
		Marketplace:  localcontent.MarketplaceName,
		Source:       models.SourceLocal,
		Verification: models.VerificationVerified,
	}
}

func dbPlugin(name, pluginType string, downloads int64) *models.Plugin {
	return &models.Plugin{
		Name:           name,
		DisplayName:    name,
		PluginType:     pluginType,
		Category:       "development",
		Marketplace:    "community-hub",
		SourceRegistry: models.SourceCommunity,
		Verification:   models.VerificationCommunity,
		DownloadCount:  &downloads,
		Active:         true,
		UpdatedAt:      time.Now(),
	}
}

func fixedLoaders(items ...models.UnifiedPlugin) func() []localcontent.LoaderResult {
	return func() []localcontent.LoaderResult {
		return []localcontent.LoaderResult{{Kind: models.PluginTypePlugin, Items: items}}
	}
}

func newPluginService(fake *servicetesting.FakeDatabase, loaders func() []localcontent.LoaderResult) *PluginService {
	svc := NewPluginService(fake, resilience.NewBreaker())
	if loaders != nil {
		svc.loadLocal = loaders
	}
	return svc
}

func TestPluginList_LocalWinsOnTypeAndNameConflict(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Plugins = append(fake.Plugins,
		dbPlugin("Git-Flow", models.PluginTypePlugin, 900),
		dbPlugin("other-tool", models.PluginTypePlugin, 100),
	)
	svc := newPluginService(fake, fixedLoaders(localItem("git-flow", models.PluginTypePlugin)))

	for _, sortBy := range []database.Sort{database.SortRelevance, database.SortName, database.SortDownloads} {
		page, fromSource := svc.List(context.Background(), PluginListOptions{Limit: 10, Sort: sortBy})

		assert.True(t, fromSource)
		assert.Equal(t, 2, page.Total)

		occurrences := 0
		for _, item := range page.Items {
			if item.Type == models.PluginTypePlugin && strings.EqualFold(item.Name, "git-flow") {
				occurrences++
				assert.Equal(t, models.SourceLocal, item.Source, "sort %s: local definition must shadow the indexed one", sortBy)
			}
		}
		assert.Equal(t, 1, occurrences, "sort %s", sortBy)
	}
}

func TestPluginList_SameNameDifferentTypeBothKept(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Plugins = append(fake.Plugins, dbPlugin("formatter", models.PluginTypeSkill, 10))
	svc := newPluginService(fake, fixedLoaders(localItem("formatter", models.PluginTypeHook)))

	page, _ := svc.List(context.Background(), PluginListOptions{Limit: 10})

	assert.Equal(t, 2, page.Total)
}

func TestPluginList_LocalMarketplaceSkipsDatabase(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Err = errors.New("connection refused")
	svc := newPluginService(fake, fixedLoaders(
		localItem("git-flow", models.PluginTypePlugin),
		localItem("docker-helper", models.PluginTypePlugin),
	))

	page, fromSource := svc.List(context.Background(), PluginListOptions{
		Limit:       10,
		Marketplace: localcontent.MarketplaceName,
	})

	assert.True(t, fromSource, "local-only listings never degrade on database failure")
	assert.Equal(t, 2, page.Total)
	assert.Zero(t, fake.ListPluginCalls)
}

func TestPluginList_ExternalMarketplaceExcludesLocal(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Plugins = append(fake.Plugins, dbPlugin("external-tool", models.PluginTypePlugin, 5))
	svc := newPluginService(fake, fixedLoaders(localItem("git-flow", models.PluginTypePlugin)))

	page, fromSource := svc.List(context.Background(), PluginListOptions{
		Limit:       10,
		Marketplace: "community-hub",
	})

	assert.True(t, fromSource)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "external-tool", page.Items[0].Name)
	assert.NotEqual(t, models.SourceLocal, page.Items[0].Source)
}

func TestPluginList_DatabaseFailureStillServesLocal(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Err = errors.New("connection refused")
	svc := newPluginService(fake, fixedLoaders(localItem("git-flow", models.PluginTypePlugin)))

	page, fromSource := svc.List(context.Background(), PluginListOptions{Limit: 10})

	assert.False(t, fromSource)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "git-flow", page.Items[0].Name)
	assert.Equal(t, 1, page.Total)
}

func TestPluginList_FailedLoaderContributesNothing(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	svc := newPluginService(fake, func() []localcontent.LoaderResult {
		return []localcontent.LoaderResult{
			{Kind: models.PluginTypeSkill, Err: errors.New("unexpected end of JSON input")},
			{Kind: models.PluginTypePlugin, Items: []models.UnifiedPlugin{localItem("git-flow", models.PluginTypePlugin)}},
		}
	})

	page, fromSource := svc.List(context.Background(), PluginListOptions{Limit: 10})

	assert.True(t, fromSource)
	assert.Equal(t, 1, page.Total)
}

func TestPluginList_RelevanceOrdering(t *testing.T) {
	exact := localItem("git", models.PluginTypePlugin)
	prefix := localItem("gitlab-ci", models.PluginTypePlugin)
	substring := localItem("my-git-tool", models.PluginTypePlugin)
	unrelated := localItem("unrelated", models.PluginTypePlugin)

	fake := servicetesting.NewFakeDatabase()
	svc := newPluginService(fake, fixedLoaders(unrelated, substring, prefix, exact))

	page, fromSource := svc.List(context.Background(), PluginListOptions{
		Limit:  10,
		Search: "git",
		Sort:   database.SortRelevance,
	})

	assert.True(t, fromSource)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "git", page.Items[0].Name)
	assert.Equal(t, "gitlab-ci", page.Items[1].Name)
	assert.Equal(t, "my-git-tool", page.Items[2].Name)
	assert.Equal(t, 3, page.Total)
	assert.False(t, page.HasMore)
}

func TestPluginList_MergedPagination(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Plugins = append(fake.Plugins,
		dbPlugin("ext-a", models.PluginTypePlugin, 3),
		dbPlugin("ext-b", models.PluginTypePlugin, 2),
		dbPlugin("ext-c", models.PluginTypePlugin, 1),
	)
	svc := newPluginService(fake, fixedLoaders(
		localItem("local-a", models.PluginTypePlugin),
		localItem("local-b", models.PluginTypePlugin),
	))

	first, _ := svc.List(context.Background(), PluginListOptions{Limit: 2, Offset: 0, Sort: database.SortDownloads})
	second, _ := svc.List(context.Background(), PluginListOptions{Limit: 2, Offset: 2, Sort: database.SortDownloads})
	third, _ := svc.List(context.Background(), PluginListOptions{Limit: 2, Offset: 4, Sort: database.SortDownloads})

	assert.Equal(t, 5, first.Total)
	assert.Len(t, first.Items, 2)
	assert.True(t, first.HasMore)
	assert.Len(t, second.Items, 2)
	assert.True(t, second.HasMore)
	assert.Len(t, third.Items, 1)
	assert.False(t, third.HasMore)

	seen := map[string]bool{}
	for _, page := range []*Page[models.UnifiedPlugin]{first, second, third} {
		for _, item := range page.Items {
			assert.False(t, seen[item.Name], "item %s appeared on two pages", item.Name)
			seen[item.Name] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestPluginList_TypeFilterAppliesToBothSides(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Plugins = append(fake.Plugins,
		dbPlugin("ext-skill", models.PluginTypeSkill, 1),
		dbPlugin("ext-plugin", models.PluginTypePlugin, 1),
	)
	svc := newPluginService(fake, fixedLoaders(
		localItem("local-skill", models.PluginTypeSkill),
		localItem("local-plugin", models.PluginTypePlugin),
	))

	page, _ := svc.List(context.Background(), PluginListOptions{Limit: 10, PluginType: models.PluginTypeSkill})

	assert.Equal(t, 2, page.Total)
	for _, item := range page.Items {
		assert.Equal(t, models.PluginTypeSkill, item.Type)
	}
}

func TestSortUnified_TiesBrokenByPopularity(t *testing.T) {
	busy := int64(500)
	quiet := int64(5)
	items := []models.UnifiedPlugin{
		{Name: "git-quiet", DownloadCount: &quiet},
		{Name: "git-busy", DownloadCount: &busy},
	}

	sortUnified(items, database.SortRelevance, "git")

	assert.Equal(t, "git-busy", items[0].Name)
	assert.Equal(t, "git-quiet", items[1].Name)
}

func TestMatchesUnified_KeywordIsExactMatch(t *testing.T) {
	item := models.UnifiedPlugin{Name: "pdf-processing", Keywords: []string{"documents", "pdf"}}

	assert.True(t, matchesUnified(&item, "", "", "documents"))
	assert.False(t, matchesUnified(&item, "", "", "docum"))
}
