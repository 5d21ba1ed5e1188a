package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginhub-dev/pluginhub/internal/hub/database"
	"github.com/pluginhub-dev/pluginhub/internal/hub/resilience"
	"github.com/pluginhub-dev/pluginhub/internal/hub/service"
	servicetesting "github.com/pluginhub-dev/pluginhub/internal/hub/service/testing"
	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

func newServer(slug, name string, active bool) *models.MCPServer {
	return &models.MCPServer{
		Slug:           slug,
		Name:           name,
		DisplayName:    name,
		SourceRegistry: models.SourceOfficial,
		Verification:   models.VerificationUnverified,
		Category:       "utilities",
		Active:         active,
	}
}

func TestServerList_PaginationArithmetic(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	for i := 0; i < 25; i++ {
		fake.Servers = append(fake.Servers, newServer(string(rune('a'+i)), "server", true))
	}
	svc := service.NewMCPServerService(fake, resilience.NewBreaker())

	page, fromSource := svc.List(context.Background(), service.ServerListOptions{Limit: 10, Offset: 20})

	assert.True(t, fromSource)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 25, page.Total)
	assert.False(t, page.HasMore)

	page, _ = svc.List(context.Background(), service.ServerListOptions{Limit: 10, Offset: 0})
	assert.Len(t, page.Items, 10)
	assert.True(t, page.HasMore)
}

func TestServerList_LimitZeroYieldsTruthfulTotal(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Servers = append(fake.Servers, newServer("a", "one", true), newServer("b", "two", true))
	svc := service.NewMCPServerService(fake, resilience.NewBreaker())

	page, fromSource := svc.List(context.Background(), service.ServerListOptions{Limit: 0})

	assert.True(t, fromSource)
	assert.Empty(t, page.Items)
	assert.Equal(t, 2, page.Total)
	assert.True(t, page.HasMore)
}

func TestServerList_OffsetBeyondTotal(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Servers = append(fake.Servers, newServer("a", "one", true))
	svc := service.NewMCPServerService(fake, resilience.NewBreaker())

	page, _ := svc.List(context.Background(), service.ServerListOptions{Limit: 10, Offset: 50})

	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Total)
	assert.False(t, page.HasMore)
}

func TestServerList_NegativeLimitUsesDefaultAndCapIsApplied(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	svc := service.NewMCPServerService(fake, resilience.NewBreaker())

	page, _ := svc.List(context.Background(), service.ServerListOptions{Limit: -1})
	assert.Equal(t, service.DefaultServerLimit, page.Limit)

	page, _ = svc.List(context.Background(), service.ServerListOptions{Limit: 500})
	assert.Equal(t, service.MaxLimit, page.Limit)
}

func TestServerList_InactiveExcluded(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Servers = append(fake.Servers,
		newServer("a", "active-one", true),
		newServer("b", "inactive-one", false),
	)
	svc := service.NewMCPServerService(fake, resilience.NewBreaker())

	page, _ := svc.List(context.Background(), service.ServerListOptions{Limit: 10})

	require.Len(t, page.Items, 1)
	assert.Equal(t, "active-one", page.Items[0].Name)
}

func TestServerList_ZeroMatchFilter(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Servers = append(fake.Servers, newServer("a", "one", true))
	svc := service.NewMCPServerService(fake, resilience.NewBreaker())

	page, fromSource := svc.List(context.Background(), service.ServerListOptions{
		Limit:    10,
		Category: "no-such-category",
	})

	assert.True(t, fromSource)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Total)
	assert.False(t, page.HasMore)
}

func TestServerList_SearchIsCaseInsensitive(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	slack := newServer("a", "slack-connector", true)
	slack.DisplayName = "Slack Connector"
	fake.Servers = append(fake.Servers, slack, newServer("b", "unrelated", true))
	svc := service.NewMCPServerService(fake, resilience.NewBreaker())

	lower, _ := svc.List(context.Background(), service.ServerListOptions{Limit: 10, Search: "slack"})
	upper, _ := svc.List(context.Background(), service.ServerListOptions{Limit: 10, Search: "SLACK"})

	require.Len(t, lower.Items, 1)
	require.Len(t, upper.Items, 1)
	assert.Equal(t, lower.Items[0].Slug, upper.Items[0].Slug)
}

func TestServerList_QueryFailureYieldsEmptyPage(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Err = errors.New("connection refused")
	svc := service.NewMCPServerService(fake, resilience.NewBreaker())

	page, fromSource := svc.List(context.Background(), service.ServerListOptions{Limit: 10})

	assert.False(t, fromSource)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Total)
	assert.False(t, page.HasMore)
}

func TestServerList_BreakerSkipsQueriesWhileOpen(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Err = errors.New("connection refused")
	svc := service.NewMCPServerService(fake, resilience.NewBreaker())

	_, _ = svc.List(context.Background(), service.ServerListOptions{Limit: 10})
	callsAfterFirst := fake.ListServerCalls

	_, fromSource := svc.List(context.Background(), service.ServerListOptions{Limit: 10})

	assert.False(t, fromSource)
	assert.Equal(t, callsAfterFirst, fake.ListServerCalls)
}

func TestParseSort_UnknownFallsBackToRelevance(t *testing.T) {
	assert.Equal(t, database.SortRelevance, service.ParseSort("bogus"))
	assert.Equal(t, database.SortRelevance, service.ParseSort(""))
	assert.Equal(t, database.SortName, service.ParseSort("name"))
	assert.Equal(t, database.SortRecent, service.ParseSort("recent"))
}

func TestParseFilterValue_AllSentinel(t *testing.T) {
	assert.Equal(t, "", service.ParseFilterValue("all"))
	assert.Equal(t, "databases", service.ParseFilterValue("databases"))
}

func TestParseSourceRegistry_UnknownUnset(t *testing.T) {
	assert.Equal(t, "", service.ParseSourceRegistry("bogus"))
	assert.Equal(t, models.SourceOfficial, service.ParseSourceRegistry("official"))
}
