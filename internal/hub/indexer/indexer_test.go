package indexer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginhub-dev/pluginhub/internal/hub/database"
	servicetesting "github.com/pluginhub-dev/pluginhub/internal/hub/service/testing"
	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

func officialPage(names ...string) string {
	servers := ""
	for i, name := range names {
		if i > 0 {
			servers += ","
		}
		servers += fmt.Sprintf(`{"server":{"name":%q,"description":"MCP server for Postgres","version":"1.0.0"}}`, name)
	}
	return `{"servers":[` + servers + `]}`
}

func emptyDockerHub() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}
}

func TestIndexOfficial_SinglePage(t *testing.T) {
	official := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/servers", r.URL.Path)
		_, _ = w.Write([]byte(officialPage("io.github.acme/postgres-mcp", "io.github.acme/other-tool")))
	}))
	defer official.Close()
	dockerHub := httptest.NewServer(emptyDockerHub())
	defer dockerHub.Close()

	fake := servicetesting.NewFakeDatabase()
	svc := New(fake, official.URL, dockerHub.URL)

	run := svc.Run(context.Background())

	assert.Equal(t, 2, run.Official.Indexed)
	assert.Zero(t, run.Official.Failed)
	assert.Zero(t, run.Official.Skipped)
	require.Len(t, fake.Servers, 2)
	assert.Equal(t, "official-postgres-mcp", fake.Servers[0].Slug)
	assert.Equal(t, "databases", fake.Servers[0].Category)
	assert.Equal(t, "acme", fake.Servers[0].Vendor)
}

func TestIndexOfficial_CursorPagination(t *testing.T) {
	var requests atomic.Int32
	official := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		if n == 1 {
			assert.Empty(t, r.URL.Query().Get("cursor"))
			_, _ = fmt.Fprintf(w, `{"servers":[{"server":{"name":"page-one-tool","version":"1.0.0"}}],"metadata":{"nextCursor":"abc"}}`)
			return
		}
		assert.Equal(t, "abc", r.URL.Query().Get("cursor"))
		_, _ = fmt.Fprintf(w, `{"servers":[{"server":{"name":"page-two-tool","version":"1.0.0"}}]}`)
	}))
	defer official.Close()
	dockerHub := httptest.NewServer(emptyDockerHub())
	defer dockerHub.Close()

	fake := servicetesting.NewFakeDatabase()
	run := New(fake, official.URL, dockerHub.URL).Run(context.Background())

	assert.Equal(t, int32(2), requests.Load())
	assert.Equal(t, 2, run.Official.Indexed)
}

func TestIndexOfficial_InfiniteCursorStopsAtPageCeiling(t *testing.T) {
	var requests atomic.Int32
	official := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := requests.Add(1)
		_, _ = fmt.Fprintf(w, `{"servers":[{"server":{"name":"tool-%d","version":"1.0.0"}}],"metadata":{"nextCursor":"c%d"}}`, n, n)
	}))
	defer official.Close()
	dockerHub := httptest.NewServer(emptyDockerHub())
	defer dockerHub.Close()

	fake := servicetesting.NewFakeDatabase()
	run := New(fake, official.URL, dockerHub.URL).Run(context.Background())

	assert.Equal(t, int32(maxPages), requests.Load())
	assert.Equal(t, maxPages, run.Official.Indexed)
}

func TestIndexOfficial_RepositoryAndDisplayName(t *testing.T) {
	official := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"servers":[{"server":{"name":"io.github.acme/postgres-mcp","description":"Postgres access","version":"1.0.0","repository":{"url":"https://github.com/acme/postgres-mcp","source":"github"}}}]}`))
	}))
	defer official.Close()
	dockerHub := httptest.NewServer(emptyDockerHub())
	defer dockerHub.Close()

	fake := servicetesting.NewFakeDatabase()
	run := New(fake, official.URL, dockerHub.URL).Run(context.Background())

	assert.Equal(t, 1, run.Official.Indexed)
	require.Len(t, fake.Servers, 1)
	assert.Equal(t, "https://github.com/acme/postgres-mcp", fake.Servers[0].RepositoryURL)
	assert.Equal(t, "Postgres Mcp", fake.Servers[0].DisplayName)
}

func TestIndexOfficial_MidPaginationFailureDiscardsBatch(t *testing.T) {
	var requests atomic.Int32
	official := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if requests.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"servers":[{"server":{"name":"page-one-tool","version":"1.0.0"}}],"metadata":{"nextCursor":"abc"}}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer official.Close()
	dockerHub := httptest.NewServer(emptyDockerHub())
	defer dockerHub.Close()

	fake := servicetesting.NewFakeDatabase()
	run := New(fake, official.URL, dockerHub.URL).Run(context.Background())

	assert.Equal(t, int32(2), requests.Load())
	assert.Zero(t, run.Official.Indexed, "a fetch failure must drop the whole batch")
	assert.Empty(t, fake.Servers)
}

func TestIndexDockerHub_MidPaginationFailureDiscardsBatch(t *testing.T) {
	var requests atomic.Int32
	var dockerHub *httptest.Server
	dockerHub = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if requests.Add(1) == 1 {
			_, _ = fmt.Fprintf(w, `{"next":%q,"results":[{"repo_name":"acme/solo-tool","pull_count":7}]}`,
				dockerHub.URL+"/v2/search/repositories/?query=mcp&page=2")
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer dockerHub.Close()
	official := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"servers":[]}`))
	}))
	defer official.Close()

	fake := servicetesting.NewFakeDatabase()
	run := New(fake, official.URL, dockerHub.URL).Run(context.Background())

	assert.Zero(t, run.DockerHub.Indexed)
	assert.Empty(t, fake.Servers)
}

func TestIndexOfficial_UpsertIsIdempotent(t *testing.T) {
	official := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(officialPage("io.github.acme/postgres-mcp")))
	}))
	defer official.Close()
	dockerHub := httptest.NewServer(emptyDockerHub())
	defer dockerHub.Close()

	fake := servicetesting.NewFakeDatabase()
	svc := New(fake, official.URL, dockerHub.URL)

	svc.Run(context.Background())
	svc.Run(context.Background())

	assert.Len(t, fake.Servers, 1, "same natural key must not produce duplicate rows")
	assert.Len(t, fake.Upserted, 2)
}

func TestIndexOfficial_EmptyDerivedNameIsSkipped(t *testing.T) {
	official := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(officialPage("acme/---", "acme/real-tool")))
	}))
	defer official.Close()
	dockerHub := httptest.NewServer(emptyDockerHub())
	defer dockerHub.Close()

	fake := servicetesting.NewFakeDatabase()
	run := New(fake, official.URL, dockerHub.URL).Run(context.Background())

	assert.Equal(t, 1, run.Official.Indexed)
	assert.Equal(t, 1, run.Official.Skipped)
	assert.Zero(t, run.Official.Failed)
	assert.Len(t, fake.Servers, 1)
}

func TestIndexOfficial_RecordFailureDoesNotAbortSource(t *testing.T) {
	official := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(officialPage("acme/bad-tool", "acme/good-tool")))
	}))
	defer official.Close()
	dockerHub := httptest.NewServer(emptyDockerHub())
	defer dockerHub.Close()

	fake := servicetesting.NewFakeDatabase()
	fake.UpsertFn = func(_ context.Context, server *models.MCPServer) error {
		if server.Name == "bad-tool" {
			return database.ErrDatabase
		}
		fake.Upserted = append(fake.Upserted, server)
		return nil
	}
	run := New(fake, official.URL, dockerHub.URL).Run(context.Background())

	assert.Equal(t, 1, run.Official.Failed)
	assert.Equal(t, 1, run.Official.Indexed)
	require.Len(t, fake.Upserted, 1)
	assert.Equal(t, "good-tool", fake.Upserted[0].Name)
}

func TestIndexDockerHub_NextLinkPagination(t *testing.T) {
	var requests atomic.Int32
	var dockerHub *httptest.Server
	dockerHub = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			_, _ = fmt.Fprintf(w, `{"next":%q,"results":[{"repo_name":"mcp/playwright","short_description":"Browser automation with Playwright","pull_count":1200,"is_official":true}]}`,
				dockerHub.URL+"/v2/search/repositories/?query=mcp&page=2")
			return
		}
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"results":[{"repo_name":"acme/filesystem-bridge","short_description":"Filesystem access","pull_count":40}]}`))
	}))
	defer dockerHub.Close()
	official := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"servers":[]}`))
	}))
	defer official.Close()

	fake := servicetesting.NewFakeDatabase()
	run := New(fake, official.URL, dockerHub.URL).Run(context.Background())

	assert.Equal(t, 2, run.DockerHub.Indexed)
	require.Len(t, fake.Servers, 2)

	playwright := fake.Servers[0]
	assert.Equal(t, "dockerhub-playwright", playwright.Slug)
	assert.Equal(t, "browser-automation", playwright.Category)
	assert.Equal(t, models.VerificationVerified, playwright.Verification)
	assert.Equal(t, "mcp/playwright", playwright.DockerImage)
	require.NotNil(t, playwright.DockerPulls)
	assert.Equal(t, int64(1200), *playwright.DockerPulls)
}

func TestRun_SourceFailureIsolated(t *testing.T) {
	official := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer official.Close()
	dockerHub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"repo_name":"acme/solo-tool","pull_count":7}]}`))
	}))
	defer dockerHub.Close()

	fake := servicetesting.NewFakeDatabase()
	run := New(fake, official.URL, dockerHub.URL).Run(context.Background())

	assert.Zero(t, run.Official.Indexed)
	assert.Equal(t, 1, run.DockerHub.Indexed, "one source failing must not prevent the other")
}

func TestRun_UnreachableUpstreams(t *testing.T) {
	fake := servicetesting.NewFakeDatabase()
	fake.Err = errors.New("unused")

	run := New(fake, "http://127.0.0.1:1", "http://127.0.0.1:1").Run(context.Background())

	total := run.Total()
	assert.Zero(t, total.Indexed)
	assert.Zero(t, total.Failed)
}
