// Package router wires the catalog's HTTP routes.
package router

import (
	"github.com/danielgtaylor/huma/v2"

	v0 "github.com/pluginhub-dev/pluginhub/internal/hub/api/handlers/v0"
	"github.com/pluginhub-dev/pluginhub/internal/hub/service"
)

// Services groups the listing services the API serves.
type Services struct {
	Servers      *service.MCPServerService
	Marketplaces *service.MarketplaceService
	Plugins      *service.PluginService
}

// RegisterRoutes registers all API routes under /api/v0.
func RegisterRoutes(api huma.API, services Services, cacheControl string) {
	pathPrefix := "/api/v0"

	v0.RegisterHealthEndpoint(api, pathPrefix)
	v0.RegisterServersEndpoint(api, pathPrefix, services.Servers, cacheControl)
	v0.RegisterMarketplacesEndpoint(api, pathPrefix, services.Marketplaces, cacheControl)
	v0.RegisterPluginsEndpoint(api, pathPrefix, services.Plugins, cacheControl)
}
