package v0

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pluginhub-dev/pluginhub/internal/version"
)

// HealthBody reports service liveness.
type HealthBody struct {
	Status  string `json:"status" example:"ok" doc:"Health status"`
	Version string `json:"version,omitempty" doc:"Build version"`
}

// HealthResponse wraps the health body.
type HealthResponse struct {
	Body HealthBody
}

// RegisterHealthEndpoint registers the liveness endpoint.
func RegisterHealthEndpoint(api huma.API, pathPrefix string) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        pathPrefix + "/health",
		Summary:     "Health check",
		Description: "Simple liveness endpoint",
		Tags:        []string{"health"},
	}, func(_ context.Context, _ *struct{}) (*HealthResponse, error) {
		return &HealthResponse{
			Body: HealthBody{
				Status:  "ok",
				Version: version.Version,
			},
		}, nil
	})
}
