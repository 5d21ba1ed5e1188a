package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pluginhub-dev/pluginhub/internal/hub/api/router"
	"github.com/pluginhub-dev/pluginhub/internal/hub/config"
	"github.com/pluginhub-dev/pluginhub/internal/hub/database"
	"github.com/pluginhub-dev/pluginhub/internal/hub/logging"
	"github.com/pluginhub-dev/pluginhub/internal/hub/resilience"
	"github.com/pluginhub-dev/pluginhub/internal/hub/service"
	"github.com/pluginhub-dev/pluginhub/internal/version"
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the catalog API server",
	Long:  `Starts the HTTP API serving the server, marketplace and plugin listings.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.NewPostgreSQL(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	breaker := resilience.NewBreaker()
	services := router.Services{
		Servers:      service.NewMCPServerService(db, breaker),
		Marketplaces: service.NewMarketplaceService(db, breaker),
		Plugins:      service.NewPluginService(db, breaker),
	}

	mux := http.NewServeMux()
	humaConfig := huma.DefaultConfig("PluginHub", version.Version)
	humaConfig.Info.Description = "Directory API for Claude Code plugins, skills, MCP servers and marketplaces."
	api := humago.New(mux, humaConfig)
	router.RegisterRoutes(api, services, cfg.ListingCacheControl)

	mux.Handle("/metrics", promhttp.Handler())

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}).Handler(requestIDMiddleware(mux))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logging.Log(ctx, logging.SystemLog, zapcore.InfoLevel, "starting catalog server",
		zap.String("addr", cfg.ListenAddr))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestIDMiddleware tags every request with a request_id so log lines
// across layers correlate.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(logging.SetRequestID(r.Context(), requestID)))
	})
}
