package server

import (
	"context"
	"net/http"
	"os"

	"github.com/fulmenhq/gofulmen/signals"
	"go.uber.org/zap"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/appid"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/observability"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/server/handlers"
)

// Combined-search API paths.
const (
	CombinedSearchPath = "/api/combined-search"
	SourcesPath        = "/api/sources"
)

const (
	adminSignalPath      = "/admin/signal"
	adminSignalPerMinute = 10
	adminSignalBurst     = 5
)

func (s *Server) registerRoutes() {
	s.router.Method(http.MethodGet, CombinedSearchPath, handlers.NewCombinedSearchHandler(s.opts.Searcher))

	routes := map[string]http.HandlerFunc{
		SourcesPath:       handlers.SourcesHandler(s.opts.Registry),
		"/health":         handlers.HealthHandler,
		"/health/live":    handlers.LivenessHandler,
		"/health/ready":   handlers.ReadinessHandler,
		"/health/startup": handlers.StartupHandler,
		"/version":        handlers.VersionHandler,
		"/metrics":        MetricsHandler,
	}
	for path, handler := range routes {
		s.router.Get(path, handler)
	}

	if token := adminToken(); token != "" {
		s.registerSignalEndpoint(token)
	}
}

// adminToken reads <ENV_PREFIX>ADMIN_TOKEN. An empty token leaves the signal
// endpoint unregistered.
func adminToken() string {
	prefix := "PHARMAINTEL_"
	if identity, _ := appid.Get(context.Background()); identity != nil && identity.EnvPrefix != "" {
		prefix = identity.EnvPrefix
	}
	return os.Getenv(prefix + "ADMIN_TOKEN")
}

// registerSignalEndpoint exposes POST /admin/signal behind a bearer token so
// operators can trigger reload or shutdown without shell access.
func (s *Server) registerSignalEndpoint(token string) {
	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: token,
		RateLimit: adminSignalPerMinute,
		RateBurst: adminSignalBurst,
	})
	s.router.Post(adminSignalPath, handler.ServeHTTP)

	if logger := observability.ServerLogger; logger != nil {
		logger.Warn("Admin signal endpoint enabled",
			zap.String("path", adminSignalPath),
			zap.Int("rate_per_minute", adminSignalPerMinute),
			zap.Int("burst", adminSignalBurst))
	}
}
