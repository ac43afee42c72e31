package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agentrouter/adapters/redisstore"
	"agentrouter/domain"
	"agentrouter/handlers"
	"agentrouter/helpers"
	"agentrouter/interfaces"
	"agentrouter/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	bootLogger := log.WithPrefix(log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)), "ts", log.DefaultTimestampUTC)

	config, err := LoadConfig()
	if err != nil {
		level.Error(bootLogger).Log("msg", "Failed to load configuration", "err", err)
		os.Exit(1)
	}

	logger := level.NewFilter(log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)), logLevelOption(config.LogLevel))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	logger = log.WithPrefix(logger, "caller", log.DefaultCaller)

	level.Info(logger).Log("msg", "Starting agentrouter service")
	level.Info(logger).Log(
		"msg", "Configuration loaded",
		"backend_count", len(config.BackendIPs),
		"max_requests_per_backend", config.MaxRequestsPerBackend,
		"http_port", config.HTTPPort,
		"mapping_ttl", config.MappingTTL,
	)

	backends := make([]domain.Backend, len(config.BackendIPs))
	for i, addr := range config.BackendIPs {
		backends[i] = domain.NewBackend(addr)
	}

	var store interfaces.Store
	{
		redisCfg, err := redisstore.NewClientFromURL(config.RedisURL)
		if err != nil {
			level.Error(logger).Log("msg", "Failed to parse REDIS_URL", "err", err)
			os.Exit(1)
		}
		client := redisstore.NewClient(*redisCfg)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			level.Error(logger).Log("msg", "Failed to connect to coordination store", "err", err)
			os.Exit(1)
		}
		level.Info(logger).Log("msg", "Connected to coordination store")
		store = redisstore.New(client)
	}

	clock := interfaces.TimeProviderFunc(func() time.Time { return time.Now().UTC() })
	registry := prometheus.NewRegistry()

	routing := service.NewRoutingState(store, backends, config.MaxRequestsPerBackend, config.MappingTTL, clock, registry)
	reclaimer := service.NewReclaimer(store, backends, config.MappingTTL, clock, logger, registry)

	validateBody, err := service.ValidateAgentRequestBody()
	if err != nil {
		level.Error(logger).Log("msg", "Failed to build request validator", "err", err)
		os.Exit(1)
	}

	httpServer := handlers.NewHTTPServer(routing, backends, logger)

	var e *echo.Echo
	{
		e = echo.New()
		e.HideBanner = true
		service.RegisterErrorHandler(e, logger)

		headerMiddleware := []echo.MiddlewareFunc{
			helpers.CORS(config.AllowOrigin),
			helpers.HeaderNoCache(),
			helpers.HeaderTimestamp(),
		}
		handlers.RegisterHandlers(e, httpServer, headerMiddleware, validateBody, config.MetricsPath, registry)
	}

	reclaimCtx, reclaimCancel := context.WithCancel(context.Background())
	reclaimer.Start(reclaimCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf(":%d", config.HTTPPort)
		level.Info(logger).Log("msg", "Starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			level.Error(logger).Log("msg", "HTTP server error", "err", err)
		}
	}()

	<-quit
	level.Info(logger).Log("msg", "Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		level.Error(logger).Log("msg", "Error during server shutdown", "err", err)
		reclaimCancel()
		os.Exit(1)
	}
	reclaimCancel()

	level.Info(logger).Log("msg", "Server stopped")
}

// logLevelOption maps a Config.LogLevel string to a go-kit/log level
// option. An empty or unrecognized value defaults to info, matching
// LoadConfig's own default before Config is available.
func logLevelOption(logLevel string) level.Option {
	switch logLevel {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}
