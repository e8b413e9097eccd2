// Package api wpilog viewer REST API
//
// @title           wpilog viewer API
// @version         1.0.0
// @description     Query decoded WPILOG channels by time.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"

	"github.com/ssargent/wpilogviewer/pkg/logging"
	"github.com/ssargent/wpilogviewer/pkg/query"
	"github.com/ssargent/wpilogviewer/pkg/wpilog"
)

const shutdownTimeout = 5 * time.Second

// Server holds the API server state
type Server struct {
	index   ChannelIndex
	summary wpilog.Summary
	config  ServerConfig
	metrics *Metrics
	engine  query.Engine
	logger  logging.Logger
}

// NewServer creates a new API server
func NewServer(idx ChannelIndex, summary wpilog.Summary, config ServerConfig, metrics *Metrics, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	metrics.SetChannelsLoaded(len(idx.Entries()))
	return &Server{
		index:   idx,
		summary: summary,
		config:  config,
		metrics: metrics,
		engine:  query.NewSimpleEngine(),
		logger:  logger,
	}
}

// Routes builds the router. Metrics in gatherer are exposed at /metrics.
func (s *Server) Routes(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(s.metrics.InstrumentAuth(apiKeyMiddleware(s.config.APIKey)))
		}

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Get("/header", s.metrics.InstrumentHandler("GET", "/api/v1/header", s.handleHeader))

		r.Get("/channels", s.metrics.InstrumentHandler("GET", "/api/v1/channels", s.handleListChannels))
		r.Get("/channels/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/channels/{id}", s.handleGetChannel))
		r.Get("/channels/{id}/values", s.metrics.InstrumentHandler("GET", "/api/v1/channels/{id}/values", s.handleGetValues))
		r.Get("/channels/{id}/stats", s.metrics.InstrumentHandler("GET", "/api/v1/channels/{id}/stats", s.handleGetStats))
	})

	// Swagger documentation (unprotected)
	r.Get("/swagger/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			s.logger.Error("failed to generate swagger doc", "error", err)
			http.Error(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})

	return r
}

// requestLogger logs each request once it completes.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// StartServer serves idx over HTTP until ctx is cancelled. API metrics are
// registered with reg, which is also what /metrics exposes.
func StartServer(
	ctx context.Context,
	idx ChannelIndex,
	summary wpilog.Summary,
	config ServerConfig,
	reg *prometheus.Registry,
	logger logging.Logger,
) error {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if logger == nil {
		logger = logging.Nop()
	}

	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	SwaggerInfo.Host = addr

	server := NewServer(idx, summary, config, NewMetrics(reg), logger)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	logger.Info("starting wpilog API server", "addr", listener.Addr().String())
	logger.Info("metrics available", "url", fmt.Sprintf("http://%s/metrics", listener.Addr()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
