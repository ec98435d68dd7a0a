package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mrops-br/products-contract-api/internal/infrastructure/config"
	"github.com/mrops-br/products-contract-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-contract-api/internal/infrastructure/http/middleware"
	"github.com/mrops-br/products-contract-api/internal/infrastructure/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const meterName = "products-api"

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	config     *config.ServerConfig
	products   *handler.ProductHandler
	states     *handler.ProviderStateHandler
	logger     *slog.Logger
	telemetry  *telemetry.Telemetry
	handler    http.Handler
	httpServer *http.Server
}

// NewServer creates a new HTTP server. states may be nil, in which case the
// provider state endpoints are not mounted.
func NewServer(
	cfg *config.ServerConfig,
	products *handler.ProductHandler,
	states *handler.ProviderStateHandler,
	logger *slog.Logger,
	telem *telemetry.Telemetry,
) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		products:  products,
		states:    states,
		logger:    logger,
		telemetry: telem,
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.handler = s.instrument(s.router)
	s.httpServer = &http.Server{
		Addr:    s.Addr(),
		Handler: s.handler,
	}

	return s
}

// setupMiddleware configures the middleware chain
func (s *Server) setupMiddleware() {
	// RequestID runs first so the request log line carries request_id
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.StructuredLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	meter := s.telemetry.MeterProvider.Meter(meterName)
	s.router.Use(middleware.ActiveRequestsMiddleware(meter))
	s.router.Use(middleware.DurationMillisecondsMiddleware(meter))
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Product routes sit behind the authorization gate
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.HTTPRouteContext())
		r.Use(middleware.Authorization(s.logger))

		r.Get("/products", s.products.ListProducts)
		r.Post("/products", s.products.CreateProduct)
		r.Get("/product/{id}", s.products.GetProduct)
	})

	if s.states != nil {
		s.router.Post("/_pact/provider-states", s.states.Setup)
		s.router.Get("/_pact/provider-states", s.states.List)
	}

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint - exposes OpenTelemetry metrics
	s.router.Get("/metrics", s.telemetry.MetricsHandler().ServeHTTP)
}

// instrument wraps the router with otelhttp for server spans and the standard
// http.server.* metrics, tagged with the chi route pattern
func (s *Server) instrument(h http.Handler) http.Handler {
	return otelhttp.NewHandler(h, "http-server",
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
		otelhttp.WithTracerProvider(s.telemetry.TracerProvider),
		otelhttp.WithMeterProvider(s.telemetry.MeterProvider),
		otelhttp.WithMetricAttributesFn(func(r *http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("http.route", middleware.RoutePattern(r)),
			}
		}),
	)
}

// Handler returns the fully instrumented HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)
}

// Start listens and serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		slog.String("address", s.Addr()),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
