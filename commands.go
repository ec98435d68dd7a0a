package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mrops-br/products-contract-api/internal/app/providerstate"
	"github.com/mrops-br/products-contract-api/internal/app/service"
	"github.com/mrops-br/products-contract-api/internal/contract"
	"github.com/mrops-br/products-contract-api/internal/domain"
	"github.com/mrops-br/products-contract-api/internal/infrastructure/config"
	server "github.com/mrops-br/products-contract-api/internal/infrastructure/http"
	"github.com/mrops-br/products-contract-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-contract-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/products-contract-api/internal/infrastructure/telemetry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName = "products-api"
	defaultPactFile     = "pacts/FrontendWebsite-ProductService.json"
	defaultProviderURL  = "http://localhost:8080"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "products-api",
		Short: "Product catalog provider with consumer contract verification",
		Long: `Serves the product catalog consumed by the FrontendWebsite and verifies
recorded consumer contracts against a running provider.

Example:
  products-api serve --port 8080 --provider-states
  products-api verify --provider-base-url http://localhost:8080`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("env-file", ".env", "Path to an env file loaded before reading the environment")

	rootCmd.AddCommand(newServeCmd(), newVerifyCmd(), newStatesCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the product catalog HTTP server",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides SERVER_PORT)")
	cmd.Flags().String("host", "", "Host to bind (overrides SERVER_HOST)")
	cmd.Flags().String("fixtures", "", "YAML file with extra provider state fixtures (overrides CATALOG_FIXTURES_FILE)")
	cmd.Flags().Bool("provider-states", false, "Mount the provider state setup endpoint (overrides PROVIDER_STATES_ENABLED)")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay a consumer contract against a running provider",
		RunE:  runVerify,
	}

	cmd.Flags().String("pact-file", defaultPactFile, "Path to the pact file")
	cmd.Flags().String("provider-base-url", defaultProviderURL, "Base URL of the provider under test")
	cmd.Flags().String("state-setup-url", "", "Provider state endpoint (defaults to <provider-base-url>/_pact/provider-states)")
	return cmd
}

func newStatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "states",
		Short: "List the provider states this service can set up",
		RunE:  runStates,
	}

	cmd.Flags().String("fixtures", "", "YAML file with extra provider state fixtures")
	return cmd
}

// loadConfig reads the env file and environment, then applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, fmt.Errorf("failed to get env-file flag: %w", err)
	}

	cfg, err := config.Load(envFile, cmd.Flags().Changed("env-file"))
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetString("port")
	}
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("fixtures") {
		cfg.Catalog.FixturesFile, _ = flags.GetString("fixtures")
	}
	if flags.Changed("provider-states") {
		cfg.Catalog.ProviderStatesEnabled, _ = flags.GetBool("provider-states")
	}
	return cfg, nil
}

// application is the wired provider
type application struct {
	server   *server.Server
	registry *providerstate.Registry
}

func newApplication(cfg *config.Config, telem *telemetry.Telemetry) (*application, error) {
	tracer := telem.TracerProvider.Tracer(instrumentationName)
	meter := telem.MeterProvider.Meter(instrumentationName)
	logger := telem.Logger

	var seed []domain.Product
	if cfg.Catalog.SeedDefaults {
		seed = providerstate.DefaultCatalog()
	}
	repo := memory.NewProductRepository(tracer, logger, seed...)

	registry := providerstate.NewRegistry(repo, tracer, logger)
	if cfg.Catalog.FixturesFile != "" {
		if err := registry.LoadFixtures(cfg.Catalog.FixturesFile); err != nil {
			return nil, err
		}
	}

	productService := service.NewProductService(repo, tracer, meter, logger)
	productHandler := handler.NewProductHandler(productService, logger)

	var stateHandler *handler.ProviderStateHandler
	if cfg.Catalog.ProviderStatesEnabled {
		stateHandler = handler.NewProviderStateHandler(registry, logger)
		logger.Warn("Provider state endpoint enabled; do not expose this instance publicly")
	}

	return &application{
		server:   server.NewServer(&cfg.Server, productHandler, stateHandler, logger, telem),
		registry: registry,
	}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var telem *telemetry.Telemetry
	if cfg.OTLP.Disabled {
		telem, err = telemetry.NewNoOpTelemetry(cfg, os.Stdout)
	} else {
		telem, err = telemetry.NewTelemetry(ctx, cfg, os.Stdout)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	// Ensure telemetry is shutdown on exit
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Error shutting down telemetry: %v\n", err)
		}
	}()

	logger := telem.Logger
	logger.Info("Starting Products API")

	app, err := newApplication(cfg, telem)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", slog.String("error", err.Error()))
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	pactFile, _ := cmd.Flags().GetString("pact-file")
	baseURL, _ := cmd.Flags().GetString("provider-base-url")
	setupURL, _ := cmd.Flags().GetString("state-setup-url")
	if setupURL == "" {
		setupURL = strings.TrimSuffix(baseURL, "/") + "/_pact/provider-states"
	}

	pact, err := contract.Load(pactFile)
	if err != nil {
		return err
	}

	logger := telemetry.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level, &cfg.OTLP)
	client := &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	verifier := &contract.Verifier{
		BaseURL:       baseURL,
		Client:        client,
		StateHandler:  contract.HTTPStateHandler(client, setupURL, pact.Consumer.Name),
		RequestFilter: contract.RefreshAuthorization(time.Now),
		Logger:        logger,
	}

	report := verifier.Verify(cmd.Context(), pact)
	fmt.Fprint(cmd.OutOrStdout(), report.String())

	if !report.Passed() {
		return errors.New("contract verification failed")
	}
	return nil
}

func runStates(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := telemetry.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level, &cfg.OTLP)
	tracer := noop.NewTracerProvider().Tracer(instrumentationName)

	registry := providerstate.NewRegistry(memory.NewProductRepository(tracer, logger), tracer, logger)
	if cfg.Catalog.FixturesFile != "" {
		if err := registry.LoadFixtures(cfg.Catalog.FixturesFile); err != nil {
			return err
		}
	}

	for _, name := range registry.Names() {
		fixture, _ := registry.Fixture(name)
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d products)\n", name, len(fixture))
	}
	return nil
}
