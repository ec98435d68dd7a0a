package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
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
	"github.com/mrops-br/products-contract-api/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler  http.Handler
	server   *httptest.Server
	repo     *memory.ProductRepository
	registry *providerstate.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithLog(t, io.Discard, slog.LevelError)
}

func newTestEnvWithLog(t *testing.T, logOutput io.Writer, level slog.Level) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0", ShutdownTimeout: time.Second},
		OTLP:   config.OTLPConfig{ServiceName: "products-api", Environment: "test", Disabled: true},
		Log:    config.LogConfig{Level: level},
	}
	telem, err := telemetry.NewNoOpTelemetry(cfg, logOutput)
	require.NoError(t, err)
	t.Cleanup(func() { _ = telem.Shutdown(context.Background()) })

	logger := telem.Logger
	tracer := telem.TracerProvider.Tracer("products-api")
	meter := telem.MeterProvider.Meter("products-api")

	repo := memory.NewProductRepository(tracer, logger, providerstate.DefaultCatalog()...)
	registry := providerstate.NewRegistry(repo, tracer, logger)
	svc := service.NewProductService(repo, tracer, meter, logger)

	srv := server.NewServer(
		&cfg.Server,
		handler.NewProductHandler(svc, logger),
		handler.NewProviderStateHandler(registry, logger),
		logger,
		telem,
	)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{handler: srv.Handler(), server: ts, repo: repo, registry: registry}
}

func (e *testEnv) do(t *testing.T, method, path, body string, authorized bool) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		req.Header.Set(auth.HeaderName, auth.Token(time.Now()))
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestServer_RejectsMissingAuthorization(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/products", ""},
		{http.MethodPost, "/products", `{"type":"CREDIT_CARD","name":"28 Degrees"}`},
		{http.MethodGet, "/product/10", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, tt.body, false)

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
			assert.JSONEq(t, `{"message":"Unauthorized"}`, readBody(t, resp))
		})
	}

	products, err := env.repo.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 3)
}

func TestServer_ListsDefaultCatalog(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/products", "", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.JSONEq(t, `[
		{"id":"09","type":"CREDIT_CARD","name":"Gem Visa","version":"v1"},
		{"id":"10","type":"CREDIT_CARD","name":"28 Degrees","version":"v1"},
		{"id":"11","type":"PERSONAL_LOAN","name":"MyFlexiPay","version":"v2"}
	]`, readBody(t, resp))
}

func TestServer_GetProduct(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/product/11", "", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"11","type":"PERSONAL_LOAN","name":"MyFlexiPay","version":"v2"}`, readBody(t, resp))

	resp = env.do(t, http.MethodGet, "/product/99", "", true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Product not found"}`, readBody(t, resp))
}

func TestServer_CreateThenFetch(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.repo.Reset(context.Background(), nil))

	resp := env.do(t, http.MethodPost, "/products", `{"type":"CREDIT_CARD","name":"28 Degrees"}`, true)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, readBody(t, resp))

	resp = env.do(t, http.MethodGet, "/product/1", "", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"1","type":"CREDIT_CARD","name":"28 Degrees","version":"v1"}`, readBody(t, resp))
}

func TestServer_CreateRejectsMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/products", `{"type":`, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	products, err := env.repo.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 3)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", readBody(t, resp))

	env.do(t, http.MethodGet, "/products", "", true)

	resp = env.do(t, http.MethodGet, "/metrics", "", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "go_goroutines")
}

func TestServer_ProviderStateEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/_pact/provider-states",
		`{"consumer":"FrontendWebsite","state":"no products exist","action":"setup"}`, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/products", "", true)
	assert.JSONEq(t, `[]`, readBody(t, resp))

	resp = env.do(t, http.MethodPost, "/_pact/provider-states",
		`{"states":["products exist with ID"]}`, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/product/13", "", true)
	assert.JSONEq(t, `{"id":"13","type":"CREDIT_CARD","name":"28 Degrees"}`, readBody(t, resp))

	resp = env.do(t, http.MethodPost, "/_pact/provider-states", `{"state":"the moon is blue"}`, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/_pact/provider-states", `{"state":"products exist","action":"teardown"}`, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/_pact/provider-states", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed struct {
		States []string `json:"states"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	assert.Contains(t, listed.States, providerstate.ProductsExist)
	assert.Contains(t, listed.States, providerstate.NoProductsExist)
}

func TestServer_HonoursRecordedContract(t *testing.T) {
	env := newTestEnv(t)

	pact, err := contract.Load("../../../pacts/FrontendWebsite-ProductService.json")
	require.NoError(t, err)

	verifier := &contract.Verifier{
		BaseURL:       env.server.URL,
		Client:        env.server.Client(),
		StateHandler:  env.registry.Setup,
		RequestFilter: contract.RefreshAuthorization(time.Now),
	}

	report := verifier.Verify(context.Background(), pact)
	assert.True(t, report.Passed(), report.String())
	assert.Len(t, report.Results, len(pact.Interactions))
}

func TestServer_ContractVerificationOverHTTPStates(t *testing.T) {
	env := newTestEnv(t)

	pact, err := contract.Load("../../../pacts/FrontendWebsite-ProductService.json")
	require.NoError(t, err)

	verifier := &contract.Verifier{
		BaseURL:       env.server.URL,
		Client:        env.server.Client(),
		StateHandler:  contract.HTTPStateHandler(env.server.Client(), env.server.URL+"/_pact/provider-states", pact.Consumer.Name),
		RequestFilter: contract.RefreshAuthorization(time.Now),
	}

	report := verifier.Verify(context.Background(), pact)
	assert.True(t, report.Passed(), report.String())
}

func TestServer_ContractFailsAgainstDriftedProvider(t *testing.T) {
	env := newTestEnv(t)

	// A provider whose catalog drifted from what the consumer recorded
	env.registry.Register(providerstate.ProductsExist, []domain.Product{
		{ID: "09", Type: "DEBIT_CARD", Name: "Gem Visa"},
	})

	pact, err := contract.Load("../../../pacts/FrontendWebsite-ProductService.json")
	require.NoError(t, err)

	verifier := &contract.Verifier{
		BaseURL:       env.server.URL,
		Client:        env.server.Client(),
		StateHandler:  env.registry.Setup,
		RequestFilter: contract.RefreshAuthorization(time.Now),
	}

	report := verifier.Verify(context.Background(), pact)
	assert.False(t, report.Passed())
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, "a request to get all products", report.Results[0].Description)
}

func TestServer_RequestLogCarriesRequestAndTraceIDs(t *testing.T) {
	var logs bytes.Buffer
	env := newTestEnvWithLog(t, &logs, slog.LevelInfo)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set(auth.HeaderName, auth.Token(time.Now()))
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	var line string
	for _, l := range strings.Split(logs.String(), "\n") {
		if strings.Contains(l, `"msg":"HTTP request completed"`) {
			line = l
		}
	}
	require.NotEmpty(t, line, logs.String())

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "/products", entry["http.route"])
	assert.NotEmpty(t, entry["trace_id"])

	assert.Equal(t, 1, strings.Count(line, `"trace_id"`))
	assert.Equal(t, 1, strings.Count(line, `"span_id"`))
}
