package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mrops-br/products-contract-api/internal/app/providerstate"
	"github.com/mrops-br/products-contract-api/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newStateHandler() (*ProviderStateHandler, *memory.ProductRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")
	repo := memory.NewProductRepository(tracer, logger, providerstate.DefaultCatalog()...)
	return NewProviderStateHandler(providerstate.NewRegistry(repo, tracer, logger), logger), repo
}

func TestProviderStateRequest_Names(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ProviderStateRequest{State: "x", States: []string{"a", "b"}}.Names())
	assert.Equal(t, []string{"x"}, ProviderStateRequest{State: "x"}.Names())
	assert.Nil(t, ProviderStateRequest{}.Names())
}

func TestProviderStateHandler_Setup(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCount  int
	}{
		{name: "single state", body: `{"state":"no products exist"}`, wantStatus: http.StatusOK, wantCount: 0},
		{name: "states list applied in order", body: `{"states":["no products exist","products exist with ID"]}`, wantStatus: http.StatusOK, wantCount: 1},
		{name: "explicit setup", body: `{"state":"products exist","action":"setup"}`, wantStatus: http.StatusOK, wantCount: 3},
		{name: "teardown leaves store alone", body: `{"state":"no products exist","action":"teardown"}`, wantStatus: http.StatusOK, wantCount: 3},
		{name: "unknown state", body: `{"state":"nothing here"}`, wantStatus: http.StatusBadRequest, wantCount: 3},
		{name: "unknown action", body: `{"state":"no products exist","action":"replay"}`, wantStatus: http.StatusBadRequest, wantCount: 3},
		{name: "malformed body", body: `{"state":`, wantStatus: http.StatusBadRequest, wantCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo := newStateHandler()

			req := httptest.NewRequest(http.MethodPost, "/_pact/provider-states", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Setup(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			products, err := repo.FetchAll(context.Background())
			require.NoError(t, err)
			assert.Len(t, products, tt.wantCount)
		})
	}
}

func TestProviderStateHandler_List(t *testing.T) {
	h, _ := newStateHandler()

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/_pact/provider-states", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"states":["no products exist","products exist","products exist with ID"]}`, rec.Body.String())
}
