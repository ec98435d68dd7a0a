package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mrops-br/products-contract-api/internal/app/providerstate"
	"github.com/mrops-br/products-contract-api/internal/infrastructure/http/response"
)

// ProviderStateRequest is the body a contract verifier posts before replaying
// an interaction. Older verifiers send a single State, newer ones States.
type ProviderStateRequest struct {
	Consumer string         `json:"consumer"`
	State    string         `json:"state"`
	States   []string       `json:"states"`
	Params   map[string]any `json:"params,omitempty"`
	Action   string         `json:"action"`
}

// Names returns the states to apply, in order
func (r ProviderStateRequest) Names() []string {
	if len(r.States) > 0 {
		return r.States
	}
	if r.State != "" {
		return []string{r.State}
	}
	return nil
}

// ProviderStateHandler applies provider states ahead of contract replay
type ProviderStateHandler struct {
	registry *providerstate.Registry
	logger   *slog.Logger
}

// NewProviderStateHandler creates a new provider state handler
func NewProviderStateHandler(registry *providerstate.Registry, logger *slog.Logger) *ProviderStateHandler {
	return &ProviderStateHandler{
		registry: registry,
		logger:   logger,
	}
}

// Setup handles POST /_pact/provider-states
func (h *ProviderStateHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req ProviderStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	switch req.Action {
	case "", "setup":
	case "teardown":
		response.JSON(w, http.StatusOK, map[string]any{})
		return
	default:
		response.Error(w, http.StatusBadRequest, fmt.Errorf("unsupported provider state action %q", req.Action))
		return
	}

	for _, name := range req.Names() {
		if err := h.registry.Setup(r.Context(), name); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, providerstate.ErrUnknownState) {
				status = http.StatusBadRequest
			}
			response.Error(w, status, err)
			return
		}
	}

	h.logger.InfoContext(r.Context(), "Provider states set up",
		slog.String("consumer", req.Consumer),
		slog.Any("states", req.Names()),
	)
	response.JSON(w, http.StatusOK, map[string]any{})
}

// List handles GET /_pact/provider-states
func (h *ProviderStateHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string][]string{"states": h.registry.Names()})
}
