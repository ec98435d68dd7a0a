package providerstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/mrops-br/products-contract-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ProductsExist       = "products exist"
	ProductsExistWithID = "products exist with ID"
	NoProductsExist     = "no products exist"
)

var ErrUnknownState = errors.New("unknown provider state")

// DefaultCatalog is what a freshly started service holds
func DefaultCatalog() []domain.Product {
	return []domain.Product{
		{ID: "09", Type: "CREDIT_CARD", Name: "Gem Visa", Version: "v1"},
		{ID: "10", Type: "CREDIT_CARD", Name: "28 Degrees", Version: "v1"},
		{ID: "11", Type: "PERSONAL_LOAN", Name: "MyFlexiPay", Version: "v2"},
	}
}

func builtinStates() map[string][]domain.Product {
	return map[string][]domain.Product{
		ProductsExist: {
			{ID: "09", Type: "CREDIT_CARD", Name: "Gem Visa"},
			{ID: "10", Type: "CREDIT_CARD", Name: "28 Degrees"},
			{ID: "11", Type: "PERSONAL_LOAN", Name: "MyFlexiPay"},
		},
		ProductsExistWithID: {
			{ID: "13", Type: "CREDIT_CARD", Name: "28 Degrees"},
		},
		NoProductsExist: {},
	}
}

// Registry maps provider state names to repository fixtures
type Registry struct {
	mu       sync.RWMutex
	states   map[string][]domain.Product
	resetter domain.StateResetter
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewRegistry creates a registry preloaded with the built-in states
func NewRegistry(resetter domain.StateResetter, tracer trace.Tracer, logger *slog.Logger) *Registry {
	return &Registry{
		states:   builtinStates(),
		resetter: resetter,
		tracer:   tracer,
		logger:   logger,
	}
}

// Register adds or overrides a named state
func (r *Registry) Register(name string, products []domain.Product) {
	fixture := make([]domain.Product, len(products))
	copy(fixture, products)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[name] = fixture
}

// Names lists the registered states, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.states))
	for name := range r.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fixture returns a copy of the products a state seeds
func (r *Registry) Fixture(name string) ([]domain.Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fixture, ok := r.states[name]
	if !ok {
		return nil, false
	}
	out := make([]domain.Product, len(fixture))
	copy(out, fixture)
	return out, true
}

// Setup replaces the repository contents with the fixture of the named state
func (r *Registry) Setup(ctx context.Context, name string) error {
	ctx, span := r.tracer.Start(ctx, "ProviderState.Setup")
	defer span.End()

	span.SetAttributes(attribute.String("provider_state", name))

	fixture, ok := r.Fixture(name)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownState, name)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unknown provider state")
		r.logger.WarnContext(ctx, "Unknown provider state",
			slog.String("provider_state", name),
		)
		return err
	}

	if err := r.resetter.Reset(ctx, fixture); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to apply provider state")
		return fmt.Errorf("failed to apply provider state %q: %w", name, err)
	}

	r.logger.InfoContext(ctx, "Provider state applied",
		slog.String("provider_state", name),
		slog.Int("count", len(fixture)),
	)

	span.SetStatus(codes.Ok, "Provider state applied")
	return nil
}
