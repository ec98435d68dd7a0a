package memory

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/mrops-br/products-contract-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductRepository is an in-memory implementation of domain.ProductRepository.
// Products are returned in insertion order.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	order    []string
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewProductRepository creates a new in-memory product repository holding seed
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger, seed ...domain.Product) *ProductRepository {
	r := &ProductRepository{
		tracer: tracer,
		logger: logger,
	}
	r.replace(seed)
	return r
}

// FetchAll retrieves all products
func (r *ProductRepository) FetchAll(ctx context.Context) ([]domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FetchAll")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]domain.Product, 0, len(r.order))
	for _, id := range r.order {
		products = append(products, r.products[id])
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))

	r.logger.DebugContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (domain.Product, bool, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	span.SetAttributes(attribute.Bool("product.found", exists))
	if !exists {
		r.logger.DebugContext(ctx, "Product not in repository",
			slog.String("product_id", id),
		)
		return domain.Product{}, false, nil
	}

	span.SetStatus(codes.Ok, "Product found")
	return product, true, nil
}

// NextID returns the smallest positive integer id not yet stored.
// It reserves nothing: the id is taken only once a product is saved under it.
func (r *ProductRepository) NextID(ctx context.Context) (string, error) {
	_, span := r.tracer.Start(ctx, "ProductRepository.NextID")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	id := r.nextIDLocked()
	span.SetAttributes(attribute.String("product.id", id))
	return id, nil
}

// Save inserts or replaces the product stored under product.ID
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Save")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID))

	if err := product.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid product")
		return domain.Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.putLocked(product)

	r.logger.InfoContext(ctx, "Product saved in repository",
		slog.String("product_id", product.ID),
		slog.String("product_name", product.Name),
	)

	span.SetStatus(codes.Ok, "Product saved successfully")
	return product, nil
}

// Create allocates the next id and stores build(id) under the same write lock
func (r *ProductRepository) Create(ctx context.Context, build func(id string) domain.Product) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextIDLocked()
	product := build(id)
	product.ID = id

	r.putLocked(product)

	span.SetAttributes(
		attribute.String("product.id", product.ID),
		attribute.String("product.name", product.Name),
	)

	r.logger.InfoContext(ctx, "Product created in repository",
		slog.String("product_id", product.ID),
		slog.String("product_name", product.Name),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return product, nil
}

// Reset replaces the whole collection with products, in the given order
func (r *ProductRepository) Reset(ctx context.Context, products []domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Reset")
	defer span.End()

	for _, p := range products {
		if err := p.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Invalid fixture product")
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.replace(products)

	span.SetAttributes(attribute.Int("product.count", len(r.order)))
	r.logger.InfoContext(ctx, "Repository contents replaced",
		slog.Int("count", len(r.order)),
	)

	span.SetStatus(codes.Ok, "Repository reset")
	return nil
}

func (r *ProductRepository) replace(products []domain.Product) {
	r.products = make(map[string]domain.Product, len(products))
	r.order = make([]string, 0, len(products))
	for _, p := range products {
		r.putLocked(p)
	}
}

func (r *ProductRepository) putLocked(product domain.Product) {
	if _, exists := r.products[product.ID]; !exists {
		r.order = append(r.order, product.ID)
	}
	r.products[product.ID] = product
}

func (r *ProductRepository) nextIDLocked() string {
	candidate := 1
	for {
		id := strconv.Itoa(candidate)
		if _, taken := r.products[id]; !taken {
			return id
		}
		candidate++
	}
}
