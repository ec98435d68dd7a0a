package service

import (
	"context"
	"log/slog"

	"github.com/mrops-br/products-contract-api/internal/app/dto"
	"github.com/mrops-br/products-contract-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// productNotFoundMessage is the body message of a 404 outcome
const productNotFoundMessage = "Product not found"

// ProductService handles product use cases and maps repository results to outcomes
type ProductService struct {
	repo                  domain.ProductRepository
	tracer                trace.Tracer
	logger                *slog.Logger
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	// Initialize metrics
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		repo:                  repo,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
	}
}

// ListProducts returns every stored product in insertion order
func (s *ProductService) ListProducts(ctx context.Context) dto.Outcome[[]*dto.ProductResponse] {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	products, err := s.repo.FetchAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to retrieve products")
		s.logger.ErrorContext(ctx, "Failed to list products",
			slog.String("error", err.Error()),
		)
		s.record(ctx, "list", "failure")
		return dto.ServerError[[]*dto.ProductResponse](err.Error())
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.record(ctx, "list", "success")

	s.logger.InfoContext(ctx, "Products listed successfully",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return dto.OK(dto.ToProductResponseList(products))
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id string) dto.Outcome[*dto.ProductResponse] {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	product, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to retrieve product")
		s.logger.ErrorContext(ctx, "Failed to get product",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		s.record(ctx, "read", "failure")
		return dto.ServerError[*dto.ProductResponse](err.Error())
	}

	if !found {
		span.SetStatus(codes.Error, productNotFoundMessage)
		s.logger.WarnContext(ctx, productNotFoundMessage,
			slog.String("product_id", id),
		)
		s.record(ctx, "read", "not_found")
		return dto.NotFound[*dto.ProductResponse](productNotFoundMessage)
	}

	s.record(ctx, "read", "success")

	s.logger.InfoContext(ctx, "Product retrieved successfully",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return dto.OK(dto.ToProductResponse(product))
}

// CreateProduct allocates an id, stamps the default version and stores the product
func (s *ProductService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) dto.Outcome[dto.CreateProductResponse] {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.type", req.Type),
		attribute.String("product.name", req.Name),
	)

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("type", req.Type),
		slog.String("name", req.Name),
	)

	product, err := s.repo.Create(ctx, func(id string) domain.Product {
		return domain.NewProduct(id, req.Type, req.Name)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store product")
		s.logger.ErrorContext(ctx, "Failed to store product",
			slog.String("error", err.Error()),
		)
		s.record(ctx, "create", "failure")
		return dto.ServerErrorWithBody(dto.CreateProductResponse{Success: false, Message: err.Error()}, err.Error())
	}

	span.SetAttributes(attribute.String("product.id", product.ID))

	s.productCreatedCounter.Add(ctx, 1)
	s.record(ctx, "create", "success")

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.String("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return dto.Created(dto.CreateProductResponse{Success: true})
}

func (s *ProductService) record(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}
