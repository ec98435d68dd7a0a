package domain

import "context"

// ProductRepository defines the contract for product storage.
// Absence is reported through the found flag of GetByID, never as an error;
// errors are reserved for storage failures.
type ProductRepository interface {
	FetchAll(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (Product, bool, error)
	NextID(ctx context.Context) (string, error)
	Save(ctx context.Context, product Product) (Product, error)

	// Create allocates the next id and stores the product built for it
	// in one step, so concurrent creates never share an id.
	Create(ctx context.Context, build func(id string) Product) (Product, error)
}

// StateResetter replaces the whole product collection. Only fixture setup
// uses it, and only between requests.
type StateResetter interface {
	Reset(ctx context.Context, products []Product) error
}
