package domain

import (
	"errors"
)

// DefaultVersion is the version tag stamped on every product created through the API
const DefaultVersion = "v1"

var (
	ErrInvalidProductID = errors.New("product id is required")
)

// Product is an immutable snapshot of one catalog item
type Product struct {
	ID      string
	Type    string
	Name    string
	Version string
}

// NewProduct builds a product for an id handed out by the repository
func NewProduct(id, productType, name string) Product {
	return Product{
		ID:      id,
		Type:    productType,
		Name:    name,
		Version: DefaultVersion,
	}
}

// Validate performs the checks a repository applies before storing a product
func (p Product) Validate() error {
	if p.ID == "" {
		return ErrInvalidProductID
	}
	return nil
}
