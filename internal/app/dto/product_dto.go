package dto

import (
	"github.com/mrops-br/products-contract-api/internal/domain"
)

// CreateProductRequest represents the request to create a product.
// Ids and versions are never taken from the client.
type CreateProductRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// CreateProductResponse reports the result of a create
type CreateProductResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:      p.ID,
		Type:    p.Type,
		Name:    p.Name,
		Version: p.Version,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}
