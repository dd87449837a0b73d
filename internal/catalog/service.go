package catalog

import (
	"context"

	pkgerrors "github.com/angelmondragon/tierpay/pkg/errors"
)

// Service exposes the tiered plan catalog.
type Service interface {
	ListProducts(ctx context.Context) ([]ProductDTO, error)
	GetProduct(ctx context.Context, id string) (*ProductDTO, error)
	GetProductByUserCount(ctx context.Context, users int) (*ProductDTO, error)
}

// ProductDTO is the wire representation of one pricing tier.
type ProductDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Currency    string   `json:"currency"`
	Users       int      `json:"users"`
	Features    []string `json:"features"`
}

type service struct {
	products []ProductDTO
}

// NewService constructs the catalog service over the fixed tier list.
func NewService() Service {
	return &service{products: tiers()}
}

func (s *service) ListProducts(ctx context.Context) ([]ProductDTO, error) {
	out := make([]ProductDTO, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*ProductDTO, error) {
	for _, p := range s.products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *service) GetProductByUserCount(ctx context.Context, users int) (*ProductDTO, error) {
	for _, p := range s.products {
		if p.Users == users {
			found := p
			return &found, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no plan for that user count")
}

func tiers() []ProductDTO {
	return []ProductDTO{
		{
			ID:          "price_50_users",
			Name:        "Starter Plan",
			Description: "Perfect for small teams getting started",
			Price:       5000,
			Currency:    "usd",
			Users:       50,
			Features:    []string{"Up to 50 users", "Basic support", "Standard features", "Email integration"},
		},
		{
			ID:          "price_100_users",
			Name:        "Growth Plan",
			Description: "Ideal for growing teams and businesses",
			Price:       9000,
			Currency:    "usd",
			Users:       100,
			Features:    []string{"Up to 100 users", "Priority support", "Advanced features", "API access", "Custom integrations"},
		},
		{
			ID:          "price_200_users",
			Name:        "Professional Plan",
			Description: "For established teams requiring scale",
			Price:       16000,
			Currency:    "usd",
			Users:       200,
			Features:    []string{"Up to 200 users", "Premium support", "All features", "Advanced analytics", "Custom branding", "SSO integration"},
		},
		{
			ID:          "price_300_users",
			Name:        "Enterprise Plan",
			Description: "Maximum capacity for large organizations",
			Price:       22000,
			Currency:    "usd",
			Users:       300,
			Features:    []string{"Up to 300 users", "24/7 dedicated support", "Enterprise features", "Advanced security", "Custom development", "SLA guarantee"},
		},
	}
}
