package catalog

import (
	"context"
	"testing"

	pkgerrors "github.com/angelmondragon/tierpay/pkg/errors"
)

func TestListProductsReturnsFourTiers(t *testing.T) {
	svc := NewService()
	products, err := svc.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 4 {
		t.Fatalf("expected 4 tiers, got %d", len(products))
	}

	wantPrices := map[string]int64{
		"price_50_users":  5000,
		"price_100_users": 9000,
		"price_200_users": 16000,
		"price_300_users": 22000,
	}
	for _, p := range products {
		if wantPrices[p.ID] != p.Price {
			t.Fatalf("tier %s has price %d, want %d", p.ID, p.Price, wantPrices[p.ID])
		}
		if p.Currency != "usd" {
			t.Fatalf("tier %s has currency %q", p.ID, p.Currency)
		}
	}
}

func TestGetProduct(t *testing.T) {
	svc := NewService()
	p, err := svc.GetProduct(context.Background(), "price_100_users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Growth Plan" || p.Users != 100 {
		t.Fatalf("unexpected product %+v", p)
	}
}

func TestGetProductUnknownIDIsNotFound(t *testing.T) {
	svc := NewService()
	_, err := svc.GetProduct(context.Background(), "price_999_users")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetProductByUserCount(t *testing.T) {
	svc := NewService()
	p, err := svc.GetProductByUserCount(context.Background(), 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "price_300_users" {
		t.Fatalf("unexpected product %+v", p)
	}

	if _, err := svc.GetProductByUserCount(context.Background(), 42); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListProductsCopyIsIsolated(t *testing.T) {
	svc := NewService()
	first, _ := svc.ListProducts(context.Background())
	first[0].Price = 1

	second, _ := svc.ListProducts(context.Background())
	if second[0].Price == 1 {
		t.Fatal("caller mutation leaked into catalog")
	}
}
