package service

import (
	"errors"
	"testing"

	"retailpos/sales/internal/client"
	"retailpos/sales/internal/domain"
	"retailpos/sales/internal/store"
)

func activeSnapshot() *client.ProductSnapshot {
	return &client.ProductSnapshot{ID: 1, Name: "Drip Coffee 250g", PriceCents: 5000, Enabled: true, StockQty: 120}
}

func validProposal() domain.SaleItemRequest {
	return domain.SaleItemRequest{
		SaleID:         "sale-1",
		ProductID:      1,
		Quantity:       2,
		UnitPriceCents: 5000,
		TotalCents:     10000,
	}
}

func TestVerifyLineItemAcceptsValidProposal(t *testing.T) {
	if err := verifyLineItem(validProposal(), activeSnapshot(), true); err != nil {
		t.Fatalf("expected valid proposal to pass, got %v", err)
	}
}

func TestVerifyLineItemCheckOrder(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*domain.SaleItemRequest, *client.ProductSnapshot)
		stockOK bool
		want    error
	}{
		{
			name:    "disabled product reported before stock",
			mutate:  func(_ *domain.SaleItemRequest, s *client.ProductSnapshot) { s.Enabled = false },
			stockOK: false,
			want:    store.ErrProductNotActive,
		},
		{
			name:    "deleted product",
			mutate:  func(_ *domain.SaleItemRequest, s *client.ProductSnapshot) { s.Deleted = true },
			stockOK: true,
			want:    store.ErrProductNotActive,
		},
		{
			name:    "stock reported before price",
			mutate:  func(r *domain.SaleItemRequest, _ *client.ProductSnapshot) { r.UnitPriceCents = 1 },
			stockOK: false,
			want:    store.ErrInsufficientStock,
		},
		{
			name:    "price mismatch",
			mutate:  func(r *domain.SaleItemRequest, _ *client.ProductSnapshot) { r.UnitPriceCents = 4999; r.TotalCents = 9998 },
			stockOK: true,
			want:    store.ErrUnitPriceMismatch,
		},
		{
			name: "percent discount recomputation",
			mutate: func(r *domain.SaleItemRequest, _ *client.ProductSnapshot) {
				r.DiscountPercent = 10
				r.DiscountCents = 1500
				r.TotalCents = 8500
			},
			stockOK: true,
			want:    store.ErrDiscountMismatch,
		},
		{
			name:    "negative discount",
			mutate:  func(r *domain.SaleItemRequest, _ *client.ProductSnapshot) { r.DiscountCents = -5; r.TotalCents = 10005 },
			stockOK: true,
			want:    store.ErrDiscountMismatch,
		},
		{
			name:    "negative discount percent",
			mutate:  func(r *domain.SaleItemRequest, _ *client.ProductSnapshot) { r.DiscountPercent = -10 },
			stockOK: true,
			want:    store.ErrDiscountMismatch,
		},
		{
			name:    "total mismatch",
			mutate:  func(r *domain.SaleItemRequest, _ *client.ProductSnapshot) { r.TotalCents = 9999 },
			stockOK: true,
			want:    store.ErrTotalMismatch,
		},
	}

	for _, tc := range cases {
		req := validProposal()
		snapshot := activeSnapshot()
		tc.mutate(&req, snapshot)
		if err := verifyLineItem(req, snapshot, tc.stockOK); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestVerifyLineItemDiscountTolerance(t *testing.T) {
	// 3 x 3333 at 7.5% = 749.925, rounds to 750; 749 and 751 are within the
	// 1-cent tolerance, 752 is not.
	snapshot := &client.ProductSnapshot{ID: 9, PriceCents: 3333, Enabled: true, StockQty: 10}
	base := domain.SaleItemRequest{
		SaleID:          "sale-1",
		ProductID:       9,
		Quantity:        3,
		UnitPriceCents:  3333,
		DiscountPercent: 7.5,
	}

	for _, discount := range []int64{749, 750, 751} {
		req := base
		req.DiscountCents = discount
		req.TotalCents = 3333*3 - discount
		if err := verifyLineItem(req, snapshot, true); err != nil {
			t.Fatalf("discount %d should be within tolerance, got %v", discount, err)
		}
	}

	req := base
	req.DiscountCents = 752
	req.TotalCents = 3333*3 - 752
	if err := verifyLineItem(req, snapshot, true); !errors.Is(err, store.ErrDiscountMismatch) {
		t.Fatalf("discount 752 should exceed tolerance, got %v", err)
	}
}
