package service

import (
	"math"

	"retailpos/sales/internal/client"
	"retailpos/sales/internal/domain"
	"retailpos/sales/internal/store"
)

// discountToleranceCents absorbs rounding drift between a client computing a
// percentage discount in floating point and the integer-cents recomputation.
const discountToleranceCents = 1

// verifyLineItem runs the admission checks against the catalog snapshot, in
// order, returning the first failure. It has no side effects; stock
// availability is checked by the caller and passed in.
func verifyLineItem(req domain.SaleItemRequest, snapshot *client.ProductSnapshot, stockOK bool) error {
	if !snapshot.Enabled || snapshot.Deleted {
		return store.ErrProductNotActive
	}
	if !stockOK {
		return store.ErrInsufficientStock
	}
	if req.UnitPriceCents != snapshot.PriceCents {
		return store.ErrUnitPriceMismatch
	}

	if req.DiscountPercent < 0 {
		return store.ErrDiscountMismatch
	}
	if req.DiscountPercent > 0 {
		gross := float64(snapshot.PriceCents) * float64(req.Quantity)
		expected := int64(math.Round(gross * req.DiscountPercent / 100))
		if absInt64(req.DiscountCents-expected) > discountToleranceCents {
			return store.ErrDiscountMismatch
		}
	} else if req.DiscountCents < 0 {
		return store.ErrDiscountMismatch
	}

	expectedTotal := snapshot.PriceCents*int64(req.Quantity) - req.DiscountCents
	if req.TotalCents != expectedTotal {
		return store.ErrTotalMismatch
	}

	return nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
