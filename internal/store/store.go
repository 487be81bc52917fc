package store

import (
	"context"
	"errors"
	"time"

	"retailpos/sales/internal/domain"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")

	// Line-item admission failures, reported by the verifier in check order.
	ErrProductNotActive  = errors.New("product not active")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnitPriceMismatch = errors.New("unit price mismatch")
	ErrDiscountMismatch  = errors.New("discount mismatch")
	ErrTotalMismatch     = errors.New("total price mismatch")

	// Finalize reconciliation failures.
	ErrNoItemsToFinalize     = errors.New("no items to finalize")
	ErrTotalAmountMismatch   = errors.New("total amount mismatch")
	ErrItemCountMismatch     = errors.New("item count mismatch")
	ErrPaymentAmountMismatch = errors.New("payment amount mismatch")
	ErrSaleFinalized         = errors.New("sale already finalized")

	// Return processing failures.
	ErrInsufficientReturnQty = errors.New("insufficient quantity for return")
	ErrSaleNotFinalized      = errors.New("sale not finalized")
)

type Repository interface {
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSaleByID(ctx context.Context, saleID string) (*domain.Sale, error)
	UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	ListSalesByStatus(ctx context.Context, status string) ([]domain.Sale, error)
	ListSalesNotInStatus(ctx context.Context, status string) ([]domain.Sale, error)
	ListSalesByCustomer(ctx context.Context, customerID int64) ([]domain.Sale, error)
	DeleteSale(ctx context.Context, saleID string) error

	// AddOrMergeItem accumulates quantity and total onto an existing
	// (saleID, productID) row, overwriting price/discount fields, or inserts
	// a new row when none exists.
	AddOrMergeItem(ctx context.Context, item domain.SaleItem) (*domain.SaleItem, error)
	GetItemByID(ctx context.Context, itemID string) (*domain.SaleItem, error)
	UpdateItem(ctx context.Context, item domain.SaleItem) (*domain.SaleItem, error)
	ListItemsBySale(ctx context.Context, saleID string) ([]domain.SaleItem, error)
	DeleteItem(ctx context.Context, itemID string) error

	// FinalizeSale upserts the sale's payment record and flips the sale to
	// finalized in a single transaction. Totals are the reconciled values the
	// service already verified against the line items.
	FinalizeSale(ctx context.Context, saleID string, totalCents int64, itemCount int, payment domain.Payment, at time.Time) (*domain.Sale, error)
	GetPaymentBySale(ctx context.Context, saleID string) (*domain.Payment, error)

	// ApplyReturn atomically decrements the sale aggregates and the line
	// item's quantity, accumulates its returned quantity, and appends the
	// return record. The finalized status and the quantity bound are
	// re-checked inside the transaction.
	ApplyReturn(ctx context.Context, ret domain.Return) (*domain.Return, error)
	ListReturnsBySale(ctx context.Context, saleID string) ([]domain.Return, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
