// Package client holds the contracts for the remote collaborators the sale
// service depends on: the product catalog (pricing + stock), the customer
// directory, and the identity service that resolves the authenticated
// operator. The core depends only on these interfaces so it can be tested
// with in-process fakes.
package client

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the remote resolved the request but the entity does
	// not exist (HTTP 404).
	ErrNotFound = errors.New("remote entity not found")
	// ErrUnavailable means the collaborator could not be reached or answered
	// with a failure. It always aborts the enclosing operation.
	ErrUnavailable = errors.New("remote collaborator unavailable")
)

// ProductSnapshot is the immutable catalog view consumed per check pass. The
// enabled/deleted flags travel with the snapshot rather than being re-fetched
// piecemeal.
type ProductSnapshot struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Enabled    bool   `json:"enabled"`
	Deleted    bool   `json:"deleted"`
	StockQty   int    `json:"stock_qty"`
}

type CustomerSnapshot struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type OperatorSnapshot struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type ProductLookup interface {
	GetProduct(ctx context.Context, productID int64) (*ProductSnapshot, error)
	CheckStock(ctx context.Context, productID int64, qty int) (bool, error)
	// AddStock restocks the product and returns the updated stock quantity.
	AddStock(ctx context.Context, productID int64, qty int) (int, error)
}

type CustomerLookup interface {
	GetCustomer(ctx context.Context, customerID int64) (*CustomerSnapshot, error)
}

type IdentityLookup interface {
	CurrentOperator(ctx context.Context, username string) (*OperatorSnapshot, error)
}
