package client

import (
	"context"
	"fmt"
	"sync"
)

// LocalDirectory is an in-process stand-in for all three collaborators, used
// in dev mode when no service URLs are configured and in tests. Stock
// mutations are tracked so return restocks are observable.
type LocalDirectory struct {
	mu        sync.RWMutex
	products  map[int64]ProductSnapshot
	customers map[int64]CustomerSnapshot
	operators map[string]OperatorSnapshot
}

func NewLocalDirectory() *LocalDirectory {
	products := []ProductSnapshot{
		{ID: 1, Name: "Drip Coffee 250g", PriceCents: 5000, Enabled: true, StockQty: 120},
		{ID: 2, Name: "Green Tea 100g", PriceCents: 3200, Enabled: true, StockQty: 80},
		{ID: 3, Name: "Cocoa Powder 500g", PriceCents: 7400, Enabled: true, StockQty: 45},
		{ID: 4, Name: "Discontinued Grinder", PriceCents: 45000, Enabled: false, StockQty: 3},
		{ID: 5, Name: "Paper Filters x100", PriceCents: 1800, Enabled: true, Deleted: true, StockQty: 60},
	}
	customers := []CustomerSnapshot{
		{ID: 5, Name: "Walk-in Counter"},
		{ID: 6, Name: "Warung Kopi Sebelah"},
		{ID: 7, Name: "Hotel Cempaka"},
	}
	operators := []OperatorSnapshot{
		{ID: 1, Username: "admin"},
		{ID: 2, Username: "cashier"},
	}

	dir := &LocalDirectory{
		products:  make(map[int64]ProductSnapshot, len(products)),
		customers: make(map[int64]CustomerSnapshot, len(customers)),
		operators: make(map[string]OperatorSnapshot, len(operators)),
	}
	for _, p := range products {
		dir.products[p.ID] = p
	}
	for _, c := range customers {
		dir.customers[c.ID] = c
	}
	for _, o := range operators {
		dir.operators[o.Username] = o
	}
	return dir
}

func (d *LocalDirectory) GetProduct(_ context.Context, productID int64) (*ProductSnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	product, ok := d.products[productID]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	snapshot := product
	return &snapshot, nil
}

func (d *LocalDirectory) CheckStock(_ context.Context, productID int64, qty int) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	product, ok := d.products[productID]
	if !ok {
		return false, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	return product.StockQty >= qty, nil
}

func (d *LocalDirectory) AddStock(_ context.Context, productID int64, qty int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	product, ok := d.products[productID]
	if !ok {
		return 0, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	product.StockQty += qty
	d.products[productID] = product
	return product.StockQty, nil
}

// ReduceStock mirrors what the remote product service does when the excluded
// CRUD layer records a sale; exposed so dev flows can keep stock plausible.
func (d *LocalDirectory) ReduceStock(_ context.Context, productID int64, qty int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	product, ok := d.products[productID]
	if !ok {
		return 0, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	product.StockQty -= qty
	if product.StockQty < 0 {
		product.StockQty = 0
	}
	d.products[productID] = product
	return product.StockQty, nil
}

func (d *LocalDirectory) GetCustomer(_ context.Context, customerID int64) (*CustomerSnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	customer, ok := d.customers[customerID]
	if !ok {
		return nil, fmt.Errorf("%w: customer %d", ErrNotFound, customerID)
	}
	snapshot := customer
	return &snapshot, nil
}

func (d *LocalDirectory) CurrentOperator(_ context.Context, username string) (*OperatorSnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	operator, ok := d.operators[username]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
	}
	snapshot := operator
	return &snapshot, nil
}
