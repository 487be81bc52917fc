package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"retailpos/sales/internal/domain"
	"retailpos/sales/internal/store"
	"retailpos/sales/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	salesByID       map[string]domain.Sale
	itemsByID       map[string]domain.SaleItem
	itemIDsBySale   map[string][]string
	paymentsBySale  map[string]domain.Payment
	returnsByID     map[string]domain.Return
	returnIDsBySale map[string][]string
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; when
// unset, hardcoded dev defaults are used with a warning. The memory store is
// never selected when DATABASE_URL is configured.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	return &Store{
		salesByID:       make(map[string]domain.Sale),
		itemsByID:       make(map[string]domain.SaleItem),
		itemIDsBySale:   make(map[string][]string),
		paymentsBySale:  make(map[string]domain.Payment),
		returnsByID:     make(map[string]domain.Return),
		returnIDsBySale: make(map[string][]string),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: seedUsers(),
	}
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.CustomerID < 1 || sale.OperatorID < 1 {
		return nil, store.ErrInvalidRequest
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	now := time.Now().UTC()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = now
	}
	sale.UpdatedAt = sale.CreatedAt
	if sale.PaymentStatus == "" {
		sale.PaymentStatus = domain.SaleStatusDraft
	}

	s.salesByID[sale.ID] = sale
	created := sale
	return &created, nil
}

func (s *Store) GetSaleByID(_ context.Context, saleID string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[saleID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := sale
	return &copySale, nil
}

func (s *Store) UpdateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.salesByID[sale.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if current.PaymentStatus == domain.SaleStatusFinalized {
		return nil, store.ErrSaleFinalized
	}
	if sale.CustomerID < 1 {
		return nil, store.ErrInvalidRequest
	}

	current.CustomerID = sale.CustomerID
	current.TotalCents = sale.TotalCents
	current.ItemCount = sale.ItemCount
	if sale.PaymentStatus != "" {
		current.PaymentStatus = sale.PaymentStatus
	}
	current.UpdatedAt = time.Now().UTC()

	s.salesByID[current.ID] = current
	updated := current
	return &updated, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectSales(func(domain.Sale) bool { return true }), nil
}

func (s *Store) ListSalesByStatus(_ context.Context, status string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectSales(func(sale domain.Sale) bool { return sale.PaymentStatus == status }), nil
}

func (s *Store) ListSalesNotInStatus(_ context.Context, status string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectSales(func(sale domain.Sale) bool { return sale.PaymentStatus != status }), nil
}

func (s *Store) ListSalesByCustomer(_ context.Context, customerID int64) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectSales(func(sale domain.Sale) bool { return sale.CustomerID == customerID }), nil
}

// collectSales must be called with at least a read lock held.
func (s *Store) collectSales(keep func(domain.Sale) bool) []domain.Sale {
	sales := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if keep(sale) {
			sales = append(sales, sale)
		}
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return sales
}

func (s *Store) DeleteSale(_ context.Context, saleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.salesByID[saleID]; !exists {
		return store.ErrNotFound
	}

	for _, itemID := range s.itemIDsBySale[saleID] {
		delete(s.itemsByID, itemID)
	}
	delete(s.itemIDsBySale, saleID)
	delete(s.paymentsBySale, saleID)
	for _, returnID := range s.returnIDsBySale[saleID] {
		delete(s.returnsByID, returnID)
	}
	delete(s.returnIDsBySale, saleID)
	delete(s.salesByID, saleID)
	return nil
}

func (s *Store) AddOrMergeItem(_ context.Context, item domain.SaleItem) (*domain.SaleItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.salesByID[item.SaleID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if sale.PaymentStatus == domain.SaleStatusFinalized {
		return nil, store.ErrSaleFinalized
	}
	if item.ProductID < 1 || item.Quantity < 1 {
		return nil, store.ErrInvalidRequest
	}

	now := time.Now().UTC()
	for _, existingID := range s.itemIDsBySale[item.SaleID] {
		existing := s.itemsByID[existingID]
		if existing.ProductID != item.ProductID {
			continue
		}
		existing.Quantity += item.Quantity
		existing.TotalCents += item.TotalCents
		existing.UnitPriceCents = item.UnitPriceCents
		existing.DiscountCents = item.DiscountCents
		existing.DiscountPercent = item.DiscountPercent
		existing.UpdatedAt = now
		s.itemsByID[existingID] = existing
		merged := existing
		return &merged, nil
	}

	if item.ID == "" {
		item.ID = xid.New("item")
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	s.itemsByID[item.ID] = item
	s.itemIDsBySale[item.SaleID] = append(s.itemIDsBySale[item.SaleID], item.ID)
	created := item
	return &created, nil
}

func (s *Store) GetItemByID(_ context.Context, itemID string) (*domain.SaleItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.itemsByID[itemID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyItem := item
	return &copyItem, nil
}

func (s *Store) UpdateItem(_ context.Context, item domain.SaleItem) (*domain.SaleItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.itemsByID[item.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if item.Quantity < 1 {
		return nil, store.ErrInvalidRequest
	}
	if sale, ok := s.salesByID[current.SaleID]; ok && sale.PaymentStatus == domain.SaleStatusFinalized {
		return nil, store.ErrSaleFinalized
	}

	current.Quantity = item.Quantity
	current.UnitPriceCents = item.UnitPriceCents
	current.DiscountCents = item.DiscountCents
	current.DiscountPercent = item.DiscountPercent
	current.TotalCents = item.TotalCents
	current.UpdatedAt = time.Now().UTC()

	s.itemsByID[current.ID] = current
	updated := current
	return &updated, nil
}

func (s *Store) ListItemsBySale(_ context.Context, saleID string) ([]domain.SaleItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listItemsLocked(saleID), nil
}

// listItemsLocked must be called with at least a read lock held.
func (s *Store) listItemsLocked(saleID string) []domain.SaleItem {
	itemIDs := s.itemIDsBySale[saleID]
	items := make([]domain.SaleItem, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		if item, ok := s.itemsByID[itemID]; ok {
			items = append(items, item)
		}
	}
	slices.SortFunc(items, func(a, b domain.SaleItem) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return items
}

func (s *Store) DeleteItem(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.itemsByID[itemID]
	if !exists {
		return store.ErrNotFound
	}
	if sale, ok := s.salesByID[item.SaleID]; ok && sale.PaymentStatus == domain.SaleStatusFinalized {
		return store.ErrSaleFinalized
	}

	delete(s.itemsByID, itemID)
	itemIDs := s.itemIDsBySale[item.SaleID]
	for i, id := range itemIDs {
		if id == itemID {
			s.itemIDsBySale[item.SaleID] = append(itemIDs[:i], itemIDs[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) FinalizeSale(_ context.Context, saleID string, totalCents int64, itemCount int, payment domain.Payment, at time.Time) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.salesByID[saleID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if sale.PaymentStatus == domain.SaleStatusFinalized {
		return nil, store.ErrSaleFinalized
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	payment.SaleID = saleID
	if existing, ok := s.paymentsBySale[saleID]; ok {
		payment.ID = existing.ID
		payment.CreatedAt = existing.CreatedAt
	} else {
		payment.ID = xid.New("pay")
		payment.CreatedAt = at
	}
	payment.UpdatedAt = at
	s.paymentsBySale[saleID] = payment

	sale.TotalCents = totalCents
	sale.ItemCount = itemCount
	sale.PaymentStatus = domain.SaleStatusFinalized
	sale.UpdatedAt = at
	s.salesByID[saleID] = sale

	finalized := sale
	return &finalized, nil
}

func (s *Store) GetPaymentBySale(_ context.Context, saleID string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payment, exists := s.paymentsBySale[saleID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyPayment := payment
	return &copyPayment, nil
}

func (s *Store) ApplyReturn(_ context.Context, ret domain.Return) (*domain.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.salesByID[ret.SaleID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if sale.PaymentStatus != domain.SaleStatusFinalized {
		return nil, store.ErrSaleNotFinalized
	}
	item, exists := s.itemsByID[ret.SaleItemID]
	if !exists || item.SaleID != ret.SaleID {
		return nil, store.ErrNotFound
	}
	if ret.Quantity < 1 {
		return nil, store.ErrInvalidRequest
	}
	if ret.Quantity > item.Quantity {
		return nil, store.ErrInsufficientReturnQty
	}

	now := time.Now().UTC()
	if ret.ID == "" {
		ret.ID = xid.New("ret")
	}
	if ret.CreatedAt.IsZero() {
		ret.CreatedAt = now
	}
	if ret.RefundCents == 0 {
		ret.RefundCents = item.UnitPriceCents * int64(ret.Quantity)
	}

	item.Quantity -= ret.Quantity
	item.ReturnedQuantity += ret.Quantity
	item.TotalCents -= ret.RefundCents
	item.UpdatedAt = now
	s.itemsByID[item.ID] = item

	sale.TotalCents -= ret.RefundCents
	sale.ItemCount -= ret.Quantity
	sale.UpdatedAt = now
	s.salesByID[sale.ID] = sale

	s.returnsByID[ret.ID] = ret
	s.returnIDsBySale[ret.SaleID] = append(s.returnIDsBySale[ret.SaleID], ret.ID)

	created := ret
	return &created, nil
}

func (s *Store) ListReturnsBySale(_ context.Context, saleID string) ([]domain.Return, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	returnIDs := s.returnIDsBySale[saleID]
	returns := make([]domain.Return, 0, len(returnIDs))
	for _, returnID := range returnIDs {
		if ret, ok := s.returnsByID[returnID]; ok {
			returns = append(returns, ret)
		}
	}
	slices.SortFunc(returns, func(a, b domain.Return) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return returns, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidRequest
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidRequest
	}
	user.Username = username
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidRequest
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}
