package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"retailpos/sales/internal/client"
	"retailpos/sales/internal/domain"
	"retailpos/sales/internal/store"
	"retailpos/sales/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo      store.Repository
	products  client.ProductLookup
	customers client.CustomerLookup
	identity  client.IdentityLookup
}

func New(repo store.Repository, products client.ProductLookup, customers client.CustomerLookup, identity client.IdentityLookup) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		customers: customers,
		identity:  identity,
	}
}

// resolveOperator maps the authenticated username to the operator record that
// gets stamped onto mutations.
func (s *Service) resolveOperator(ctx context.Context) (int64, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return 0, fmt.Errorf("authenticated actor required")
	}
	operator, err := s.identity.CurrentOperator(ctx, actor.Username)
	if err != nil {
		return 0, fmt.Errorf("resolve operator %s: %w", actor.Username, err)
	}
	return operator.ID, nil
}

func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	if req.CustomerID < 1 {
		return domain.Sale{}, store.ErrInvalidRequest
	}

	operatorID, err := s.resolveOperator(ctx)
	if err != nil {
		return domain.Sale{}, err
	}
	if _, err := s.customers.GetCustomer(ctx, req.CustomerID); err != nil {
		return domain.Sale{}, fmt.Errorf("validate customer %d: %w", req.CustomerID, err)
	}

	created, err := s.repo.CreateSale(ctx, domain.Sale{
		OperatorID:    operatorID,
		CustomerID:    req.CustomerID,
		PaymentStatus: domain.SaleStatusDraft,
	})
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_create", "sale", created.ID, fmt.Sprintf("customer=%d", created.CustomerID))
	return *created, nil
}

func (s *Service) GetSale(ctx context.Context, saleID string) (domain.Sale, error) {
	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx)
}

func (s *Service) ListSalesByStatus(ctx context.Context, status string) ([]domain.Sale, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return nil, store.ErrInvalidRequest
	}
	return s.repo.ListSalesByStatus(ctx, status)
}

func (s *Service) ListDraftSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSalesByStatus(ctx, domain.SaleStatusDraft)
}

func (s *Service) ListNonDraftSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSalesNotInStatus(ctx, domain.SaleStatusDraft)
}

func (s *Service) ListSalesByCustomer(ctx context.Context, customerID int64) ([]domain.Sale, error) {
	if customerID < 1 {
		return nil, store.ErrInvalidRequest
	}
	return s.repo.ListSalesByCustomer(ctx, customerID)
}

func (s *Service) UpdateSale(ctx context.Context, saleID string, req domain.SaleUpdateRequest) (domain.Sale, error) {
	if req.CustomerID < 1 {
		return domain.Sale{}, store.ErrInvalidRequest
	}
	// Finalized is only reachable through FinalizeSale's reconciliation.
	if req.PaymentStatus != "" && req.PaymentStatus != domain.SaleStatusDraft {
		return domain.Sale{}, store.ErrInvalidRequest
	}
	if _, err := s.customers.GetCustomer(ctx, req.CustomerID); err != nil {
		return domain.Sale{}, fmt.Errorf("validate customer %d: %w", req.CustomerID, err)
	}

	updated, err := s.repo.UpdateSale(ctx, domain.Sale{
		ID:            saleID,
		CustomerID:    req.CustomerID,
		TotalCents:    req.TotalCents,
		ItemCount:     req.ItemCount,
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_update", "sale", updated.ID, fmt.Sprintf("total=%d,items=%d", updated.TotalCents, updated.ItemCount))
	return *updated, nil
}

func (s *Service) DeleteSale(ctx context.Context, saleID string) error {
	if err := s.repo.DeleteSale(ctx, saleID); err != nil {
		return err
	}
	s.logAudit(ctx, "sale_delete", "sale", saleID, "hard delete")
	return nil
}

func (s *Service) AddItem(ctx context.Context, req domain.SaleItemRequest) (domain.SaleItemResponse, error) {
	if req.SaleID == "" || req.ProductID < 1 || req.Quantity < 1 {
		return domain.SaleItemResponse{}, store.ErrInvalidRequest
	}

	sale, err := s.repo.GetSaleByID(ctx, req.SaleID)
	if err != nil {
		return domain.SaleItemResponse{}, err
	}
	if sale.PaymentStatus == domain.SaleStatusFinalized {
		return domain.SaleItemResponse{}, store.ErrSaleFinalized
	}

	snapshot, stockOK, err := s.checkProduct(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return domain.SaleItemResponse{}, err
	}
	if err := verifyLineItem(req, snapshot, stockOK); err != nil {
		return domain.SaleItemResponse{}, err
	}

	saved, err := s.repo.AddOrMergeItem(ctx, domain.SaleItem{
		SaleID:          req.SaleID,
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		UnitPriceCents:  req.UnitPriceCents,
		DiscountCents:   req.DiscountCents,
		DiscountPercent: req.DiscountPercent,
		TotalCents:      req.TotalCents,
	})
	if err != nil {
		return domain.SaleItemResponse{}, err
	}

	s.logAudit(ctx, "item_add", "sale_item", saved.ID, fmt.Sprintf("sale=%s,product=%d,qty=%d", saved.SaleID, saved.ProductID, req.Quantity))
	return domain.SaleItemResponse{Item: *saved, Product: productInfo(snapshot)}, nil
}

func (s *Service) UpdateItem(ctx context.Context, itemID string, req domain.SaleItemUpdateRequest) (domain.SaleItemResponse, error) {
	if req.Quantity < 1 {
		return domain.SaleItemResponse{}, store.ErrInvalidRequest
	}

	current, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return domain.SaleItemResponse{}, err
	}

	snapshot, stockOK, err := s.checkProduct(ctx, current.ProductID, req.Quantity)
	if err != nil {
		return domain.SaleItemResponse{}, err
	}
	proposal := domain.SaleItemRequest{
		SaleID:          current.SaleID,
		ProductID:       current.ProductID,
		Quantity:        req.Quantity,
		UnitPriceCents:  req.UnitPriceCents,
		DiscountCents:   req.DiscountCents,
		DiscountPercent: req.DiscountPercent,
		TotalCents:      req.TotalCents,
	}
	if err := verifyLineItem(proposal, snapshot, stockOK); err != nil {
		return domain.SaleItemResponse{}, err
	}

	saved, err := s.repo.UpdateItem(ctx, domain.SaleItem{
		ID:              itemID,
		Quantity:        req.Quantity,
		UnitPriceCents:  req.UnitPriceCents,
		DiscountCents:   req.DiscountCents,
		DiscountPercent: req.DiscountPercent,
		TotalCents:      req.TotalCents,
	})
	if err != nil {
		return domain.SaleItemResponse{}, err
	}

	s.logAudit(ctx, "item_update", "sale_item", saved.ID, fmt.Sprintf("qty=%d,total=%d", saved.Quantity, saved.TotalCents))
	return domain.SaleItemResponse{Item: *saved, Product: productInfo(snapshot)}, nil
}

func (s *Service) checkProduct(ctx context.Context, productID int64, qty int) (*client.ProductSnapshot, bool, error) {
	snapshot, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, false, fmt.Errorf("fetch product %d: %w", productID, err)
	}
	// Inactive products are reported by the verifier; skip the stock call so a
	// rejected product never reaches the stock endpoint.
	if !snapshot.Enabled || snapshot.Deleted {
		return snapshot, false, nil
	}
	stockOK, err := s.products.CheckStock(ctx, productID, qty)
	if err != nil {
		return nil, false, fmt.Errorf("check stock for product %d: %w", productID, err)
	}
	return snapshot, stockOK, nil
}

func productInfo(snapshot *client.ProductSnapshot) *domain.ProductInfo {
	if snapshot == nil {
		return nil
	}
	return &domain.ProductInfo{
		ID:         snapshot.ID,
		Name:       snapshot.Name,
		PriceCents: snapshot.PriceCents,
		StockQty:   snapshot.StockQty,
	}
}

func (s *Service) GetItemsBySale(ctx context.Context, saleID string) ([]domain.SaleItem, error) {
	if _, err := s.repo.GetSaleByID(ctx, saleID); err != nil {
		return nil, err
	}
	return s.repo.ListItemsBySale(ctx, saleID)
}

func (s *Service) DeleteItem(ctx context.Context, itemID string) error {
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	s.logAudit(ctx, "item_delete", "sale_item", itemID, "removed")
	return nil
}

// FinalizeSale reconciles the client's claimed totals against the persisted
// line items and the payment breakdown, then flips the sale to finalized and
// upserts the payment in one store transaction. Nothing is written when any
// check fails.
func (s *Service) FinalizeSale(ctx context.Context, saleID string, req domain.FinalizeSaleRequest) (domain.Sale, error) {
	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	if sale.PaymentStatus == domain.SaleStatusFinalized {
		return domain.Sale{}, store.ErrSaleFinalized
	}

	items, err := s.repo.ListItemsBySale(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	if len(items) == 0 {
		return domain.Sale{}, store.ErrNoItemsToFinalize
	}

	// Returns are only accepted on finalized sales, so the line items carry
	// their full admitted values here.
	var sumTotal int64
	var sumCount int
	for _, item := range items {
		sumTotal += item.TotalCents
		sumCount += item.Quantity
	}
	if req.ClaimedTotalCents != sumTotal {
		return domain.Sale{}, store.ErrTotalAmountMismatch
	}
	if req.ClaimedItemCount != sumCount {
		return domain.Sale{}, store.ErrItemCountMismatch
	}

	payment := domain.Payment{
		CashCents:   req.Payment.CashCents,
		CardCents:   req.Payment.CardCents,
		CardRef:     strings.TrimSpace(req.Payment.CardRef),
		QRCents:     req.Payment.QRCents,
		QRRef:       strings.TrimSpace(req.Payment.QRRef),
		ChequeCents: req.Payment.ChequeCents,
		ChequeRef:   strings.TrimSpace(req.Payment.ChequeRef),
		DueCents:    req.Payment.DueCents,
	}
	if payment.TenderTotal() != req.ClaimedTotalCents {
		return domain.Sale{}, store.ErrPaymentAmountMismatch
	}

	finalized, err := s.repo.FinalizeSale(ctx, saleID, req.ClaimedTotalCents, req.ClaimedItemCount, payment, time.Now().UTC())
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_finalize", "sale", finalized.ID, fmt.Sprintf("total=%d,items=%d,due=%d", finalized.TotalCents, finalized.ItemCount, payment.DueCents))
	return *finalized, nil
}

func (s *Service) GetPaymentBySale(ctx context.Context, saleID string) (domain.Payment, error) {
	payment, err := s.repo.GetPaymentBySale(ctx, saleID)
	if err != nil {
		return domain.Payment{}, err
	}
	return *payment, nil
}

// ProcessReturns handles each entry independently: validate, restock the
// product remotely, then apply the local mutation atomically. A failing entry
// aborts the batch at that point; entries already processed stay committed.
func (s *Service) ProcessReturns(ctx context.Context, reqs []domain.ReturnRequest) ([]domain.ReturnResponse, error) {
	if len(reqs) == 0 {
		return nil, store.ErrInvalidRequest
	}

	responses := make([]domain.ReturnResponse, 0, len(reqs))
	for i, req := range reqs {
		resp, err := s.processReturn(ctx, req)
		if err != nil {
			return responses, fmt.Errorf("return entry %d: %w", i, err)
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *Service) processReturn(ctx context.Context, req domain.ReturnRequest) (domain.ReturnResponse, error) {
	if req.SaleID == "" || req.SaleItemID == "" || req.Quantity < 1 {
		return domain.ReturnResponse{}, store.ErrInvalidRequest
	}

	sale, err := s.repo.GetSaleByID(ctx, req.SaleID)
	if err != nil {
		return domain.ReturnResponse{}, err
	}
	if sale.PaymentStatus != domain.SaleStatusFinalized {
		return domain.ReturnResponse{}, store.ErrSaleNotFinalized
	}
	item, err := s.repo.GetItemByID(ctx, req.SaleItemID)
	if err != nil {
		return domain.ReturnResponse{}, err
	}
	if item.SaleID != sale.ID {
		return domain.ReturnResponse{}, store.ErrNotFound
	}
	if req.Quantity > item.Quantity {
		return domain.ReturnResponse{}, store.ErrInsufficientReturnQty
	}

	refundCents := item.UnitPriceCents * int64(req.Quantity)

	// Restock the remote catalog first; a failure here must leave the sale
	// untouched.
	if _, err := s.products.AddStock(ctx, item.ProductID, req.Quantity); err != nil {
		return domain.ReturnResponse{}, fmt.Errorf("restock product %d: %w", item.ProductID, err)
	}

	applied, err := s.repo.ApplyReturn(ctx, domain.Return{
		ID:          xid.New("ret"),
		SaleID:      req.SaleID,
		SaleItemID:  req.SaleItemID,
		Quantity:    req.Quantity,
		Reason:      strings.TrimSpace(req.Reason),
		RefundCents: refundCents,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return domain.ReturnResponse{}, err
	}

	updatedSale, err := s.repo.GetSaleByID(ctx, req.SaleID)
	if err != nil {
		return domain.ReturnResponse{}, err
	}
	items, err := s.repo.ListItemsBySale(ctx, req.SaleID)
	if err != nil {
		return domain.ReturnResponse{}, err
	}

	s.logAudit(ctx, "return_process", "sale_return", applied.ID, fmt.Sprintf("sale=%s,item=%s,qty=%d,refund=%d", applied.SaleID, applied.SaleItemID, applied.Quantity, applied.RefundCents))
	return domain.ReturnResponse{Return: *applied, Sale: *updatedSale, Items: items}, nil
}

func (s *Service) GetReturnsBySale(ctx context.Context, saleID string) ([]domain.ReturnResponse, error) {
	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	returns, err := s.repo.ListReturnsBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItemsBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.ReturnResponse, 0, len(returns))
	for _, ret := range returns {
		responses = append(responses, domain.ReturnResponse{Return: ret, Sale: *sale, Items: items})
	}
	return responses, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}

	day := time.Now().UTC()
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, store.ErrInvalidRequest
		}
		day = parsed
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	if limit < 1 {
		limit = 100
	}
	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

// logAudit records the mutation trail best-effort; a failed write is logged
// and never fails the business operation.
func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to persist audit log action=%s entity=%s: %v", action, entityID, err)
	}
}

// IsBusinessRuleError reports whether err is one of the reconciliation or
// admission sentinels that map to a conflict rather than a bad request.
func IsBusinessRuleError(err error) bool {
	for _, sentinel := range []error{
		store.ErrProductNotActive,
		store.ErrInsufficientStock,
		store.ErrUnitPriceMismatch,
		store.ErrDiscountMismatch,
		store.ErrTotalMismatch,
		store.ErrNoItemsToFinalize,
		store.ErrTotalAmountMismatch,
		store.ErrItemCountMismatch,
		store.ErrPaymentAmountMismatch,
		store.ErrSaleFinalized,
		store.ErrInsufficientReturnQty,
		store.ErrSaleNotFinalized,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
