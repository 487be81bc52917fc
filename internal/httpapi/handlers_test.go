package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"retailpos/sales/internal/client"
	"retailpos/sales/internal/domain"
	"retailpos/sales/internal/service"
	"retailpos/sales/internal/store/memory"
)

// newTestAPI builds a full API with the in-memory store, the seeded local
// directory and a real AuthManager so handler tests exercise the complete
// request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	dir := client.NewLocalDirectory()
	svc := service.New(repo, dir, dir, dir)
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*")
}

func loginAs(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d (body: %s)", username, rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func createTestSale(t *testing.T, handler http.Handler, token string) domain.Sale {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/sale", token, domain.SaleCreateRequest{CustomerID: 6})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sale: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Sale domain.Sale `json:"sale"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode sale: %v", err)
	}
	return resp.Sale
}

func addTestItem(t *testing.T, handler http.Handler, token, saleID string, qty int) domain.SaleItemResponse {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/salesitem", token, domain.SaleItemRequest{
		SaleID:         saleID,
		ProductID:      1,
		Quantity:       qty,
		UnitPriceCents: 5000,
		TotalCents:     5000 * int64(qty),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add item: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var resp domain.SaleItemResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	return resp
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSaleRoutesRequireBearerToken(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/sale", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestSaleLifecycleOverHTTP(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	sale := createTestSale(t, handler, token)
	if sale.PaymentStatus != domain.SaleStatusDraft {
		t.Fatalf("expected draft sale, got %s", sale.PaymentStatus)
	}

	item := addTestItem(t, handler, token, sale.ID, 2)
	if item.Product == nil || item.Product.PriceCents != 5000 {
		t.Fatalf("expected embedded product snapshot, got %+v", item.Product)
	}

	rec := doJSON(t, handler, http.MethodPut, "/sale/finalize/"+sale.ID, token, domain.FinalizeSaleRequest{
		ClaimedTotalCents: 10000,
		ClaimedItemCount:  2,
		Payment:           domain.PaymentRequest{CashCents: 10000},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/sale/"+sale.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get sale: expected 200, got %d", rec.Code)
	}
	var getResp struct {
		Sale domain.Sale `json:"sale"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&getResp); err != nil {
		t.Fatalf("decode sale: %v", err)
	}
	if getResp.Sale.PaymentStatus != domain.SaleStatusFinalized {
		t.Fatalf("expected finalized, got %s", getResp.Sale.PaymentStatus)
	}
}

func TestFinalizeMismatchReturnsConflict(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	sale := createTestSale(t, handler, token)
	addTestItem(t, handler, token, sale.ID, 2)

	rec := doJSON(t, handler, http.MethodPut, "/sale/finalize/"+sale.ID, token, domain.FinalizeSaleRequest{
		ClaimedTotalCents: 9999,
		ClaimedItemCount:  2,
		Payment:           domain.PaymentRequest{CashCents: 9999},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on total mismatch, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestGetUnknownSaleReturns404(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodGet, "/sale/sale-missing", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteSaleReturns204Then404(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	sale := createTestSale(t, handler, token)

	rec := doJSON(t, handler, http.MethodDelete, "/sale/"+sale.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/sale/"+sale.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat delete, got %d", rec.Code)
	}
}

func TestPaymentStatusQueries(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	draft := createTestSale(t, handler, token)
	finalized := createTestSale(t, handler, token)
	addTestItem(t, handler, token, finalized.ID, 1)
	rec := doJSON(t, handler, http.MethodPut, "/sale/finalize/"+finalized.ID, token, domain.FinalizeSaleRequest{
		ClaimedTotalCents: 5000,
		ClaimedItemCount:  1,
		Payment:           domain.PaymentRequest{CashCents: 5000},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize failed: %d (body: %s)", rec.Code, rec.Body.String())
	}

	cases := []struct {
		path   string
		wantID string
	}{
		{"/sale/payment/draft", draft.ID},
		{"/sale/payment/notdraft", finalized.ID},
		{"/sale/payment/status/finalized", finalized.ID},
	}
	for _, tc := range cases {
		rec := doJSON(t, handler, http.MethodGet, tc.path, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.path, rec.Code)
		}
		var resp struct {
			Sales []domain.Sale `json:"sales"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("%s: decode: %v", tc.path, err)
		}
		if len(resp.Sales) != 1 || resp.Sales[0].ID != tc.wantID {
			t.Fatalf("%s: expected exactly sale %s, got %+v", tc.path, tc.wantID, resp.Sales)
		}
	}
}

func TestReturnsEndpointProcessesBatch(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	sale := createTestSale(t, handler, token)
	item := addTestItem(t, handler, token, sale.ID, 3)
	rec := doJSON(t, handler, http.MethodPut, "/sale/finalize/"+sale.ID, token, domain.FinalizeSaleRequest{
		ClaimedTotalCents: 15000,
		ClaimedItemCount:  3,
		Payment:           domain.PaymentRequest{CashCents: 15000},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize failed: %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/returns", token, []domain.ReturnRequest{
		{SaleID: sale.ID, SaleItemID: item.Item.ID, Quantity: 1, Reason: "damaged"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("returns: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/returns/sale/"+sale.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list returns: expected 200, got %d", rec.Code)
	}
	var resp struct {
		Returns []domain.ReturnResponse `json:"returns"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode returns: %v", err)
	}
	if len(resp.Returns) != 1 || resp.Returns[0].Return.RefundCents != 5000 {
		t.Fatalf("unexpected returns payload: %+v", resp.Returns)
	}
}

func TestReturnExcessQuantityReturnsConflict(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	sale := createTestSale(t, handler, token)
	item := addTestItem(t, handler, token, sale.ID, 1)
	rec := doJSON(t, handler, http.MethodPut, "/sale/finalize/"+sale.ID, token, domain.FinalizeSaleRequest{
		ClaimedTotalCents: 5000,
		ClaimedItemCount:  1,
		Payment:           domain.PaymentRequest{CashCents: 5000},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize failed: %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/returns", token, []domain.ReturnRequest{
		{SaleID: sale.ID, SaleItemID: item.Item.ID, Quantity: 5, Reason: "oops"},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestReturnOnDraftSaleReturnsConflict(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	sale := createTestSale(t, handler, token)
	item := addTestItem(t, handler, token, sale.ID, 2)

	rec := doJSON(t, handler, http.MethodPost, "/returns", token, []domain.ReturnRequest{
		{SaleID: sale.ID, SaleItemID: item.Item.ID, Quantity: 1, Reason: "too early"},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on a draft sale, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestUpdateFinalizedSaleReturnsConflict(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	sale := createTestSale(t, handler, token)
	addTestItem(t, handler, token, sale.ID, 1)
	rec := doJSON(t, handler, http.MethodPut, "/sale/finalize/"+sale.ID, token, domain.FinalizeSaleRequest{
		ClaimedTotalCents: 5000,
		ClaimedItemCount:  1,
		Payment:           domain.PaymentRequest{CashCents: 5000},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize failed: %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPut, "/sale/"+sale.ID, token, domain.SaleUpdateRequest{
		CustomerID:    6,
		PaymentStatus: domain.SaleStatusDraft,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 reverting a finalized sale, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestRejectedItemReturnsConflictWithSentinelMessage(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	sale := createTestSale(t, handler, token)
	rec := doJSON(t, handler, http.MethodPost, "/salesitem", token, domain.SaleItemRequest{
		SaleID:         sale.ID,
		ProductID:      1,
		Quantity:       1,
		UnitPriceCents: 4900,
		TotalCents:     4900,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on price mismatch, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestAuditLogsRequireAdminRole(t *testing.T) {
	handler := newTestAPI(t).Handler()

	cashierToken := loginAs(t, handler, "cashier", "cashier123")
	rec := doJSON(t, handler, http.MethodGet, "/audit-logs", cashierToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier, got %d", rec.Code)
	}

	adminToken := loginAs(t, handler, "admin", "admin123")
	rec = doJSON(t, handler, http.MethodGet, "/audit-logs", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestLoginRateLimit(t *testing.T) {
	handler := newTestAPI(t).Handler()

	payload, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrongpassword"})
	var last int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.1.2.3:4567"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated failures, got %d", last)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	req := httptest.NewRequest(http.MethodPost, "/sale", bytes.NewReader([]byte(`{"customer_id":6,"bogus":1}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on unknown field, got %d", rec.Code)
	}
}
