package domain

import "time"

const (
	SaleStatusDraft     = "draft"
	SaleStatusFinalized = "finalized"
)

// Sale is the aggregate header for one transaction. Totals are denormalized
// and must track the line items once the sale is finalized.
type Sale struct {
	ID            string    `json:"id"`
	OperatorID    int64     `json:"operator_id"`
	CustomerID    int64     `json:"customer_id"`
	TotalCents    int64     `json:"total_cents"`
	ItemCount     int       `json:"item_count"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SaleItem carries the authoritative price/discount snapshot copied from the
// product catalog at the time the item was admitted.
type SaleItem struct {
	ID               string    `json:"id"`
	SaleID           string    `json:"sale_id"`
	ProductID        int64     `json:"product_id"`
	Quantity         int       `json:"quantity"`
	ReturnedQuantity int       `json:"returned_quantity"`
	UnitPriceCents   int64     `json:"unit_price_cents"`
	DiscountCents    int64     `json:"discount_cents"`
	DiscountPercent  float64   `json:"discount_percent"`
	TotalCents       int64     `json:"total_cents"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Payment is the single per-sale tender breakdown, upserted at finalize.
type Payment struct {
	ID          string    `json:"id"`
	SaleID      string    `json:"sale_id"`
	CashCents   int64     `json:"cash_cents"`
	CardCents   int64     `json:"card_cents"`
	CardRef     string    `json:"card_ref,omitempty"`
	QRCents     int64     `json:"qr_cents"`
	QRRef       string    `json:"qr_ref,omitempty"`
	ChequeCents int64     `json:"cheque_cents"`
	ChequeRef   string    `json:"cheque_ref,omitempty"`
	DueCents    int64     `json:"due_cents"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TenderTotal is the sum of all tender amounts plus the outstanding due.
func (p Payment) TenderTotal() int64 {
	return p.CashCents + p.CardCents + p.QRCents + p.ChequeCents + p.DueCents
}

// Return is an append-only audit record of one processed return entry.
type Return struct {
	ID          string    `json:"id"`
	SaleID      string    `json:"sale_id"`
	SaleItemID  string    `json:"sales_item_id"`
	Quantity    int       `json:"quantity"`
	Reason      string    `json:"reason"`
	RefundCents int64     `json:"refund_cents"`
	CreatedAt   time.Time `json:"created_at"`
}

type SaleCreateRequest struct {
	CustomerID int64 `json:"customer_id"`
}

type SaleUpdateRequest struct {
	TotalCents    int64  `json:"total_cents"`
	ItemCount     int    `json:"item_count"`
	PaymentStatus string `json:"payment_status"`
	CustomerID    int64  `json:"customer_id"`
}

type PaymentRequest struct {
	CashCents   int64  `json:"cash_cents"`
	CardCents   int64  `json:"card_cents"`
	CardRef     string `json:"card_ref,omitempty"`
	QRCents     int64  `json:"qr_cents"`
	QRRef       string `json:"qr_ref,omitempty"`
	ChequeCents int64  `json:"cheque_cents"`
	ChequeRef   string `json:"cheque_ref,omitempty"`
	DueCents    int64  `json:"due_cents"`
}

type FinalizeSaleRequest struct {
	ClaimedTotalCents int64          `json:"claimed_total_cents"`
	ClaimedItemCount  int            `json:"claimed_item_count"`
	Payment           PaymentRequest `json:"payment"`
}

type SaleItemRequest struct {
	SaleID          string  `json:"sale_id"`
	ProductID       int64   `json:"product_id"`
	Quantity        int     `json:"quantity"`
	UnitPriceCents  int64   `json:"unit_price_cents"`
	DiscountCents   int64   `json:"discount_cents"`
	DiscountPercent float64 `json:"discount_percent"`
	TotalCents      int64   `json:"total_cents"`
}

type SaleItemUpdateRequest struct {
	Quantity        int     `json:"quantity"`
	UnitPriceCents  int64   `json:"unit_price_cents"`
	DiscountCents   int64   `json:"discount_cents"`
	DiscountPercent float64 `json:"discount_percent"`
	TotalCents      int64   `json:"total_cents"`
}

// ProductInfo is the embedded catalog snapshot returned alongside a persisted
// line item so the client sees exactly what was admitted against.
type ProductInfo struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	StockQty   int    `json:"stock_qty"`
}

type SaleItemResponse struct {
	Item    SaleItem     `json:"item"`
	Product *ProductInfo `json:"product,omitempty"`
}

type ReturnRequest struct {
	SaleID     string `json:"sale_id"`
	SaleItemID string `json:"sales_item_id"`
	Quantity   int    `json:"quantity"`
	Reason     string `json:"reason"`
}

// ReturnResponse pairs a return record with the owning sale's line items as
// they stand after the return was applied.
type ReturnResponse struct {
	Return Return     `json:"return"`
	Sale   Sale       `json:"sale"`
	Items  []SaleItem `json:"items"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}
