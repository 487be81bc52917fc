package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"retailpos/sales/internal/domain"
	"retailpos/sales/internal/store"
	"retailpos/sales/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const saleColumns = `id, operator_id, customer_id, total_cents, item_count, payment_status, created_at, updated_at`

func scanSale(row interface{ Scan(dest ...any) error }) (*domain.Sale, error) {
	var sale domain.Sale
	err := row.Scan(&sale.ID, &sale.OperatorID, &sale.CustomerID, &sale.TotalCents, &sale.ItemCount, &sale.PaymentStatus, &sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sale.CreatedAt = sale.CreatedAt.UTC()
	sale.UpdatedAt = sale.UpdatedAt.UTC()
	return &sale, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.CustomerID < 1 || sale.OperatorID < 1 {
		return nil, store.ErrInvalidRequest
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.PaymentStatus == "" {
		sale.PaymentStatus = domain.SaleStatusDraft
	}
	now := time.Now().UTC()
	sale.CreatedAt = now
	sale.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales (id, operator_id, customer_id, total_cents, item_count, payment_status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, sale.ID, sale.OperatorID, sale.CustomerID, sale.TotalCents, sale.ItemCount, sale.PaymentStatus, sale.CreatedAt, sale.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRequest
		}
		return nil, err
	}

	created := sale
	return &created, nil
}

func (s *Store) GetSaleByID(ctx context.Context, saleID string) (*domain.Sale, error) {
	sale, err := scanSale(s.db.QueryRowContext(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE id = $1
	`, saleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return sale, nil
}

func (s *Store) UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.CustomerID < 1 {
		return nil, store.ErrInvalidRequest
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE sales
		SET customer_id = $2, total_cents = $3, item_count = $4,
			payment_status = COALESCE(NULLIF($5, ''), payment_status),
			updated_at = now()
		WHERE id = $1 AND payment_status <> $6
		RETURNING `+saleColumns+`
	`, sale.ID, sale.CustomerID, sale.TotalCents, sale.ItemCount, sale.PaymentStatus, domain.SaleStatusFinalized)
	updated, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.saleUpdateFailure(ctx, sale.ID)
		}
		return nil, err
	}
	return updated, nil
}

// saleUpdateFailure distinguishes a missing sale from a finalized one after a
// zero-row UPDATE.
func (s *Store) saleUpdateFailure(ctx context.Context, saleID string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM sales WHERE id = $1)
	`, saleID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrSaleFinalized
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.querySales(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		ORDER BY created_at DESC, id DESC
	`)
}

func (s *Store) ListSalesByStatus(ctx context.Context, status string) ([]domain.Sale, error) {
	return s.querySales(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE payment_status = $1
		ORDER BY created_at DESC, id DESC
	`, status)
}

func (s *Store) ListSalesNotInStatus(ctx context.Context, status string) ([]domain.Sale, error) {
	return s.querySales(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE payment_status <> $1
		ORDER BY created_at DESC, id DESC
	`, status)
}

func (s *Store) ListSalesByCustomer(ctx context.Context, customerID int64) ([]domain.Sale, error) {
	return s.querySales(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
	`, customerID)
}

func (s *Store) querySales(ctx context.Context, query string, args ...any) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) DeleteSale(ctx context.Context, saleID string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, query := range []string{
		`DELETE FROM sale_returns WHERE sale_id = $1`,
		`DELETE FROM sale_payments WHERE sale_id = $1`,
		`DELETE FROM sale_items WHERE sale_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, query, saleID); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return tx.Commit()
}

const itemColumns = `id, sale_id, product_id, quantity, returned_quantity, unit_price_cents, discount_cents, discount_percent, total_cents, created_at, updated_at`

func scanItem(row interface{ Scan(dest ...any) error }) (*domain.SaleItem, error) {
	var item domain.SaleItem
	err := row.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &item.ReturnedQuantity, &item.UnitPriceCents, &item.DiscountCents, &item.DiscountPercent, &item.TotalCents, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

func (s *Store) AddOrMergeItem(ctx context.Context, item domain.SaleItem) (*domain.SaleItem, error) {
	if item.ProductID < 1 || item.Quantity < 1 {
		return nil, store.ErrInvalidRequest
	}
	if item.ID == "" {
		item.ID = xid.New("item")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT payment_status FROM sales WHERE id = $1 FOR UPDATE
	`, item.SaleID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status == domain.SaleStatusFinalized {
		return nil, store.ErrSaleFinalized
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO sale_items (
			id, sale_id, product_id, quantity, returned_quantity,
			unit_price_cents, discount_cents, discount_percent, total_cents,
			created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,0,$5,$6,$7,$8,now(),now())
		ON CONFLICT (sale_id, product_id)
		DO UPDATE SET
			quantity = sale_items.quantity + EXCLUDED.quantity,
			total_cents = sale_items.total_cents + EXCLUDED.total_cents,
			unit_price_cents = EXCLUDED.unit_price_cents,
			discount_cents = EXCLUDED.discount_cents,
			discount_percent = EXCLUDED.discount_percent,
			updated_at = now()
		RETURNING `+itemColumns+`
	`, item.ID, item.SaleID, item.ProductID, item.Quantity, item.UnitPriceCents, item.DiscountCents, item.DiscountPercent, item.TotalCents)
	saved, err := scanItem(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Store) GetItemByID(ctx context.Context, itemID string) (*domain.SaleItem, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM sale_items
		WHERE id = $1
	`, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *Store) UpdateItem(ctx context.Context, item domain.SaleItem) (*domain.SaleItem, error) {
	if item.Quantity < 1 {
		return nil, store.ErrInvalidRequest
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE sale_items
		SET quantity = $2, unit_price_cents = $3, discount_cents = $4,
			discount_percent = $5, total_cents = $6, updated_at = now()
		WHERE id = $1
			AND NOT EXISTS (
				SELECT 1 FROM sales
				WHERE sales.id = sale_items.sale_id AND sales.payment_status = $7
			)
		RETURNING `+itemColumns+`
	`, item.ID, item.Quantity, item.UnitPriceCents, item.DiscountCents, item.DiscountPercent, item.TotalCents, domain.SaleStatusFinalized)
	updated, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.itemUpdateFailure(ctx, item.ID)
		}
		return nil, err
	}
	return updated, nil
}

// itemUpdateFailure distinguishes a missing item from an item locked behind a
// finalized sale after a zero-row UPDATE.
func (s *Store) itemUpdateFailure(ctx context.Context, itemID string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM sale_items WHERE id = $1)
	`, itemID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrSaleFinalized
}

func (s *Store) ListItemsBySale(ctx context.Context, saleID string) ([]domain.SaleItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY created_at ASC, id ASC
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0, 16)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeleteItem(ctx context.Context, itemID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sale_items
		WHERE id = $1
			AND NOT EXISTS (
				SELECT 1 FROM sales
				WHERE sales.id = sale_items.sale_id AND sales.payment_status = $2
			)
	`, itemID, domain.SaleStatusFinalized)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.itemUpdateFailure(ctx, itemID)
	}
	return nil
}

func (s *Store) FinalizeSale(ctx context.Context, saleID string, totalCents int64, itemCount int, payment domain.Payment, at time.Time) (*domain.Sale, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT payment_status FROM sales WHERE id = $1 FOR UPDATE
	`, saleID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status == domain.SaleStatusFinalized {
		return nil, store.ErrSaleFinalized
	}

	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sale_payments (
			id, sale_id, cash_cents, card_cents, card_ref, qr_cents, qr_ref,
			cheque_cents, cheque_ref, due_cents, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
		ON CONFLICT (sale_id)
		DO UPDATE SET
			cash_cents = EXCLUDED.cash_cents,
			card_cents = EXCLUDED.card_cents,
			card_ref = EXCLUDED.card_ref,
			qr_cents = EXCLUDED.qr_cents,
			qr_ref = EXCLUDED.qr_ref,
			cheque_cents = EXCLUDED.cheque_cents,
			cheque_ref = EXCLUDED.cheque_ref,
			due_cents = EXCLUDED.due_cents,
			updated_at = EXCLUDED.updated_at
	`, payment.ID, saleID, payment.CashCents, payment.CardCents, nullIfEmpty(payment.CardRef), payment.QRCents, nullIfEmpty(payment.QRRef), payment.ChequeCents, nullIfEmpty(payment.ChequeRef), payment.DueCents, at)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE sales
		SET total_cents = $2, item_count = $3, payment_status = $4, updated_at = $5
		WHERE id = $1
		RETURNING `+saleColumns+`
	`, saleID, totalCents, itemCount, domain.SaleStatusFinalized, at)
	finalized, err := scanSale(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return finalized, nil
}

func (s *Store) GetPaymentBySale(ctx context.Context, saleID string) (*domain.Payment, error) {
	var payment domain.Payment
	var cardRef, qrRef, chequeRef sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sale_id, cash_cents, card_cents, card_ref, qr_cents, qr_ref,
			cheque_cents, cheque_ref, due_cents, created_at, updated_at
		FROM sale_payments
		WHERE sale_id = $1
	`, saleID).Scan(&payment.ID, &payment.SaleID, &payment.CashCents, &payment.CardCents, &cardRef, &payment.QRCents, &qrRef, &payment.ChequeCents, &chequeRef, &payment.DueCents, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	payment.CardRef = cardRef.String
	payment.QRRef = qrRef.String
	payment.ChequeRef = chequeRef.String
	payment.CreatedAt = payment.CreatedAt.UTC()
	payment.UpdatedAt = payment.UpdatedAt.UTC()
	return &payment, nil
}

func (s *Store) ApplyReturn(ctx context.Context, ret domain.Return) (*domain.Return, error) {
	if ret.Quantity < 1 {
		return nil, store.ErrInvalidRequest
	}
	if ret.ID == "" {
		ret.ID = xid.New("ret")
	}
	if ret.CreatedAt.IsZero() {
		ret.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT payment_status FROM sales WHERE id = $1 FOR UPDATE
	`, ret.SaleID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.SaleStatusFinalized {
		return nil, store.ErrSaleNotFinalized
	}

	item, err := scanItem(tx.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM sale_items
		WHERE id = $1 AND sale_id = $2
		FOR UPDATE
	`, ret.SaleItemID, ret.SaleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if ret.Quantity > item.Quantity {
		return nil, store.ErrInsufficientReturnQty
	}
	if ret.RefundCents == 0 {
		ret.RefundCents = item.UnitPriceCents * int64(ret.Quantity)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sale_items
		SET quantity = quantity - $2,
			returned_quantity = returned_quantity + $2,
			total_cents = total_cents - $3,
			updated_at = now()
		WHERE id = $1
	`, item.ID, ret.Quantity, ret.RefundCents)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET total_cents = total_cents - $2,
			item_count = item_count - $3,
			updated_at = now()
		WHERE id = $1
	`, ret.SaleID, ret.RefundCents, ret.Quantity)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sale_returns (id, sale_id, sale_item_id, quantity, reason, refund_cents, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, ret.ID, ret.SaleID, ret.SaleItemID, ret.Quantity, strings.TrimSpace(ret.Reason), ret.RefundCents, ret.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := ret
	return &created, nil
}

func (s *Store) ListReturnsBySale(ctx context.Context, saleID string) ([]domain.Return, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_id, sale_item_id, quantity, reason, refund_cents, created_at
		FROM sale_returns
		WHERE sale_id = $1
		ORDER BY created_at ASC, id ASC
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	returns := make([]domain.Return, 0, 8)
	for rows.Next() {
		var ret domain.Return
		if err := rows.Scan(&ret.ID, &ret.SaleID, &ret.SaleItemID, &ret.Quantity, &ret.Reason, &ret.RefundCents, &ret.CreatedAt); err != nil {
			return nil, err
		}
		ret.CreatedAt = ret.CreatedAt.UTC()
		returns = append(returns, ret)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return returns, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, nullIfEmpty(entry.EntityID), entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		var entityID sql.NullString
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.EntityID = entityID.String
		entry.CreatedAt = entry.CreatedAt.UTC()
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidRequest
	}
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,true,$4)
	`, username, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidRequest
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidRequest
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
