package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type supplierOrderService struct {
	pool *pgxpool.Pool
}

// NewSupplierOrderService constructs a SupplierOrderService backed by PostgreSQL.
func NewSupplierOrderService(pool *pgxpool.Pool) SupplierOrderService {
	return &supplierOrderService{pool: pool}
}

// ── Master data ──────────────────────────────────────────────────────────────

func (s *supplierOrderService) CreateSupplier(ctx context.Context, code, name, email string) (*Supplier, error) {
	var sp Supplier
	err := s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (code, name, email)
		VALUES ($1, $2, $3)
		RETURNING id, code, name, email, is_active, created_at
	`, code, name, email).Scan(&sp.ID, &sp.Code, &sp.Name, &sp.Email, &sp.IsActive, &sp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return &sp, nil
}

func (s *supplierOrderService) GetSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, email, is_active, created_at
		FROM suppliers
		WHERE is_active = true
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var sp Supplier
		if err := rows.Scan(&sp.ID, &sp.Code, &sp.Name, &sp.Email, &sp.IsActive, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, sp)
	}
	return suppliers, rows.Err()
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

func (s *supplierOrderService) CreateOrder(ctx context.Context, supplierID int, orderDate, deliveryDate string, lines []SupplierOrderLineInput) (*SupplierOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var supplierExists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = $1 AND is_active = true)",
		supplierID,
	).Scan(&supplierExists); err != nil {
		return nil, fmt.Errorf("failed to validate supplier: %w", err)
	}
	if !supplierExists {
		return nil, fmt.Errorf("supplier %d not found", supplierID)
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO supplier_orders (supplier_id, order_date, delivery_date, order_sent, received)
		VALUES ($1, $2, $3, false, false)
		RETURNING id
	`, supplierID, orderDate, deliveryDate).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert supplier order: %w", err)
	}

	for i, input := range lines {
		if err := insertSupplierLineTx(ctx, tx, orderID, input); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func insertSupplierLineTx(ctx context.Context, tx pgx.Tx, orderID int, input SupplierOrderLineInput) error {
	if input.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", input.Quantity)
	}
	if input.BuyPrice.IsNegative() {
		return fmt.Errorf("buy price cannot be negative, got %s", input.BuyPrice)
	}

	var productID int
	err := tx.QueryRow(ctx, "SELECT id FROM products WHERE code = $1", input.ProductCode).Scan(&productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product %s not found", input.ProductCode)
		}
		return fmt.Errorf("failed to resolve product %s: %w", input.ProductCode, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO supplier_order_lines (order_id, product_id, quantity, buy_price)
		VALUES ($1, $2, $3, $4)
	`, orderID, productID, input.Quantity, input.BuyPrice)
	if err != nil {
		return fmt.Errorf("failed to insert line for product %s: %w", input.ProductCode, err)
	}
	return nil
}

func (s *supplierOrderService) AddLine(ctx context.Context, orderID int, line SupplierOrderLineInput) (*SupplierOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderSent, received, err := lockSupplierOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if orderSent {
		return nil, &OrderStateError{Kind: SupplierOrderKind, OrderID: orderID, State: supplierState(orderSent, received), Transition: "modified"}
	}

	if err := insertSupplierLineTx(ctx, tx, orderID, line); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit line addition: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *supplierOrderService) RemoveLine(ctx context.Context, orderID int, productCode string) (*SupplierOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderSent, received, err := lockSupplierOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if orderSent {
		return nil, &OrderStateError{Kind: SupplierOrderKind, OrderID: orderID, State: supplierState(orderSent, received), Transition: "modified"}
	}

	ct, err := tx.Exec(ctx, `
		DELETE FROM supplier_order_lines
		WHERE order_id = $1 AND product_id = (SELECT id FROM products WHERE code = $2)
	`, orderID, productCode)
	if err != nil {
		return nil, fmt.Errorf("failed to remove line for product %s: %w", productCode, err)
	}
	if ct.RowsAffected() == 0 {
		return nil, fmt.Errorf("order %d has no line for product %s", orderID, productCode)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit line removal: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func supplierState(orderSent, received bool) string {
	switch {
	case orderSent && received:
		return SupplierOrderReceived
	case orderSent:
		return SupplierOrderSent
	default:
		return SupplierOrderPending
	}
}

// lockSupplierOrderTx locks the order header row and returns its flags.
// Locking the header serializes concurrent transitions on the same order.
func lockSupplierOrderTx(ctx context.Context, tx pgx.Tx, orderID int) (orderSent, received bool, err error) {
	err = tx.QueryRow(ctx,
		"SELECT order_sent, received FROM supplier_orders WHERE id = $1 FOR UPDATE",
		orderID,
	).Scan(&orderSent, &received)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, &UnknownOrderError{Kind: SupplierOrderKind, OrderID: orderID}
		}
		return false, false, fmt.Errorf("failed to lock supplier order %d: %w", orderID, err)
	}
	return orderSent, received, nil
}

func (s *supplierOrderService) Send(ctx context.Context, orderID int) (*SupplierOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderSent, received, err := lockSupplierOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if orderSent {
		return nil, &OrderStateError{Kind: SupplierOrderKind, OrderID: orderID, State: supplierState(orderSent, received), Transition: "sent"}
	}

	_, err = tx.Exec(ctx,
		"UPDATE supplier_orders SET order_sent = true WHERE id = $1",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order %d as sent: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit send: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *supplierOrderService) Receive(ctx context.Context, orderID int, stock StockService) (*SupplierOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderSent, received, err := lockSupplierOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !orderSent || received {
		return nil, &OrderStateError{Kind: SupplierOrderKind, OrderID: orderID, State: supplierState(orderSent, received), Transition: "received"}
	}

	lines, err := fetchSupplierLinesQ(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	// A goods receipt is strictly additive; no sufficiency gate.
	if err := stock.ReceiveLinesTx(ctx, tx, orderID, lines); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		"UPDATE supplier_orders SET received = true WHERE id = $1",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order %d as received: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reception: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *supplierOrderService) CancelReception(ctx context.Context, orderID int, stock StockService) (*SupplierOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderSent, received, err := lockSupplierOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !received {
		return nil, &OrderStateError{Kind: SupplierOrderKind, OrderID: orderID, State: supplierState(orderSent, received), Transition: "reception-cancelled"}
	}

	lines, err := fetchSupplierLinesQ(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	// The received units may already have shipped out through a customer
	// order; the bounds-checked decrement refuses the whole cancellation
	// rather than driving stock negative.
	if err := stock.UnreceiveLinesTx(ctx, tx, orderID, lines); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		"UPDATE supplier_orders SET received = false WHERE id = $1",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order %d as not received: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reception cancellation: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *supplierOrderService) DeleteOrder(ctx context.Context, orderID int, force bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderDate string
	var orderSent bool
	err = tx.QueryRow(ctx,
		"SELECT order_date::text, order_sent FROM supplier_orders WHERE id = $1 FOR UPDATE",
		orderID,
	).Scan(&orderDate, &orderSent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &UnknownOrderError{Kind: SupplierOrderKind, OrderID: orderID}
		}
		return fmt.Errorf("failed to lock supplier order %d: %w", orderID, err)
	}

	if !force {
		if reason := deletionRefusal(orderDate, orderSent, time.Now()); reason != "" {
			return &OrderLockedError{Kind: SupplierOrderKind, OrderID: orderID, Reason: reason}
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM supplier_order_lines WHERE order_id = $1", orderID); err != nil {
		return fmt.Errorf("failed to delete lines of order %d: %w", orderID, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM supplier_orders WHERE id = $1", orderID); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", orderID, err)
	}

	return tx.Commit(ctx)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *supplierOrderService) GetOrder(ctx context.Context, orderID int) (*SupplierOrder, error) {
	var o SupplierOrder
	err := s.pool.QueryRow(ctx, `
		SELECT so.id, so.supplier_id, sp.name, so.order_date::text, so.delivery_date::text,
		       so.order_sent, so.received, so.created_at
		FROM supplier_orders so
		JOIN suppliers sp ON sp.id = so.supplier_id
		WHERE so.id = $1
	`, orderID).Scan(
		&o.ID, &o.SupplierID, &o.SupplierName, &o.OrderDate, &o.DeliveryDate,
		&o.OrderSent, &o.Received, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnknownOrderError{Kind: SupplierOrderKind, OrderID: orderID}
		}
		return nil, fmt.Errorf("failed to fetch supplier order %d: %w", orderID, err)
	}

	lines, err := fetchSupplierLinesQ(ctx, s.pool, orderID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (s *supplierOrderService) GetOrders(ctx context.Context, received *bool) ([]SupplierOrder, error) {
	query := `
		SELECT so.id, so.supplier_id, sp.name, so.order_date::text, so.delivery_date::text,
		       so.order_sent, so.received, so.created_at
		FROM supplier_orders so
		JOIN suppliers sp ON sp.id = so.supplier_id
	`
	var args []any
	if received != nil {
		query += " WHERE so.received = $1"
		args = append(args, *received)
	}
	query += " ORDER BY so.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier orders: %w", err)
	}
	defer rows.Close()

	var orders []SupplierOrder
	for rows.Next() {
		var o SupplierOrder
		if err := rows.Scan(
			&o.ID, &o.SupplierID, &o.SupplierName, &o.OrderDate, &o.DeliveryDate,
			&o.OrderSent, &o.Received, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan supplier order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func fetchSupplierLinesQ(ctx context.Context, q pgxRowQuerier, orderID int) ([]SupplierOrderLine, error) {
	rows, err := q.Query(ctx, `
		SELECT sol.order_id, sol.product_id, p.code, p.name, sol.quantity, sol.buy_price
		FROM supplier_order_lines sol
		JOIN products p ON p.id = sol.product_id
		WHERE sol.order_id = $1
		ORDER BY p.code
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []SupplierOrderLine
	for rows.Next() {
		var l SupplierOrderLine
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.ProductCode, &l.ProductName, &l.Quantity, &l.BuyPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
