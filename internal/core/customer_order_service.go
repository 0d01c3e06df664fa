package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type customerOrderService struct {
	pool *pgxpool.Pool
}

// NewCustomerOrderService constructs a CustomerOrderService backed by PostgreSQL.
func NewCustomerOrderService(pool *pgxpool.Pool) CustomerOrderService {
	return &customerOrderService{pool: pool}
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxRowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx (for Query).
type pgxRowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ── Master data ──────────────────────────────────────────────────────────────

func (s *customerOrderService) CreateEmployee(ctx context.Context, code, firstName, lastName, email string) (*Employee, error) {
	var e Employee
	err := s.pool.QueryRow(ctx, `
		INSERT INTO employees (code, first_name, last_name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, code, first_name, last_name, email, is_active, created_at
	`, code, firstName, lastName, email).Scan(
		&e.ID, &e.Code, &e.FirstName, &e.LastName, &e.Email, &e.IsActive, &e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	return &e, nil
}

func (s *customerOrderService) GetEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, first_name, last_name, email, is_active, created_at
		FROM employees
		WHERE is_active = true
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Code, &e.FirstName, &e.LastName, &e.Email, &e.IsActive, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *customerOrderService) CreateCustomer(ctx context.Context, code, name, email string) (*Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (code, name, email)
		VALUES ($1, $2, $3)
		RETURNING id, code, name, email, is_active, created_at
	`, code, name, email).Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &c, nil
}

func (s *customerOrderService) GetCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, email, is_active, created_at
		FROM customers
		WHERE is_active = true
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

func (s *customerOrderService) CreateOrder(ctx context.Context, employeeID int, customerID *int, orderDate, deliveryDate string, lines []CustomerOrderLineInput) (*CustomerOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var employeeExists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM employees WHERE id = $1 AND is_active = true)",
		employeeID,
	).Scan(&employeeExists); err != nil {
		return nil, fmt.Errorf("failed to validate employee: %w", err)
	}
	if !employeeExists {
		return nil, fmt.Errorf("employee %d not found", employeeID)
	}

	if customerID != nil {
		var customerExists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND is_active = true)",
			*customerID,
		).Scan(&customerExists); err != nil {
			return nil, fmt.Errorf("failed to validate customer: %w", err)
		}
		if !customerExists {
			return nil, fmt.Errorf("customer %d not found", *customerID)
		}
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO customer_orders (employee_id, customer_id, order_date, delivery_date, sent)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id
	`, employeeID, customerID, orderDate, deliveryDate).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert customer order: %w", err)
	}

	for i, input := range lines {
		if err := insertCustomerLineTx(ctx, tx, orderID, input); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

// insertCustomerLineTx resolves the product by code and inserts one line.
// A zero SellPrice falls back to the product's catalog price.
func insertCustomerLineTx(ctx context.Context, tx pgx.Tx, orderID int, input CustomerOrderLineInput) error {
	if input.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", input.Quantity)
	}
	if input.SellPrice.IsNegative() {
		return fmt.Errorf("sell price cannot be negative, got %s", input.SellPrice)
	}

	var productID int
	var catalogPrice decimal.Decimal
	err := tx.QueryRow(ctx,
		"SELECT id, price FROM products WHERE code = $1",
		input.ProductCode,
	).Scan(&productID, &catalogPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product %s not found", input.ProductCode)
		}
		return fmt.Errorf("failed to resolve product %s: %w", input.ProductCode, err)
	}

	price := input.SellPrice
	if price.IsZero() {
		price = catalogPrice
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO customer_order_lines (order_id, product_id, quantity, sell_price)
		VALUES ($1, $2, $3, $4)
	`, orderID, productID, input.Quantity, price)
	if err != nil {
		return fmt.Errorf("failed to insert line for product %s: %w", input.ProductCode, err)
	}
	return nil
}

func (s *customerOrderService) AddLine(ctx context.Context, orderID int, line CustomerOrderLineInput) (*CustomerOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sent, err := lockCustomerOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if sent {
		return nil, &OrderStateError{Kind: CustomerOrderKind, OrderID: orderID, State: CustomerOrderSent, Transition: "modified"}
	}

	if err := insertCustomerLineTx(ctx, tx, orderID, line); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit line addition: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

// UpdateLine replaces the quantity and price of an existing line, keyed by
// product code. A zero SellPrice falls back to the catalog price, as on insert.
func (s *customerOrderService) UpdateLine(ctx context.Context, orderID int, line CustomerOrderLineInput) (*CustomerOrder, error) {
	if line.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d", line.Quantity)
	}
	if line.SellPrice.IsNegative() {
		return nil, fmt.Errorf("sell price cannot be negative, got %s", line.SellPrice)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sent, err := lockCustomerOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if sent {
		return nil, &OrderStateError{Kind: CustomerOrderKind, OrderID: orderID, State: CustomerOrderSent, Transition: "modified"}
	}

	var productID int
	var catalogPrice decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT id, price FROM products WHERE code = $1",
		line.ProductCode,
	).Scan(&productID, &catalogPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %s not found", line.ProductCode)
		}
		return nil, fmt.Errorf("failed to resolve product %s: %w", line.ProductCode, err)
	}

	price := line.SellPrice
	if price.IsZero() {
		price = catalogPrice
	}

	ct, err := tx.Exec(ctx, `
		UPDATE customer_order_lines SET quantity = $1, sell_price = $2
		WHERE order_id = $3 AND product_id = $4
	`, line.Quantity, price, orderID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to update line for product %s: %w", line.ProductCode, err)
	}
	if ct.RowsAffected() == 0 {
		return nil, fmt.Errorf("order %d has no line for product %s", orderID, line.ProductCode)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit line update: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *customerOrderService) RemoveLine(ctx context.Context, orderID int, productCode string) (*CustomerOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sent, err := lockCustomerOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if sent {
		return nil, &OrderStateError{Kind: CustomerOrderKind, OrderID: orderID, State: CustomerOrderSent, Transition: "modified"}
	}

	ct, err := tx.Exec(ctx, `
		DELETE FROM customer_order_lines
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

// lockCustomerOrderTx locks the order header row and returns its sent flag.
// Locking the header serializes concurrent transitions on the same order.
func lockCustomerOrderTx(ctx context.Context, tx pgx.Tx, orderID int) (sent bool, err error) {
	err = tx.QueryRow(ctx,
		"SELECT sent FROM customer_orders WHERE id = $1 FOR UPDATE",
		orderID,
	).Scan(&sent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, &UnknownOrderError{Kind: CustomerOrderKind, OrderID: orderID}
		}
		return false, fmt.Errorf("failed to lock customer order %d: %w", orderID, err)
	}
	return sent, nil
}

func (s *customerOrderService) Ship(ctx context.Context, orderID int, stock StockService) (*CustomerOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sent, err := lockCustomerOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if sent {
		return nil, &OrderStateError{Kind: CustomerOrderKind, OrderID: orderID, State: CustomerOrderSent, Transition: "shipped"}
	}

	lines, err := fetchCustomerLinesQ(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &EmptyOrderError{Kind: CustomerOrderKind, OrderID: orderID}
	}

	// Decrement every product under lock. The first insufficient product
	// aborts the whole transaction, so no partial decrement survives.
	if err := stock.ShipLinesTx(ctx, tx, orderID, lines); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		"UPDATE customer_orders SET sent = true WHERE id = $1",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order %d as sent: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit shipment: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *customerOrderService) CancelShipment(ctx context.Context, orderID int, stock StockService) (*CustomerOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sent, err := lockCustomerOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !sent {
		return nil, &OrderStateError{Kind: CustomerOrderKind, OrderID: orderID, State: CustomerOrderPending, Transition: "shipment-cancelled"}
	}

	lines, err := fetchCustomerLinesQ(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	// Incrementing cannot violate non-negativity; no sufficiency gate here.
	if err := stock.UnshipLinesTx(ctx, tx, orderID, lines); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		"UPDATE customer_orders SET sent = false WHERE id = $1",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order %d as pending: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit shipment cancellation: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *customerOrderService) DeleteOrder(ctx context.Context, orderID int, force bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderDate string
	var sent bool
	err = tx.QueryRow(ctx,
		"SELECT order_date::text, sent FROM customer_orders WHERE id = $1 FOR UPDATE",
		orderID,
	).Scan(&orderDate, &sent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &UnknownOrderError{Kind: CustomerOrderKind, OrderID: orderID}
		}
		return fmt.Errorf("failed to lock customer order %d: %w", orderID, err)
	}

	if !force {
		if reason := deletionRefusal(orderDate, sent, time.Now()); reason != "" {
			return &OrderLockedError{Kind: CustomerOrderKind, OrderID: orderID, Reason: reason}
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM customer_order_lines WHERE order_id = $1", orderID); err != nil {
		return fmt.Errorf("failed to delete lines of order %d: %w", orderID, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM customer_orders WHERE id = $1", orderID); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", orderID, err)
	}

	return tx.Commit(ctx)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *customerOrderService) GetOrder(ctx context.Context, orderID int) (*CustomerOrder, error) {
	var o CustomerOrder
	err := s.pool.QueryRow(ctx, `
		SELECT co.id, co.order_date::text, co.delivery_date::text, co.sent,
		       co.employee_id, e.first_name || ' ' || e.last_name,
		       co.customer_id, c.name, co.created_at
		FROM customer_orders co
		JOIN employees e ON e.id = co.employee_id
		LEFT JOIN customers c ON c.id = co.customer_id
		WHERE co.id = $1
	`, orderID).Scan(
		&o.ID, &o.OrderDate, &o.DeliveryDate, &o.Sent,
		&o.EmployeeID, &o.EmployeeName,
		&o.CustomerID, &o.CustomerName, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnknownOrderError{Kind: CustomerOrderKind, OrderID: orderID}
		}
		return nil, fmt.Errorf("failed to fetch customer order %d: %w", orderID, err)
	}

	lines, err := fetchCustomerLinesQ(ctx, s.pool, orderID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (s *customerOrderService) GetOrders(ctx context.Context, sent *bool) ([]CustomerOrder, error) {
	query := `
		SELECT co.id, co.order_date::text, co.delivery_date::text, co.sent,
		       co.employee_id, e.first_name || ' ' || e.last_name,
		       co.customer_id, c.name, co.created_at
		FROM customer_orders co
		JOIN employees e ON e.id = co.employee_id
		LEFT JOIN customers c ON c.id = co.customer_id
	`
	var args []any
	if sent != nil {
		query += " WHERE co.sent = $1"
		args = append(args, *sent)
	}
	query += " ORDER BY co.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer orders: %w", err)
	}
	defer rows.Close()

	var orders []CustomerOrder
	for rows.Next() {
		var o CustomerOrder
		if err := rows.Scan(
			&o.ID, &o.OrderDate, &o.DeliveryDate, &o.Sent,
			&o.EmployeeID, &o.EmployeeName,
			&o.CustomerID, &o.CustomerName, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan customer order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func fetchCustomerLinesQ(ctx context.Context, q pgxRowQuerier, orderID int) ([]CustomerOrderLine, error) {
	rows, err := q.Query(ctx, `
		SELECT col.order_id, col.product_id, p.code, p.name, col.quantity, col.sell_price
		FROM customer_order_lines col
		JOIN products p ON p.id = col.product_id
		WHERE col.order_id = $1
		ORDER BY p.code
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []CustomerOrderLine
	for rows.Next() {
		var l CustomerOrderLine
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.ProductCode, &l.ProductName, &l.Quantity, &l.SellPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
