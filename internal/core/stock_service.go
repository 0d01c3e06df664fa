package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockService owns the product catalog and is the only code path that
// writes products.stock. Both order state machines mutate stock through
// the tx-scoped methods so that the non-negativity invariant and the
// movement trail live in one place.
type StockService interface {
	// Master data
	CreateProduct(ctx context.Context, code, name, description string, price decimal.Decimal, stock, minStock int64) (*Product, error)
	GetProduct(ctx context.Context, productID int) (*Product, error)
	GetProductByCode(ctx context.Context, code string) (*Product, error)
	GetProducts(ctx context.Context) ([]Product, error)

	// Queries
	GetStockLevels(ctx context.Context) ([]StockLevel, error)
	GetLowStockProducts(ctx context.Context) ([]Product, error)
	GetMovements(ctx context.Context, productID int) ([]StockMovement, error)

	// AdjustStock applies a manual correction through the same bounds-checked
	// funnel as the state machines. Negative deltas that would drive stock
	// below zero fail with ProductStockError.
	AdjustStock(ctx context.Context, productID int, delta int64, notes string) (*Product, error)

	// TX-scoped mutators: work within a caller-provided transaction so that
	// stock changes commit atomically with the order's flag flip.

	// ShipLinesTx decrements stock for every line of a customer order.
	ShipLinesTx(ctx context.Context, tx pgx.Tx, orderID int, lines []CustomerOrderLine) error
	// UnshipLinesTx reverses ShipLinesTx exactly.
	UnshipLinesTx(ctx context.Context, tx pgx.Tx, orderID int, lines []CustomerOrderLine) error
	// ReceiveLinesTx increments stock for every line of a supplier order.
	ReceiveLinesTx(ctx context.Context, tx pgx.Tx, orderID int, lines []SupplierOrderLine) error
	// UnreceiveLinesTx reverses ReceiveLinesTx; fails with ProductStockError
	// when the goods were already resold and stock would go negative.
	UnreceiveLinesTx(ctx context.Context, tx pgx.Tx, orderID int, lines []SupplierOrderLine) error
}

type stockService struct {
	pool *pgxpool.Pool
}

// NewStockService constructs a StockService backed by PostgreSQL.
func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

// ── Master data ──────────────────────────────────────────────────────────────

func (s *stockService) CreateProduct(ctx context.Context, code, name, description string, price decimal.Decimal, stock, minStock int64) (*Product, error) {
	if stock < 0 {
		return nil, fmt.Errorf("initial stock cannot be negative, got %d", stock)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("price cannot be negative, got %s", price)
	}

	var p Product
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (code, name, description, price, stock, min_stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, code, name, description, price, stock, min_stock, created_at, updated_at
	`, code, name, description, price, stock, minStock).Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.Price, &p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

func (s *stockService) GetProduct(ctx context.Context, productID int) (*Product, error) {
	return fetchProductQ(ctx, s.pool, "id = $1", productID)
}

func (s *stockService) GetProductByCode(ctx context.Context, code string) (*Product, error) {
	return fetchProductQ(ctx, s.pool, "code = $1", code)
}

func fetchProductQ(ctx context.Context, q pgxQuerier, where string, arg any) (*Product, error) {
	var p Product
	err := q.QueryRow(ctx, `
		SELECT id, code, name, description, price, stock, min_stock, created_at, updated_at
		FROM products WHERE `+where,
		arg,
	).Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Price, &p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %v not found", arg)
		}
		return nil, fmt.Errorf("failed to fetch product %v: %w", arg, err)
	}
	return &p, nil
}

func (s *stockService) GetProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, description, price, stock, min_stock, created_at, updated_at
		FROM products
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Price, &p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *stockService) GetStockLevels(ctx context.Context) ([]StockLevel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, stock, min_stock, stock < min_stock AS below_min
		FROM products
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var sl StockLevel
		if err := rows.Scan(&sl.ProductID, &sl.ProductCode, &sl.ProductName, &sl.Stock, &sl.MinStock, &sl.BelowMin); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, sl)
	}
	return levels, rows.Err()
}

func (s *stockService) GetLowStockProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, description, price, stock, min_stock, created_at, updated_at
		FROM products
		WHERE stock < min_stock
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Price, &p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *stockService) GetMovements(ctx context.Context, productID int) ([]StockMovement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sm.id, sm.product_id, p.code, sm.movement_type, sm.quantity,
		       sm.customer_order_id, sm.supplier_order_id, sm.moved_at, sm.notes
		FROM stock_movements sm
		JOIN products p ON p.id = sm.product_id
		WHERE sm.product_id = $1
		ORDER BY sm.id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	var movements []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ProductCode, &m.Type, &m.Quantity,
			&m.CustomerOrderID, &m.SupplierOrderID, &m.MovedAt, &m.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ── Mutations ────────────────────────────────────────────────────────────────

func (s *stockService) AdjustStock(ctx context.Context, productID int, delta int64, notes string) (*Product, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := adjustStockTx(ctx, tx, productID, delta, movement{
		typ:   MovementAdjustment,
		notes: notes,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}
	return s.GetProduct(ctx, productID)
}

func (s *stockService) ShipLinesTx(ctx context.Context, tx pgx.Tx, orderID int, lines []CustomerOrderLine) error {
	for _, line := range lines {
		err := adjustStockTx(ctx, tx, line.ProductID, -line.Quantity, movement{
			typ:             MovementShipment,
			customerOrderID: &orderID,
			notes:           fmt.Sprintf("Shipped %d × %s for customer order %d", line.Quantity, line.ProductCode, orderID),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *stockService) UnshipLinesTx(ctx context.Context, tx pgx.Tx, orderID int, lines []CustomerOrderLine) error {
	for _, line := range lines {
		err := adjustStockTx(ctx, tx, line.ProductID, line.Quantity, movement{
			typ:             MovementShipmentCancel,
			customerOrderID: &orderID,
			notes:           fmt.Sprintf("Shipment cancelled, %d × %s returned for customer order %d", line.Quantity, line.ProductCode, orderID),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *stockService) ReceiveLinesTx(ctx context.Context, tx pgx.Tx, orderID int, lines []SupplierOrderLine) error {
	for _, line := range lines {
		err := adjustStockTx(ctx, tx, line.ProductID, line.Quantity, movement{
			typ:             MovementReceipt,
			supplierOrderID: &orderID,
			notes:           fmt.Sprintf("Received %d × %s for supplier order %d", line.Quantity, line.ProductCode, orderID),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *stockService) UnreceiveLinesTx(ctx context.Context, tx pgx.Tx, orderID int, lines []SupplierOrderLine) error {
	for _, line := range lines {
		err := adjustStockTx(ctx, tx, line.ProductID, -line.Quantity, movement{
			typ:             MovementReceiptCancel,
			supplierOrderID: &orderID,
			notes:           fmt.Sprintf("Reception cancelled, %d × %s removed for supplier order %d", line.Quantity, line.ProductCode, orderID),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

type movement struct {
	typ             MovementType
	customerOrderID *int
	supplierOrderID *int
	notes           string
}

// adjustStockTx is the single funnel every stock write goes through. It
// locks the product row FOR UPDATE (serializing concurrent mutators on the
// same product), refuses deltas that would drive stock negative, applies
// the delta, and appends a movement row — all within the caller's TX, so
// the caller's rollback discards everything including the trail.
func adjustStockTx(ctx context.Context, tx pgx.Tx, productID int, delta int64, m movement) error {
	var code string
	var stock int64
	err := tx.QueryRow(ctx,
		"SELECT code, stock FROM products WHERE id = $1 FOR UPDATE",
		productID,
	).Scan(&code, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product %d not found", productID)
		}
		return fmt.Errorf("failed to lock product %d: %w", productID, err)
	}

	if stock+delta < 0 {
		return &ProductStockError{
			ProductID:   productID,
			ProductCode: code,
			Requested:   -delta,
			Available:   stock,
		}
	}

	_, err = tx.Exec(ctx,
		"UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2",
		delta, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock for product %s: %w", code, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stock_movements (product_id, movement_type, quantity, customer_order_id, supplier_order_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, productID, string(m.typ), delta, m.customerOrderID, m.supplierOrderID, m.notes)
	if err != nil {
		return fmt.Errorf("failed to insert stock movement for product %s: %w", code, err)
	}
	return nil
}
