package core_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"stockmanager/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB. RESTART IDENTITY makes the seeded rows land on
	// ids 1..n deterministically.
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE stock_movements, customer_order_lines, customer_orders,
			supplier_order_lines, supplier_orders,
			products, employees, customers, suppliers
		RESTART IDENTITY CASCADE;

		INSERT INTO employees (code, first_name, last_name, email) VALUES
		('EMP1', 'Ada', 'Smith', 'ada@example.com');

		INSERT INTO customers (code, name, email) VALUES
		('CUST1', 'Acme Corp', 'orders@acme.example.com');

		INSERT INTO suppliers (code, name, email) VALUES
		('SUP1', 'Parts Inc', 'sales@parts.example.com');

		INSERT INTO products (code, name, description, price, stock, min_stock) VALUES
		('WIDGET', 'Widget', '', 9.50, 20, 5),
		('GADGET', 'Gadget', '', 14.00, 10, 4),
		('GIZMO', 'Gizmo', '', 3.25, 2, 3);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func getStock(t *testing.T, pool *pgxpool.Pool, code string) int64 {
	t.Helper()
	var stock int64
	err := pool.QueryRow(context.Background(), "SELECT stock FROM products WHERE code = $1", code).Scan(&stock)
	if err != nil {
		t.Fatalf("failed to read stock for %s: %v", code, err)
	}
	return stock
}

func today() string { return time.Now().Format("2006-01-02") }

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestCustomerOrder_ShipAndCancelRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	svc := core.NewCustomerOrderService(pool)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 1, nil, today(), today(), []core.CustomerOrderLineInput{
		{ProductCode: "WIDGET", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if order.State() != core.CustomerOrderPending {
		t.Fatalf("expected new order to be PENDING, got %s", order.State())
	}
	if got := getStock(t, pool, "WIDGET"); got != 20 {
		t.Fatalf("creating an order must not touch stock, got %d", got)
	}
	if len(order.Lines) != 1 || !order.Lines[0].SellPrice.Equal(decimalFromString(t, "9.50")) {
		t.Fatalf("expected line to fall back to catalog price, got %+v", order.Lines)
	}

	order, err = svc.Ship(ctx, order.ID, stock)
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if order.State() != core.CustomerOrderSent {
		t.Errorf("expected SENT after ship, got %s", order.State())
	}
	if got := getStock(t, pool, "WIDGET"); got != 17 {
		t.Errorf("expected stock 17 after shipping 3, got %d", got)
	}

	order, err = svc.CancelShipment(ctx, order.ID, stock)
	if err != nil {
		t.Fatalf("cancel shipment failed: %v", err)
	}
	if order.State() != core.CustomerOrderPending {
		t.Errorf("expected PENDING after cancel, got %s", order.State())
	}
	if got := getStock(t, pool, "WIDGET"); got != 20 {
		t.Errorf("expected stock restored to 20, got %d", got)
	}

	// A second cancellation has nothing to reverse.
	_, err = svc.CancelShipment(ctx, order.ID, stock)
	var stateErr *core.OrderStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected OrderStateError on double cancel, got %v", err)
	}
	if got := getStock(t, pool, "WIDGET"); got != 20 {
		t.Errorf("double cancel must not change stock, got %d", got)
	}
}

func TestCustomerOrder_ShipTwice(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	svc := core.NewCustomerOrderService(pool)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 1, nil, today(), today(), []core.CustomerOrderLineInput{
		{ProductCode: "WIDGET", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if _, err := svc.Ship(ctx, order.ID, stock); err != nil {
		t.Fatalf("first ship failed: %v", err)
	}

	_, err = svc.Ship(ctx, order.ID, stock)
	var stateErr *core.OrderStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected OrderStateError on double ship, got %v", err)
	}
	if stateErr.State != core.CustomerOrderSent {
		t.Errorf("expected reported state SENT, got %s", stateErr.State)
	}
	if got := getStock(t, pool, "WIDGET"); got != 17 {
		t.Errorf("double ship must decrement exactly once, got stock %d", got)
	}
}

func TestCustomerOrder_ShipInsufficientStockIsAtomic(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	svc := core.NewCustomerOrderService(pool)
	ctx := context.Background()

	// WIDGET is plentiful, GIZMO is not (stock 2). The whole shipment must
	// fail without a partial decrement surviving.
	order, err := svc.CreateOrder(ctx, 1, nil, today(), today(), []core.CustomerOrderLineInput{
		{ProductCode: "WIDGET", Quantity: 3},
		{ProductCode: "GIZMO", Quantity: 5},
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	_, err = svc.Ship(ctx, order.ID, stock)
	var stockErr *core.ProductStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected ProductStockError, got %v", err)
	}
	if stockErr.ProductCode != "GIZMO" || stockErr.Available != 2 || stockErr.Requested != 5 {
		t.Errorf("unexpected stock error detail: %+v", stockErr)
	}

	if got := getStock(t, pool, "WIDGET"); got != 20 {
		t.Errorf("failed ship must not decrement WIDGET, got %d", got)
	}
	if got := getStock(t, pool, "GIZMO"); got != 2 {
		t.Errorf("failed ship must not decrement GIZMO, got %d", got)
	}

	order, err = svc.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to refetch order: %v", err)
	}
	if order.State() != core.CustomerOrderPending {
		t.Errorf("failed ship must leave the order PENDING, got %s", order.State())
	}
}

func TestCustomerOrder_ShipEmptyOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	svc := core.NewCustomerOrderService(pool)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 1, nil, today(), today(), nil)
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	_, err = svc.Ship(ctx, order.ID, stock)
	var emptyErr *core.EmptyOrderError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyOrderError, got %v", err)
	}
}

func TestCustomerOrder_UnknownOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	svc := core.NewCustomerOrderService(pool)
	ctx := context.Background()

	var unknownErr *core.UnknownOrderError

	_, err := svc.Ship(ctx, 9999, stock)
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownOrderError from Ship, got %v", err)
	}

	_, err = svc.GetOrder(ctx, 9999)
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownOrderError from GetOrder, got %v", err)
	}
}

func TestCustomerOrder_LinesFrozenAfterShip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	svc := core.NewCustomerOrderService(pool)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 1, nil, today(), today(), []core.CustomerOrderLineInput{
		{ProductCode: "WIDGET", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if _, err := svc.Ship(ctx, order.ID, stock); err != nil {
		t.Fatalf("ship failed: %v", err)
	}

	var stateErr *core.OrderStateError
	_, err = svc.AddLine(ctx, order.ID, core.CustomerOrderLineInput{ProductCode: "GADGET", Quantity: 1})
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected OrderStateError from AddLine on a sent order, got %v", err)
	}
	_, err = svc.UpdateLine(ctx, order.ID, core.CustomerOrderLineInput{ProductCode: "WIDGET", Quantity: 5})
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected OrderStateError from UpdateLine on a sent order, got %v", err)
	}
	_, err = svc.RemoveLine(ctx, order.ID, "WIDGET")
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected OrderStateError from RemoveLine on a sent order, got %v", err)
	}
}

func TestCustomerOrder_LineEditingWhilePending(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewCustomerOrderService(pool)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 1, nil, today(), today(), []core.CustomerOrderLineInput{
		{ProductCode: "WIDGET", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	order, err = svc.AddLine(ctx, order.ID, core.CustomerOrderLineInput{ProductCode: "GADGET", Quantity: 1})
	if err != nil {
		t.Fatalf("add line failed: %v", err)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(order.Lines))
	}

	order, err = svc.UpdateLine(ctx, order.ID, core.CustomerOrderLineInput{
		ProductCode: "WIDGET", Quantity: 6, SellPrice: decimalFromString(t, "8.00"),
	})
	if err != nil {
		t.Fatalf("update line failed: %v", err)
	}
	for _, l := range order.Lines {
		if l.ProductCode == "WIDGET" {
			if l.Quantity != 6 || !l.SellPrice.Equal(decimalFromString(t, "8.00")) {
				t.Errorf("unexpected updated line: %+v", l)
			}
		}
	}

	if _, err := svc.UpdateLine(ctx, order.ID, core.CustomerOrderLineInput{ProductCode: "GIZMO", Quantity: 1}); err == nil {
		t.Error("expected updating an absent line to fail")
	}

	order, err = svc.RemoveLine(ctx, order.ID, "GADGET")
	if err != nil {
		t.Fatalf("remove line failed: %v", err)
	}
	if len(order.Lines) != 1 {
		t.Errorf("expected 1 line after removal, got %d", len(order.Lines))
	}
}

func TestCustomerOrder_DeleteRules(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	svc := core.NewCustomerOrderService(pool)
	ctx := context.Background()

	// Fresh unsent order deletes without force.
	order, err := svc.CreateOrder(ctx, 1, nil, today(), today(), nil)
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if err := svc.DeleteOrder(ctx, order.ID, false); err != nil {
		t.Fatalf("expected fresh unsent order to delete, got %v", err)
	}

	// A sent order is refused without force.
	order, err = svc.CreateOrder(ctx, 1, nil, today(), today(), []core.CustomerOrderLineInput{
		{ProductCode: "WIDGET", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if _, err := svc.Ship(ctx, order.ID, stock); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	var lockedErr *core.OrderLockedError
	if err := svc.DeleteOrder(ctx, order.ID, false); !errors.As(err, &lockedErr) {
		t.Fatalf("expected OrderLockedError for sent order, got %v", err)
	}
	if err := svc.DeleteOrder(ctx, order.ID, true); err != nil {
		t.Fatalf("expected forced delete to succeed, got %v", err)
	}

	// An order past the deletion window is refused without force.
	oldDate := time.Now().AddDate(0, 0, -10).Format("2006-01-02")
	order, err = svc.CreateOrder(ctx, 1, nil, oldDate, oldDate, nil)
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if err := svc.DeleteOrder(ctx, order.ID, false); !errors.As(err, &lockedErr) {
		t.Fatalf("expected OrderLockedError for old order, got %v", err)
	}
	if err := svc.DeleteOrder(ctx, order.ID, true); err != nil {
		t.Fatalf("expected forced delete to succeed, got %v", err)
	}
}
