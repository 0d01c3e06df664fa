package core_test

import (
	"context"
	"errors"
	"testing"

	"stockmanager/internal/core"
)

func TestStockService_AdjustBounds(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewStockService(pool)
	ctx := context.Background()

	// Seeded WIDGET stock is 20; an adjustment below zero is refused.
	_, err := svc.AdjustStock(ctx, 1, -25, "count correction")
	var stockErr *core.ProductStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected ProductStockError, got %v", err)
	}
	if got := getStock(t, pool, "WIDGET"); got != 20 {
		t.Errorf("refused adjustment must not change stock, got %d", got)
	}

	p, err := svc.AdjustStock(ctx, 1, -20, "count correction")
	if err != nil {
		t.Fatalf("adjustment to exactly zero should succeed: %v", err)
	}
	if p.Stock != 0 {
		t.Errorf("expected stock 0, got %d", p.Stock)
	}

	p, err = svc.AdjustStock(ctx, 1, 7, "recount")
	if err != nil {
		t.Fatalf("positive adjustment failed: %v", err)
	}
	if p.Stock != 7 {
		t.Errorf("expected stock 7, got %d", p.Stock)
	}
}

func TestStockService_MovementTrail(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	customerSvc := core.NewCustomerOrderService(pool)
	ctx := context.Background()

	order, err := customerSvc.CreateOrder(ctx, 1, nil, today(), today(), []core.CustomerOrderLineInput{
		{ProductCode: "WIDGET", Quantity: 4},
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if _, err := customerSvc.Ship(ctx, order.ID, stock); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if _, err := customerSvc.CancelShipment(ctx, order.ID, stock); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := stock.AdjustStock(ctx, 1, -2, "breakage"); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}

	movements, err := stock.GetMovements(ctx, 1)
	if err != nil {
		t.Fatalf("failed to query movements: %v", err)
	}
	if len(movements) != 3 {
		t.Fatalf("expected 3 movements, got %d", len(movements))
	}

	wantTypes := []core.MovementType{core.MovementShipment, core.MovementShipmentCancel, core.MovementAdjustment}
	wantQty := []int64{-4, 4, -2}
	for i, m := range movements {
		if m.Type != wantTypes[i] {
			t.Errorf("movement %d: expected type %s, got %s", i, wantTypes[i], m.Type)
		}
		if m.Quantity != wantQty[i] {
			t.Errorf("movement %d: expected quantity %d, got %d", i, wantQty[i], m.Quantity)
		}
	}
	if movements[0].CustomerOrderID == nil || *movements[0].CustomerOrderID != order.ID {
		t.Errorf("shipment movement must reference the customer order")
	}
	if movements[2].CustomerOrderID != nil || movements[2].SupplierOrderID != nil {
		t.Errorf("manual adjustment must not reference an order")
	}
}

func TestStockService_LowStockAndLevels(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewStockService(pool)
	ctx := context.Background()

	// Seeded GIZMO (stock 2, min 3) is the only product below its minimum.
	low, err := svc.GetLowStockProducts(ctx)
	if err != nil {
		t.Fatalf("failed to query low stock: %v", err)
	}
	if len(low) != 1 || low[0].Code != "GIZMO" {
		t.Fatalf("expected only GIZMO below minimum, got %+v", low)
	}

	levels, err := svc.GetStockLevels(ctx)
	if err != nil {
		t.Fatalf("failed to query stock levels: %v", err)
	}
	if len(levels) != 3 {
		t.Fatalf("expected 3 stock levels, got %d", len(levels))
	}
	for _, lv := range levels {
		wantBelow := lv.ProductCode == "GIZMO"
		if lv.BelowMin != wantBelow {
			t.Errorf("%s: expected below_min=%v, got %v", lv.ProductCode, wantBelow, lv.BelowMin)
		}
	}
}

func TestStockService_CreateProductValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewStockService(pool)
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, "NEG", "Negative", "", decimalFromString(t, "1.00"), -1, 0); err == nil {
		t.Error("expected negative initial stock to be rejected")
	}
	if _, err := svc.CreateProduct(ctx, "NEG2", "Negative price", "", decimalFromString(t, "-1.00"), 0, 0); err == nil {
		t.Error("expected negative price to be rejected")
	}

	p, err := svc.CreateProduct(ctx, "SPROCKET", "Sprocket", "spare part", decimalFromString(t, "2.75"), 6, 2)
	if err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	if p.Code != "SPROCKET" || p.Stock != 6 {
		t.Errorf("unexpected product: %+v", p)
	}

	byCode, err := svc.GetProductByCode(ctx, "SPROCKET")
	if err != nil {
		t.Fatalf("failed to fetch by code: %v", err)
	}
	if byCode.ID != p.ID {
		t.Errorf("expected same product, got id %d vs %d", byCode.ID, p.ID)
	}
}
