package core_test

import (
	"context"
	"errors"
	"testing"

	"stockmanager/internal/core"
)

func TestSupplierOrder_ReceiveRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	svc := core.NewSupplierOrderService(pool)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 1, today(), today(), []core.SupplierOrderLineInput{
		{ProductCode: "GADGET", Quantity: 5, BuyPrice: decimalFromString(t, "8.00")},
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if order.State() != core.SupplierOrderPending {
		t.Fatalf("expected new order to be PENDING, got %s", order.State())
	}

	// Receiving before the order was sent to the supplier is out of order.
	var stateErr *core.OrderStateError
	if _, err := svc.Receive(ctx, order.ID, stock); !errors.As(err, &stateErr) {
		t.Fatalf("expected OrderStateError on receive before send, got %v", err)
	}

	order, err = svc.Send(ctx, order.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if order.State() != core.SupplierOrderSent {
		t.Errorf("expected SENT after send, got %s", order.State())
	}
	if got := getStock(t, pool, "GADGET"); got != 10 {
		t.Errorf("sending must not touch stock, got %d", got)
	}

	order, err = svc.Receive(ctx, order.ID, stock)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if order.State() != core.SupplierOrderReceived {
		t.Errorf("expected RECEIVED after receive, got %s", order.State())
	}
	if got := getStock(t, pool, "GADGET"); got != 15 {
		t.Errorf("expected stock 15 after receiving 5, got %d", got)
	}

	// Exactly-once: a second receive must not add stock again.
	if _, err := svc.Receive(ctx, order.ID, stock); !errors.As(err, &stateErr) {
		t.Fatalf("expected OrderStateError on double receive, got %v", err)
	}
	if got := getStock(t, pool, "GADGET"); got != 15 {
		t.Errorf("double receive must not change stock, got %d", got)
	}

	order, err = svc.CancelReception(ctx, order.ID, stock)
	if err != nil {
		t.Fatalf("cancel reception failed: %v", err)
	}
	if order.State() != core.SupplierOrderSent {
		t.Errorf("expected SENT after cancel, got %s", order.State())
	}
	if got := getStock(t, pool, "GADGET"); got != 10 {
		t.Errorf("expected stock restored to 10, got %d", got)
	}

	if _, err := svc.CancelReception(ctx, order.ID, stock); !errors.As(err, &stateErr) {
		t.Fatalf("expected OrderStateError on double cancel, got %v", err)
	}
}

func TestSupplierOrder_CancelReceptionAfterResale(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	supplierSvc := core.NewSupplierOrderService(pool)
	customerSvc := core.NewCustomerOrderService(pool)
	ctx := context.Background()

	// Receive 5 GADGET on top of the seeded 10.
	po, err := supplierSvc.CreateOrder(ctx, 1, today(), today(), []core.SupplierOrderLineInput{
		{ProductCode: "GADGET", Quantity: 5},
	})
	if err != nil {
		t.Fatalf("failed to create supplier order: %v", err)
	}
	if _, err := supplierSvc.Send(ctx, po.ID); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := supplierSvc.Receive(ctx, po.ID, stock); err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	// Ship 12 of the 15 out to a customer.
	so, err := customerSvc.CreateOrder(ctx, 1, nil, today(), today(), []core.CustomerOrderLineInput{
		{ProductCode: "GADGET", Quantity: 12},
	})
	if err != nil {
		t.Fatalf("failed to create customer order: %v", err)
	}
	if _, err := customerSvc.Ship(ctx, so.ID, stock); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if got := getStock(t, pool, "GADGET"); got != 3 {
		t.Fatalf("expected stock 3 after resale, got %d", got)
	}

	// Reversing the reception would need 5 units but only 3 remain: the
	// cancellation is refused outright, nothing moves.
	_, err = supplierSvc.CancelReception(ctx, po.ID, stock)
	var stockErr *core.ProductStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected ProductStockError, got %v", err)
	}
	if stockErr.Available != 3 || stockErr.Requested != 5 {
		t.Errorf("unexpected stock error detail: %+v", stockErr)
	}
	if got := getStock(t, pool, "GADGET"); got != 3 {
		t.Errorf("refused cancellation must not change stock, got %d", got)
	}

	po, err = supplierSvc.GetOrder(ctx, po.ID)
	if err != nil {
		t.Fatalf("failed to refetch supplier order: %v", err)
	}
	if po.State() != core.SupplierOrderReceived {
		t.Errorf("refused cancellation must leave the order RECEIVED, got %s", po.State())
	}
}

func TestSupplierOrder_LinesFrozenAfterSend(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewSupplierOrderService(pool)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 1, today(), today(), []core.SupplierOrderLineInput{
		{ProductCode: "WIDGET", Quantity: 4},
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if _, err := svc.Send(ctx, order.ID); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	var stateErr *core.OrderStateError
	_, err = svc.AddLine(ctx, order.ID, core.SupplierOrderLineInput{ProductCode: "GADGET", Quantity: 1})
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected OrderStateError from AddLine on a sent order, got %v", err)
	}
	_, err = svc.RemoveLine(ctx, order.ID, "WIDGET")
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected OrderStateError from RemoveLine on a sent order, got %v", err)
	}
}

func TestSupplierOrder_UnknownOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	svc := core.NewSupplierOrderService(pool)
	ctx := context.Background()

	var unknownErr *core.UnknownOrderError
	if _, err := svc.Receive(ctx, 9999, stock); !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownOrderError from Receive, got %v", err)
	}
	if _, err := svc.Send(ctx, 9999); !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownOrderError from Send, got %v", err)
	}
}

func TestSupplierOrder_DeleteSentOrderRefused(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewSupplierOrderService(pool)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 1, today(), today(), nil)
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if _, err := svc.Send(ctx, order.ID); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	var lockedErr *core.OrderLockedError
	if err := svc.DeleteOrder(ctx, order.ID, false); !errors.As(err, &lockedErr) {
		t.Fatalf("expected OrderLockedError for sent order, got %v", err)
	}
	if err := svc.DeleteOrder(ctx, order.ID, true); err != nil {
		t.Fatalf("expected forced delete to succeed, got %v", err)
	}
}
