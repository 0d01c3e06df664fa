package core_test

import (
	"errors"
	"fmt"
	"testing"

	"stockmanager/internal/core"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{
			&core.UnknownOrderError{Kind: core.CustomerOrderKind, OrderID: 7},
			"customer order 7 not found",
		},
		{
			&core.OrderStateError{Kind: core.CustomerOrderKind, OrderID: 7, State: core.CustomerOrderSent, Transition: "shipped"},
			"customer order 7 cannot be shipped: status is SENT",
		},
		{
			&core.OrderStateError{Kind: core.SupplierOrderKind, OrderID: 3, State: core.SupplierOrderPending, Transition: "received"},
			"supplier order 3 cannot be received: status is PENDING",
		},
		{
			&core.ProductStockError{ProductID: 1, ProductCode: "WIDGET", Requested: 5, Available: 2},
			"insufficient stock for product WIDGET: available 2, required 5",
		},
		{
			&core.EmptyOrderError{Kind: core.CustomerOrderKind, OrderID: 7},
			"customer order 7 has no lines",
		},
		{
			&core.OrderLockedError{Kind: core.SupplierOrderKind, OrderID: 3, Reason: "order has been sent"},
			"supplier order 3 cannot be deleted: order has been sent",
		},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("line 2: %w", &core.ProductStockError{ProductCode: "GIZMO", Requested: 5, Available: 2})

	var stockErr *core.ProductStockError
	if !errors.As(wrapped, &stockErr) {
		t.Fatal("errors.As failed to unwrap ProductStockError")
	}
	if stockErr.ProductCode != "GIZMO" {
		t.Errorf("unexpected product code %q", stockErr.ProductCode)
	}
}
