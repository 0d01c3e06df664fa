package core

import "fmt"

// OrderKind distinguishes the two order pipelines in error values.
type OrderKind string

const (
	CustomerOrderKind OrderKind = "customer order"
	SupplierOrderKind OrderKind = "supplier order"
)

// UnknownOrderError reports that an order id does not resolve to a persisted order.
type UnknownOrderError struct {
	Kind    OrderKind
	OrderID int
}

func (e *UnknownOrderError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.OrderID)
}

// OrderStateError reports a transition attempted from a state that does not permit it.
// State is the order's current derived state, Transition the operation that was refused.
type OrderStateError struct {
	Kind       OrderKind
	OrderID    int
	State      string
	Transition string
}

func (e *OrderStateError) Error() string {
	return fmt.Sprintf("%s %d cannot be %s: status is %s", e.Kind, e.OrderID, e.Transition, e.State)
}

// ProductStockError reports a stock mutation that would leave a product's
// stock insufficient or negative. Requested is the quantity the transition
// needed, Available the stock found under lock.
type ProductStockError struct {
	ProductID   int
	ProductCode string
	Requested   int64
	Available   int64
}

func (e *ProductStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, required %d",
		e.ProductCode, e.Available, e.Requested)
}

// EmptyOrderError reports a shipment attempted on an order with no lines.
type EmptyOrderError struct {
	Kind    OrderKind
	OrderID int
}

func (e *EmptyOrderError) Error() string {
	return fmt.Sprintf("%s %d has no lines", e.Kind, e.OrderID)
}

// OrderLockedError reports an unforced delete refused by the deletion rules:
// the order is already sent, or older than the deletion window.
type OrderLockedError struct {
	Kind    OrderKind
	OrderID int
	Reason  string
}

func (e *OrderLockedError) Error() string {
	return fmt.Sprintf("%s %d cannot be deleted: %s", e.Kind, e.OrderID, e.Reason)
}
