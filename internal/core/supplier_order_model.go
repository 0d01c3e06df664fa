package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Supplier order states derived from the two persisted flags.
const (
	SupplierOrderPending  = "PENDING"  // order_sent=false, received=false
	SupplierOrderSent     = "SENT"     // order_sent=true,  received=false
	SupplierOrderReceived = "RECEIVED" // order_sent=true,  received=true
)

// SupplierOrder represents a purchase order header.
//
//	PENDING → SENT → RECEIVED, and RECEIVED → SENT via CancelReception
//
// Send moves no stock; Receive increments stock for every line and
// CancelReception reverses it.
type SupplierOrder struct {
	ID           int                 `json:"id"`
	SupplierID   int                 `json:"supplier_id"`
	SupplierName string              `json:"supplier_name"`
	OrderDate    string              `json:"order_date"`    // YYYY-MM-DD
	DeliveryDate string              `json:"delivery_date"` // YYYY-MM-DD
	OrderSent    bool                `json:"order_sent"`
	Received     bool                `json:"received"`
	Lines        []SupplierOrderLine `json:"lines"`
	CreatedAt    time.Time           `json:"created_at"`
}

// State returns the derived state string for error reporting and the API.
func (o *SupplierOrder) State() string {
	switch {
	case o.OrderSent && o.Received:
		return SupplierOrderReceived
	case o.OrderSent:
		return SupplierOrderSent
	default:
		return SupplierOrderPending
	}
}

// SupplierOrderLine is one line item; identity is (order id, product id).
// Lines may be added only while the order has not been sent.
type SupplierOrderLine struct {
	OrderID     int             `json:"order_id"`
	ProductID   int             `json:"product_id"`
	ProductCode string          `json:"product_code"` // joined from products
	ProductName string          `json:"product_name"` // joined from products
	Quantity    int64           `json:"quantity"`
	BuyPrice    decimal.Decimal `json:"buy_price"`
}

// SupplierOrderLineInput holds the fields required to create or add a line.
type SupplierOrderLineInput struct {
	ProductCode string
	Quantity    int64
	BuyPrice    decimal.Decimal
}

// SupplierOrderService drives the supplier-order reception state machine
// and owns the supplier master data it references.
type SupplierOrderService interface {
	// Master data
	CreateSupplier(ctx context.Context, code, name, email string) (*Supplier, error)
	GetSuppliers(ctx context.Context) ([]Supplier, error)

	// Lifecycle. Lines may be empty at creation and added while PENDING.
	CreateOrder(ctx context.Context, supplierID int, orderDate, deliveryDate string, lines []SupplierOrderLineInput) (*SupplierOrder, error)
	AddLine(ctx context.Context, orderID int, line SupplierOrderLineInput) (*SupplierOrder, error)
	RemoveLine(ctx context.Context, orderID int, productCode string) (*SupplierOrder, error)

	// Send transitions PENDING → SENT. No stock moves: sending a purchase
	// order does not yet move physical inventory.
	Send(ctx context.Context, orderID int) (*SupplierOrder, error)
	// Receive transitions SENT → RECEIVED and increments stock per line.
	Receive(ctx context.Context, orderID int, stock StockService) (*SupplierOrder, error)
	// CancelReception transitions RECEIVED → SENT and decrements stock per
	// line. If the received units were already resold and the decrement
	// would drive stock negative, the whole transition is refused with
	// ProductStockError.
	CancelReception(ctx context.Context, orderID int, stock StockService) (*SupplierOrder, error)

	// DeleteOrder removes an order and its lines, under the same deletion
	// window rules as customer orders.
	DeleteOrder(ctx context.Context, orderID int, force bool) error

	// Queries
	GetOrder(ctx context.Context, orderID int) (*SupplierOrder, error)
	GetOrders(ctx context.Context, received *bool) ([]SupplierOrder, error)
}
