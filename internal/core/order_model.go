package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Customer order states derived from the persisted sent flag.
const (
	CustomerOrderPending = "PENDING"
	CustomerOrderSent    = "SENT"
)

// CustomerOrder represents a customer sales order header.
// The only persisted state is the sent flag:
//
//	PENDING (sent=false) ⇄ SENT (sent=true) via Ship / CancelShipment
//
// Ship decrements product stock for every line; CancelShipment reverses it.
type CustomerOrder struct {
	ID           int                 `json:"id"`
	OrderDate    string              `json:"order_date"`    // YYYY-MM-DD
	DeliveryDate string              `json:"delivery_date"` // YYYY-MM-DD
	Sent         bool                `json:"sent"`
	EmployeeID   int                 `json:"employee_id"`
	EmployeeName string              `json:"employee_name"`
	CustomerID   *int                `json:"customer_id,omitempty"` // nil = walk-in sale
	CustomerName *string             `json:"customer_name,omitempty"`
	Lines        []CustomerOrderLine `json:"lines"`
	CreatedAt    time.Time           `json:"created_at"`
}

// State returns the derived state string for error reporting and the API.
func (o *CustomerOrder) State() string {
	if o.Sent {
		return CustomerOrderSent
	}
	return CustomerOrderPending
}

// CustomerOrderLine is one line item; identity is (order id, product id).
// Lines are immutable once the order is sent.
type CustomerOrderLine struct {
	OrderID     int             `json:"order_id"`
	ProductID   int             `json:"product_id"`
	ProductCode string          `json:"product_code"` // joined from products
	ProductName string          `json:"product_name"` // joined from products
	Quantity    int64           `json:"quantity"`
	SellPrice   decimal.Decimal `json:"sell_price"`
}

// CustomerOrderLineInput holds the fields required to create or add a line.
// If SellPrice is zero, the product's catalog price is used.
type CustomerOrderLineInput struct {
	ProductCode string
	Quantity    int64
	SellPrice   decimal.Decimal
}

// CustomerOrderService drives the customer-order fulfillment state machine
// and owns the customer/employee master data it references.
type CustomerOrderService interface {
	// Master data
	CreateEmployee(ctx context.Context, code, firstName, lastName, email string) (*Employee, error)
	GetEmployees(ctx context.Context) ([]Employee, error)
	CreateCustomer(ctx context.Context, code, name, email string) (*Customer, error)
	GetCustomers(ctx context.Context) ([]Customer, error)

	// Lifecycle. customerID may be nil for walk-in sales; lines may be empty
	// at creation and added later while the order is still PENDING.
	CreateOrder(ctx context.Context, employeeID int, customerID *int, orderDate, deliveryDate string, lines []CustomerOrderLineInput) (*CustomerOrder, error)
	AddLine(ctx context.Context, orderID int, line CustomerOrderLineInput) (*CustomerOrder, error)
	UpdateLine(ctx context.Context, orderID int, line CustomerOrderLineInput) (*CustomerOrder, error)
	RemoveLine(ctx context.Context, orderID int, productCode string) (*CustomerOrder, error)

	// Ship transitions PENDING → SENT and decrements stock for every line.
	// Fails with UnknownOrderError, OrderStateError, EmptyOrderError, or
	// ProductStockError; on any failure no stock or flag change survives.
	Ship(ctx context.Context, orderID int, stock StockService) (*CustomerOrder, error)
	// CancelShipment transitions SENT → PENDING and increments stock back.
	CancelShipment(ctx context.Context, orderID int, stock StockService) (*CustomerOrder, error)

	// DeleteOrder removes an order and its lines. Unforced deletes are
	// refused with OrderLockedError when the order is sent or older than
	// the deletion window; force bypasses both checks.
	DeleteOrder(ctx context.Context, orderID int, force bool) error

	// Queries
	GetOrder(ctx context.Context, orderID int) (*CustomerOrder, error)
	GetOrders(ctx context.Context, sent *bool) ([]CustomerOrder, error)
}
