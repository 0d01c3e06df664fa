package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a stocked item in the catalog. Stock is the on-hand
// count; it is mutated only through StockService's bounds-checked funnel.
// MinStock is informational (low-stock listing), never a transition gate.
type Product struct {
	ID          int             `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	MinStock    int64           `json:"min_stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Employee represents a staff member who owns customer orders.
type Employee struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Customer represents a sales customer master record.
type Customer struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Supplier represents a purchasing supplier master record.
type Supplier struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// MovementType classifies a stock movement row.
type MovementType string

const (
	MovementShipment       MovementType = "SHIPMENT"
	MovementShipmentCancel MovementType = "SHIPMENT_CANCEL"
	MovementReceipt        MovementType = "RECEIPT"
	MovementReceiptCancel  MovementType = "RECEIPT_CANCEL"
	MovementAdjustment     MovementType = "ADJUSTMENT"
)

// StockMovement is one row of the append-only movement trail. Quantity is
// the signed delta applied to the product's stock. Exactly one of
// CustomerOrderID / SupplierOrderID is set for order-driven movements;
// both are nil for manual adjustments.
type StockMovement struct {
	ID              int          `json:"id"`
	ProductID       int          `json:"product_id"`
	ProductCode     string       `json:"product_code"`
	Type            MovementType `json:"movement_type"`
	Quantity        int64        `json:"quantity"`
	CustomerOrderID *int         `json:"customer_order_id,omitempty"`
	SupplierOrderID *int         `json:"supplier_order_id,omitempty"`
	MovedAt         time.Time    `json:"moved_at"`
	Notes           string       `json:"notes"`
}

// StockLevel is the read model for stock queries.
type StockLevel struct {
	ProductID   int    `json:"product_id"`
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name"`
	Stock       int64  `json:"stock"`
	MinStock    int64  `json:"min_stock"`
	BelowMin    bool   `json:"below_min"`
}
