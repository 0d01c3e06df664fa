package app

import (
	"context"

	"stockmanager/internal/core"

	"github.com/shopspring/decimal"
)

// CreateProductRequest holds the fields for a new catalog product.
type CreateProductRequest struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	MinStock    int64           `json:"min_stock"`
}

// CreateCustomerOrderRequest holds the fields for a new customer order.
// CustomerID may be nil for walk-in sales.
type CreateCustomerOrderRequest struct {
	EmployeeID   int                `json:"employee_id"`
	CustomerID   *int               `json:"customer_id,omitempty"`
	OrderDate    string             `json:"order_date"`
	DeliveryDate string             `json:"delivery_date"`
	Lines        []OrderLineRequest `json:"lines"`
}

// CreateSupplierOrderRequest holds the fields for a new supplier order.
type CreateSupplierOrderRequest struct {
	SupplierID   int                `json:"supplier_id"`
	OrderDate    string             `json:"order_date"`
	DeliveryDate string             `json:"delivery_date"`
	Lines        []OrderLineRequest `json:"lines"`
}

// OrderLineRequest is one line of an order creation or line-add request.
// Price is the sell price on customer orders and the buy price on
// supplier orders; zero means "use the product's catalog price" on the
// customer side.
type OrderLineRequest struct {
	ProductCode string          `json:"product_code"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// ApplicationService is the single interface the web adapter calls. It
// bundles the core services and layers on the side effects that belong to
// the application edge: movement events and cache invalidation.
type ApplicationService interface {
	// Catalog & stock
	CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error)
	ListProducts(ctx context.Context) ([]core.Product, error)
	GetStockLevels(ctx context.Context) ([]core.StockLevel, error)
	ListLowStockProducts(ctx context.Context) ([]core.Product, error)
	ListMovements(ctx context.Context, productID int) ([]core.StockMovement, error)
	AdjustStock(ctx context.Context, productID int, delta int64, notes string) (*core.Product, error)

	// Master data
	CreateEmployee(ctx context.Context, code, firstName, lastName, email string) (*core.Employee, error)
	ListEmployees(ctx context.Context) ([]core.Employee, error)
	CreateCustomer(ctx context.Context, code, name, email string) (*core.Customer, error)
	ListCustomers(ctx context.Context) ([]core.Customer, error)
	CreateSupplier(ctx context.Context, code, name, email string) (*core.Supplier, error)
	ListSuppliers(ctx context.Context) ([]core.Supplier, error)

	// Customer orders
	CreateCustomerOrder(ctx context.Context, req CreateCustomerOrderRequest) (*core.CustomerOrder, error)
	GetCustomerOrder(ctx context.Context, orderID int) (*core.CustomerOrder, error)
	ListCustomerOrders(ctx context.Context, sent *bool) ([]core.CustomerOrder, error)
	AddCustomerOrderLine(ctx context.Context, orderID int, line OrderLineRequest) (*core.CustomerOrder, error)
	UpdateCustomerOrderLine(ctx context.Context, orderID int, line OrderLineRequest) (*core.CustomerOrder, error)
	RemoveCustomerOrderLine(ctx context.Context, orderID int, productCode string) (*core.CustomerOrder, error)
	ShipCustomerOrder(ctx context.Context, orderID int) (*core.CustomerOrder, error)
	CancelCustomerOrderShipment(ctx context.Context, orderID int) (*core.CustomerOrder, error)
	DeleteCustomerOrder(ctx context.Context, orderID int, force bool) error

	// Supplier orders
	CreateSupplierOrder(ctx context.Context, req CreateSupplierOrderRequest) (*core.SupplierOrder, error)
	GetSupplierOrder(ctx context.Context, orderID int) (*core.SupplierOrder, error)
	ListSupplierOrders(ctx context.Context, received *bool) ([]core.SupplierOrder, error)
	AddSupplierOrderLine(ctx context.Context, orderID int, line OrderLineRequest) (*core.SupplierOrder, error)
	RemoveSupplierOrderLine(ctx context.Context, orderID int, productCode string) (*core.SupplierOrder, error)
	SendSupplierOrder(ctx context.Context, orderID int) (*core.SupplierOrder, error)
	ReceiveSupplierOrder(ctx context.Context, orderID int) (*core.SupplierOrder, error)
	CancelSupplierOrderReception(ctx context.Context, orderID int) (*core.SupplierOrder, error)
	DeleteSupplierOrder(ctx context.Context, orderID int, force bool) error
}
