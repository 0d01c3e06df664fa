package app

import (
	"context"
	"encoding/json"

	"stockmanager/internal/core"
	"stockmanager/internal/events"
	"stockmanager/internal/redisx"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type appService struct {
	stock          core.StockService
	customerOrders core.CustomerOrderService
	supplierOrders core.SupplierOrderService
	rdb            *redis.Client    // nil disables the cache
	producer       *events.Producer // nil disables movement events
	serviceName    string
	log            *zap.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
// rdb and producer may be nil; both side channels are best-effort.
func NewAppService(
	stock core.StockService,
	customerOrders core.CustomerOrderService,
	supplierOrders core.SupplierOrderService,
	rdb *redis.Client,
	producer *events.Producer,
	serviceName string,
	log *zap.Logger,
) ApplicationService {
	return &appService{
		stock:          stock,
		customerOrders: customerOrders,
		supplierOrders: supplierOrders,
		rdb:            rdb,
		producer:       producer,
		serviceName:    serviceName,
		log:            log,
	}
}

// ── Catalog & stock ──────────────────────────────────────────────────────────

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error) {
	p, err := s.stock.CreateProduct(ctx, req.Code, req.Name, req.Description, req.Price, req.Stock, req.MinStock)
	if err != nil {
		return nil, err
	}
	s.invalidateStockCache(ctx)
	return p, nil
}

func (s *appService) ListProducts(ctx context.Context) ([]core.Product, error) {
	return s.stock.GetProducts(ctx)
}

// GetStockLevels serves from the Redis cache when possible; the database
// remains the source of truth and cache failures fall through silently.
func (s *appService) GetStockLevels(ctx context.Context) ([]core.StockLevel, error) {
	if s.rdb != nil {
		if data, ok := redisx.GetJSON(ctx, s.rdb, redisx.KeyStockLevels); ok {
			var levels []core.StockLevel
			if err := json.Unmarshal(data, &levels); err == nil {
				return levels, nil
			}
		}
	}

	levels, err := s.stock.GetStockLevels(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(levels); err == nil {
			_ = s.rdb.Set(ctx, redisx.KeyStockLevels, data, redisx.TTLStockLevels).Err()
		}
	}
	return levels, nil
}

func (s *appService) ListLowStockProducts(ctx context.Context) ([]core.Product, error) {
	return s.stock.GetLowStockProducts(ctx)
}

func (s *appService) ListMovements(ctx context.Context, productID int) ([]core.StockMovement, error) {
	return s.stock.GetMovements(ctx, productID)
}

func (s *appService) AdjustStock(ctx context.Context, productID int, delta int64, notes string) (*core.Product, error) {
	p, err := s.stock.AdjustStock(ctx, productID, delta, notes)
	if err != nil {
		return nil, err
	}
	s.invalidateStockCache(ctx)
	return p, nil
}

// ── Master data ──────────────────────────────────────────────────────────────

func (s *appService) CreateEmployee(ctx context.Context, code, firstName, lastName, email string) (*core.Employee, error) {
	return s.customerOrders.CreateEmployee(ctx, code, firstName, lastName, email)
}

func (s *appService) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	return s.customerOrders.GetEmployees(ctx)
}

func (s *appService) CreateCustomer(ctx context.Context, code, name, email string) (*core.Customer, error) {
	return s.customerOrders.CreateCustomer(ctx, code, name, email)
}

func (s *appService) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	return s.customerOrders.GetCustomers(ctx)
}

func (s *appService) CreateSupplier(ctx context.Context, code, name, email string) (*core.Supplier, error) {
	return s.supplierOrders.CreateSupplier(ctx, code, name, email)
}

func (s *appService) ListSuppliers(ctx context.Context) ([]core.Supplier, error) {
	return s.supplierOrders.GetSuppliers(ctx)
}

// ── Customer orders ──────────────────────────────────────────────────────────

func (s *appService) CreateCustomerOrder(ctx context.Context, req CreateCustomerOrderRequest) (*core.CustomerOrder, error) {
	lines := make([]core.CustomerOrderLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, core.CustomerOrderLineInput{ProductCode: l.ProductCode, Quantity: l.Quantity, SellPrice: l.Price})
	}
	return s.customerOrders.CreateOrder(ctx, req.EmployeeID, req.CustomerID, req.OrderDate, req.DeliveryDate, lines)
}

func (s *appService) GetCustomerOrder(ctx context.Context, orderID int) (*core.CustomerOrder, error) {
	return s.customerOrders.GetOrder(ctx, orderID)
}

func (s *appService) ListCustomerOrders(ctx context.Context, sent *bool) ([]core.CustomerOrder, error) {
	return s.customerOrders.GetOrders(ctx, sent)
}

func (s *appService) AddCustomerOrderLine(ctx context.Context, orderID int, line OrderLineRequest) (*core.CustomerOrder, error) {
	return s.customerOrders.AddLine(ctx, orderID, core.CustomerOrderLineInput{
		ProductCode: line.ProductCode, Quantity: line.Quantity, SellPrice: line.Price,
	})
}

func (s *appService) UpdateCustomerOrderLine(ctx context.Context, orderID int, line OrderLineRequest) (*core.CustomerOrder, error) {
	return s.customerOrders.UpdateLine(ctx, orderID, core.CustomerOrderLineInput{
		ProductCode: line.ProductCode, Quantity: line.Quantity, SellPrice: line.Price,
	})
}

func (s *appService) RemoveCustomerOrderLine(ctx context.Context, orderID int, productCode string) (*core.CustomerOrder, error) {
	return s.customerOrders.RemoveLine(ctx, orderID, productCode)
}

func (s *appService) ShipCustomerOrder(ctx context.Context, orderID int) (*core.CustomerOrder, error) {
	order, err := s.customerOrders.Ship(ctx, orderID, s.stock)
	if err != nil {
		return nil, err
	}
	s.invalidateStockCache(ctx)
	s.publishCustomerMovement(events.EventOrderShipped, order)
	return order, nil
}

func (s *appService) CancelCustomerOrderShipment(ctx context.Context, orderID int) (*core.CustomerOrder, error) {
	order, err := s.customerOrders.CancelShipment(ctx, orderID, s.stock)
	if err != nil {
		return nil, err
	}
	s.invalidateStockCache(ctx)
	s.publishCustomerMovement(events.EventShipmentCancelled, order)
	return order, nil
}

func (s *appService) DeleteCustomerOrder(ctx context.Context, orderID int, force bool) error {
	return s.customerOrders.DeleteOrder(ctx, orderID, force)
}

// ── Supplier orders ──────────────────────────────────────────────────────────

func (s *appService) CreateSupplierOrder(ctx context.Context, req CreateSupplierOrderRequest) (*core.SupplierOrder, error) {
	lines := make([]core.SupplierOrderLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, core.SupplierOrderLineInput{ProductCode: l.ProductCode, Quantity: l.Quantity, BuyPrice: l.Price})
	}
	return s.supplierOrders.CreateOrder(ctx, req.SupplierID, req.OrderDate, req.DeliveryDate, lines)
}

func (s *appService) GetSupplierOrder(ctx context.Context, orderID int) (*core.SupplierOrder, error) {
	return s.supplierOrders.GetOrder(ctx, orderID)
}

func (s *appService) ListSupplierOrders(ctx context.Context, received *bool) ([]core.SupplierOrder, error) {
	return s.supplierOrders.GetOrders(ctx, received)
}

func (s *appService) AddSupplierOrderLine(ctx context.Context, orderID int, line OrderLineRequest) (*core.SupplierOrder, error) {
	return s.supplierOrders.AddLine(ctx, orderID, core.SupplierOrderLineInput{
		ProductCode: line.ProductCode, Quantity: line.Quantity, BuyPrice: line.Price,
	})
}

func (s *appService) RemoveSupplierOrderLine(ctx context.Context, orderID int, productCode string) (*core.SupplierOrder, error) {
	return s.supplierOrders.RemoveLine(ctx, orderID, productCode)
}

func (s *appService) SendSupplierOrder(ctx context.Context, orderID int) (*core.SupplierOrder, error) {
	return s.supplierOrders.Send(ctx, orderID)
}

func (s *appService) ReceiveSupplierOrder(ctx context.Context, orderID int) (*core.SupplierOrder, error) {
	order, err := s.supplierOrders.Receive(ctx, orderID, s.stock)
	if err != nil {
		return nil, err
	}
	s.invalidateStockCache(ctx)
	s.publishSupplierMovement(events.EventOrderReceived, order)
	return order, nil
}

func (s *appService) CancelSupplierOrderReception(ctx context.Context, orderID int) (*core.SupplierOrder, error) {
	order, err := s.supplierOrders.CancelReception(ctx, orderID, s.stock)
	if err != nil {
		return nil, err
	}
	s.invalidateStockCache(ctx)
	s.publishSupplierMovement(events.EventReceptionCancelled, order)
	return order, nil
}

func (s *appService) DeleteSupplierOrder(ctx context.Context, orderID int, force bool) error {
	return s.supplierOrders.DeleteOrder(ctx, orderID, force)
}

// ── Side channels ────────────────────────────────────────────────────────────

func (s *appService) invalidateStockCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, redisx.KeyStockLevels).Err(); err != nil {
		s.log.Warn("stock cache invalidation failed", zap.Error(err))
	}
}

func (s *appService) publishCustomerMovement(eventType string, order *core.CustomerOrder) {
	if s.producer == nil {
		return
	}
	lines := make([]events.LineQty, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, events.LineQty{ProductID: l.ProductID, Code: l.ProductCode, Qty: l.Quantity})
	}
	s.publish(eventType, order.ID, lines)
}

func (s *appService) publishSupplierMovement(eventType string, order *core.SupplierOrder) {
	if s.producer == nil {
		return
	}
	lines := make([]events.LineQty, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, events.LineQty{ProductID: l.ProductID, Code: l.ProductCode, Qty: l.Quantity})
	}
	s.publish(eventType, order.ID, lines)
}

func (s *appService) publish(eventType string, orderID int, lines []events.LineQty) {
	env, err := events.NewEnvelope(s.serviceName, eventType, orderID, events.MovementPayload{OrderID: orderID, Lines: lines})
	if err != nil {
		s.log.Warn("movement event build failed", zap.Error(err), zap.String("event_type", eventType))
		return
	}
	s.producer.Publish(env)
}
