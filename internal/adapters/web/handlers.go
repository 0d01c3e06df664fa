package web

import (
	"net/http"
	"time"

	"stockmanager/internal/app"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc app.ApplicationService
	log *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, log *zap.Logger) http.Handler {
	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(chimw.Timeout(15 * time.Second))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/healthz", h.health)

	// ── Catalog & stock ──────────────────────────────────────────────────────
	r.Post("/api/products", h.createProduct)
	r.Get("/api/products", h.listProducts)
	r.Get("/api/products/low-stock", h.listLowStockProducts)
	r.Get("/api/products/{id}/movements", h.listMovements)
	r.Post("/api/products/{id}/adjust", h.adjustStock)
	r.Get("/api/stock", h.stockLevels)

	// ── Master data ──────────────────────────────────────────────────────────
	r.Post("/api/employees", h.createEmployee)
	r.Get("/api/employees", h.listEmployees)
	r.Post("/api/customers", h.createCustomer)
	r.Get("/api/customers", h.listCustomers)
	r.Post("/api/suppliers", h.createSupplier)
	r.Get("/api/suppliers", h.listSuppliers)

	// ── Customer orders ──────────────────────────────────────────────────────
	r.Post("/api/customer-orders", h.createCustomerOrder)
	r.Get("/api/customer-orders", h.listCustomerOrders)
	r.Get("/api/customer-orders/{id}", h.getCustomerOrder)
	r.Delete("/api/customer-orders/{id}", h.deleteCustomerOrder)
	r.Post("/api/customer-orders/{id}/lines", h.addCustomerOrderLine)
	r.Put("/api/customer-orders/{id}/lines/{code}", h.updateCustomerOrderLine)
	r.Delete("/api/customer-orders/{id}/lines/{code}", h.removeCustomerOrderLine)
	r.Post("/api/customer-orders/{id}/ship", h.shipCustomerOrder)
	r.Post("/api/customer-orders/{id}/cancel-shipment", h.cancelCustomerOrderShipment)

	// ── Supplier orders ──────────────────────────────────────────────────────
	r.Post("/api/supplier-orders", h.createSupplierOrder)
	r.Get("/api/supplier-orders", h.listSupplierOrders)
	r.Get("/api/supplier-orders/{id}", h.getSupplierOrder)
	r.Delete("/api/supplier-orders/{id}", h.deleteSupplierOrder)
	r.Post("/api/supplier-orders/{id}/lines", h.addSupplierOrderLine)
	r.Delete("/api/supplier-orders/{id}/lines/{code}", h.removeSupplierOrderLine)
	r.Post("/api/supplier-orders/{id}/send", h.sendSupplierOrder)
	r.Post("/api/supplier-orders/{id}/receive", h.receiveSupplierOrder)
	r.Post("/api/supplier-orders/{id}/cancel-reception", h.cancelSupplierOrderReception)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}
