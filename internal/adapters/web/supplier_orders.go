package web

import (
	"encoding/json"
	"net/http"

	"stockmanager/internal/app"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) createSupplierOrder(w http.ResponseWriter, r *http.Request) {
	var req app.CreateSupplierOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid json", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if req.SupplierID <= 0 || req.OrderDate == "" {
		writeError(w, r, "supplier_id and order_date are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	order, err := h.svc.CreateSupplierOrder(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(order)
}

func (h *Handler) listSupplierOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListSupplierOrders(r.Context(), boolFilter(r, "received"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, orders)
}

func (h *Handler) getSupplierOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	order, err := h.svc.GetSupplierOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) deleteSupplierOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteSupplierOrder(r.Context(), id, forceParam(r)); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addSupplierOrderLine(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var line app.OrderLineRequest
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		writeError(w, r, "invalid json", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if line.ProductCode == "" || line.Quantity <= 0 {
		writeError(w, r, "product_code and a positive quantity are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	order, err := h.svc.AddSupplierOrderLine(r.Context(), id, line)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) removeSupplierOrderLine(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, r, "missing product code", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	order, err := h.svc.RemoveSupplierOrderLine(r.Context(), id, code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) sendSupplierOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	order, err := h.svc.SendSupplierOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) receiveSupplierOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	order, err := h.svc.ReceiveSupplierOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) cancelSupplierOrderReception(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	order, err := h.svc.CancelSupplierOrderReception(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}
