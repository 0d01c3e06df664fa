package web

import (
	"encoding/json"
	"net/http"

	"stockmanager/internal/app"

	"github.com/go-chi/chi/v5"
)

// boolFilter parses an optional ?name=true|false query parameter.
func boolFilter(r *http.Request, name string) *bool {
	switch r.URL.Query().Get(name) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

func forceParam(r *http.Request) bool {
	return r.URL.Query().Get("force") == "true"
}

func (h *Handler) createCustomerOrder(w http.ResponseWriter, r *http.Request) {
	var req app.CreateCustomerOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid json", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if req.EmployeeID <= 0 || req.OrderDate == "" {
		writeError(w, r, "employee_id and order_date are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	order, err := h.svc.CreateCustomerOrder(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(order)
}

func (h *Handler) listCustomerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListCustomerOrders(r.Context(), boolFilter(r, "sent"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, orders)
}

func (h *Handler) getCustomerOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	order, err := h.svc.GetCustomerOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) deleteCustomerOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteCustomerOrder(r.Context(), id, forceParam(r)); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addCustomerOrderLine(w http.ResponseWriter, r *http.Request) {
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
	order, err := h.svc.AddCustomerOrderLine(r.Context(), id, line)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) updateCustomerOrderLine(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var line app.OrderLineRequest
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		writeError(w, r, "invalid json", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	line.ProductCode = chi.URLParam(r, "code")
	if line.ProductCode == "" || line.Quantity <= 0 {
		writeError(w, r, "product code and a positive quantity are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	order, err := h.svc.UpdateCustomerOrderLine(r.Context(), id, line)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) removeCustomerOrderLine(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, r, "missing product code", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	order, err := h.svc.RemoveCustomerOrderLine(r.Context(), id, code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) shipCustomerOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	order, err := h.svc.ShipCustomerOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) cancelCustomerOrderShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	order, err := h.svc.CancelCustomerOrderShipment(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}
