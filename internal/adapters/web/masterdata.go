package web

import (
	"encoding/json"
	"net/http"
)

type createEmployeeRequest struct {
	Code      string `json:"code"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type createPartyRequest struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid json", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if req.Code == "" || req.FirstName == "" {
		writeError(w, r, "code and first_name are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	e, err := h.svc.CreateEmployee(r.Context(), req.Code, req.FirstName, req.LastName, req.Email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(e)
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	es, err := h.svc.ListEmployees(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, es)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req createPartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid json", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if req.Code == "" || req.Name == "" {
		writeError(w, r, "code and name are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	c, err := h.svc.CreateCustomer(r.Context(), req.Code, req.Name, req.Email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(c)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, cs)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req createPartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid json", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if req.Code == "" || req.Name == "" {
		writeError(w, r, "code and name are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	s, err := h.svc.CreateSupplier(r.Context(), req.Code, req.Name, req.Email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(s)
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	ss, err := h.svc.ListSuppliers(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, ss)
}
