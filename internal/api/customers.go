package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/bher20/copierbill/internal/auth"
	"github.com/bher20/copierbill/internal/storage"
)

func (s *Server) registerCustomerRoutes(r *mux.Router) {
	r.Handle("/customers", s.protect(auth.ObjCustomers, auth.ActRead, s.listCustomers)).Methods(http.MethodGet)
	r.Handle("/customers", s.protect(auth.ObjCustomers, auth.ActWrite, s.createCustomer)).Methods(http.MethodPost)
	r.Handle("/customers/{id}", s.protect(auth.ObjCustomers, auth.ActRead, s.getCustomer)).Methods(http.MethodGet)
	r.Handle("/customers/{id}", s.protect(auth.ObjCustomers, auth.ActWrite, s.updateCustomer)).Methods(http.MethodPut)
	r.Handle("/customers/{id}", s.protect(auth.ObjCustomers, auth.ActWrite, s.deleteCustomer)).Methods(http.MethodDelete)
}

// listCustomers handles GET /api/customers
func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.Store.ListCustomers(r.Context())
	if err != nil {
		s.Log.Error("list customers failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if customers == nil {
		customers = []storage.Customer{}
	}
	writeJSON(w, http.StatusOK, customers)
}

// getCustomer handles GET /api/customers/{id}
func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.Store.GetCustomer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.Log.Error("get customer failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// createCustomer handles POST /api/customers
func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c storage.Customer
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	} else {
		existing, err := s.Store.GetCustomer(r.Context(), c.ID)
		if err != nil {
			s.Log.Error("load customer failed", zap.String("customer_id", c.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, "customer already exists")
			return
		}
	}
	s.saveCustomer(w, r, c, http.StatusCreated)
}

// updateCustomer handles PUT /api/customers/{id}
func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var c storage.Customer
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.ID = mux.Vars(r)["id"]
	s.saveCustomer(w, r, c, http.StatusOK)
}

func (s *Server) saveCustomer(w http.ResponseWriter, r *http.Request, c storage.Customer, status int) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		writeError(w, http.StatusBadRequest, "customer name is required")
		return
	}
	seen := make(map[string]bool, len(c.Copiers))
	for i := range c.Copiers {
		if c.Copiers[i].ID == "" {
			c.Copiers[i].ID = uuid.New().String()
		}
		if seen[c.Copiers[i].ID] {
			writeError(w, http.StatusBadRequest, "duplicate copier id "+c.Copiers[i].ID)
			return
		}
		seen[c.Copiers[i].ID] = true
		if err := c.Copiers[i].Profile().Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := s.Store.UpsertCustomer(r.Context(), c); err != nil {
		if errors.Is(err, storage.ErrCopierConflict) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.Log.Error("save customer failed", zap.String("customer_id", c.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	saved, err := s.Store.GetCustomer(r.Context(), c.ID)
	if err != nil || saved == nil {
		writeJSON(w, status, c)
		return
	}
	writeJSON(w, status, saved)
}

// deleteCustomer handles DELETE /api/customers/{id}
func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DeleteCustomer(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.Log.Error("delete customer failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
