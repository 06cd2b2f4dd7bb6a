package api

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/bher20/copierbill/internal/auth"
	"github.com/bher20/copierbill/internal/invoice"
	"github.com/bher20/copierbill/internal/report"
	"github.com/bher20/copierbill/internal/storage"
)

func (s *Server) registerInvoiceRoutes(r *mux.Router) {
	r.Handle("/preview", s.protect(auth.ObjBilling, auth.ActRead, s.previewInvoice)).Methods(http.MethodPost)
	r.Handle("/invoice", s.protect(auth.ObjInvoices, auth.ActWrite, s.createInvoice)).Methods(http.MethodPost)
	r.Handle("/invoices", s.protect(auth.ObjInvoices, auth.ActWrite, s.createInvoice)).Methods(http.MethodPost)
	r.Handle("/invoices", s.protect(auth.ObjInvoices, auth.ActRead, s.listInvoices)).Methods(http.MethodGet)
	// Registered before /invoices/{id} so the literal path wins.
	r.Handle("/invoices/export.xlsx", s.protect(auth.ObjInvoices, auth.ActRead, s.exportInvoices)).Methods(http.MethodGet)
	r.Handle("/invoices/{id}", s.protect(auth.ObjInvoices, auth.ActRead, s.getInvoice)).Methods(http.MethodGet)
	r.Handle("/invoices/{id}/pdf", s.protect(auth.ObjInvoices, auth.ActRead, s.invoicePDF)).Methods(http.MethodGet)
	r.Handle("/invoices/{id}/email", s.protect(auth.ObjInvoices, auth.ActWrite, s.emailInvoice)).Methods(http.MethodPost)
}

func (s *Server) decodeInvoiceRequest(w http.ResponseWriter, r *http.Request) (invoice.Request, bool) {
	var in invoiceInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return invoice.Request{}, false
	}
	req, err := in.request(s.StrictInput)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return invoice.Request{}, false
	}
	return req, true
}

// previewInvoice handles POST /api/preview
func (s *Server) previewInvoice(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeInvoiceRequest(w, r)
	if !ok {
		return
	}
	d, err := s.Invoices.Preview(r.Context(), req)
	if err != nil {
		s.fail(w, "preview failed", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type createResponse struct {
	Invoice    storage.Invoice `json:"invoice"`
	PDF        string          `json:"pdf,omitempty"`
	PDFError   string          `json:"pdfError,omitempty"`
	EmailError string          `json:"emailError,omitempty"`
}

// createInvoice handles POST /api/invoice and POST /api/invoices
func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeInvoiceRequest(w, r)
	if !ok {
		return
	}
	res, err := s.Invoices.Create(r.Context(), req)
	if err != nil {
		s.fail(w, "create invoice failed", err)
		return
	}
	writeJSON(w, http.StatusOK, createResponse{
		Invoice:    res.Invoice,
		PDF:        base64.StdEncoding.EncodeToString(res.PDF),
		PDFError:   res.RenderError,
		EmailError: res.EmailError,
	})
}

func filterFromQuery(r *http.Request) invoice.Filter {
	q := r.URL.Query()
	return invoice.Filter{
		CustomerID: q.Get("customerId"),
		Month:      q.Get("month"),
		Year:       q.Get("year"),
	}
}

// listInvoices handles GET /api/invoices
func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	list, err := s.Invoices.List(r.Context(), filterFromQuery(r))
	if err != nil {
		s.fail(w, "list invoices failed", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// getInvoice handles GET /api/invoices/{id}
func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.Invoices.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, "get invoice failed", err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// invoicePDF handles GET /api/invoices/{id}/pdf
func (s *Server) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	pdf, err := s.Invoices.PDF(r.Context(), id)
	if err != nil {
		s.fail(w, "render invoice failed", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", id))
	_, _ = w.Write(pdf)
}

type emailRequest struct {
	To string `json:"to"`
}

// emailInvoice handles POST /api/invoices/{id}/email
func (s *Server) emailInvoice(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if err := s.Invoices.Email(r.Context(), mux.Vars(r)["id"], req.To); err != nil {
		s.fail(w, "email invoice failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// exportInvoices handles GET /api/invoices/export.xlsx
func (s *Server) exportInvoices(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)
	list, err := s.Invoices.List(r.Context(), f)
	if err != nil {
		s.fail(w, "export invoices failed", err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteInvoices(&buf, list); err != nil {
		s.fail(w, "export invoices failed", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+report.Filename(f.Month, f.Year))
	_, _ = w.Write(buf.Bytes())
}

// fail logs server errors and writes the mapped status.
func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Log.Error(msg, zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
