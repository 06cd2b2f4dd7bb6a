package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bher20/copierbill/internal/billing"
	"github.com/bher20/copierbill/internal/invoice"
	"github.com/bher20/copierbill/internal/notification"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps workflow errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, invoice.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, billing.ErrInvalidReading),
		errors.Is(err, billing.ErrInvalidProfile),
		errors.Is(err, invoice.ErrNoReadings),
		errors.Is(err, invoice.ErrUnknownCopier),
		errors.Is(err, invoice.ErrUnknownCustomer),
		errors.Is(err, invoice.ErrNoRecipient):
		return http.StatusBadRequest
	case errors.Is(err, notification.ErrEmailDisabled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
