package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/bher20/copierbill/internal/auth"
	"github.com/bher20/copierbill/internal/storage"
)

func (s *Server) registerNotificationRoutes(r *mux.Router) {
	r.Handle("/settings/email", s.protect(auth.ObjSettings, auth.ActRead, s.getEmailSettings)).Methods(http.MethodGet)
	r.Handle("/settings/email", s.protect(auth.ObjSettings, auth.ActWrite, s.saveEmailSettings)).Methods(http.MethodPut)
	r.Handle("/settings/email/test", s.protect(auth.ObjSettings, auth.ActWrite, s.testEmailSettings)).Methods(http.MethodPost)
}

// getEmailSettings handles GET /api/settings/email
func (s *Server) getEmailSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.Notify.GetConfig(r.Context())
	if err != nil {
		s.Log.Error("get email settings failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if cfg == nil {
		cfg = &storage.EmailConfig{}
	}
	writeJSON(w, http.StatusOK, cfg)
}

// saveEmailSettings handles PUT /api/settings/email
func (s *Server) saveEmailSettings(w http.ResponseWriter, r *http.Request) {
	var req storage.EmailConfig
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.Notify.SaveConfig(r.Context(), req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg, err := s.Notify.GetConfig(r.Context())
	if err != nil || cfg == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type testEmailRequest struct {
	Config storage.EmailConfig `json:"config"`
	To     string              `json:"to"`
}

// testEmailSettings handles POST /api/settings/email/test
func (s *Server) testEmailSettings(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.Notify.TestConfig(r.Context(), req.Config, req.To); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
