package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bher20/copierbill/internal/api/swagger"
	"github.com/bher20/copierbill/internal/auth"
	"github.com/bher20/copierbill/internal/invoice"
	"github.com/bher20/copierbill/internal/metrics"
	"github.com/bher20/copierbill/internal/notification"
	"github.com/bher20/copierbill/internal/storage"
	"github.com/bher20/copierbill/internal/ui"
)

// Server holds the collaborators the HTTP handlers call into.
type Server struct {
	Store    storage.Storage
	Invoices *invoice.Service
	Auth     *auth.Service
	Notify   *notification.Service
	Log      *zap.Logger
	// StrictInput rejects numeric fields that do not parse completely.
	StrictInput bool
	// ReadyChecks run on /readyz in addition to the storage ping.
	ReadyChecks []func(ctx context.Context) error
}

// NewRouter constructs the HTTP handler, wiring in the API, metrics, health
// endpoints, API docs and the web UI.
func NewRouter(s *Server) http.Handler {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}

	r := mux.NewRouter()
	r.Use(s.observe)

	// Metrics endpoint.
	r.Handle("/metrics", promhttp.Handler())

	// Health / readiness / liveness.
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.HandleFunc("/readyz", s.handleReady)
	r.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})

	r.PathPrefix("/docs/").Handler(http.StripPrefix("/docs", swagger.Handler()))

	// Login and logout sit outside the session middleware so a stale token
	// never blocks a fresh login.
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/logout", s.handleLogout).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.Auth.Middleware)
	s.registerCustomerRoutes(api)
	s.registerInvoiceRoutes(api)
	s.registerNotificationRoutes(api)

	// Web UI
	r.PathPrefix("/").Handler(ui.Handler())

	return r
}

// protect wraps h with a permission check.
func (s *Server) protect(obj, act string, h http.HandlerFunc) http.Handler {
	return s.Auth.RequirePermission(obj, act, h)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.Log.Warn("readyz: storage ping failed", zap.Error(err))
		http.Error(w, "db not ready", http.StatusServiceUnavailable)
		return
	}
	for _, check := range s.ReadyChecks {
		if err := check(ctx); err != nil {
			s.Log.Warn("readyz: dependency not ready", zap.Error(err))
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// observe logs each request and records request metrics under the matched
// route template.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.ObserveRequest(route, r.Method, rec.status, start)

		if route == "/metrics" || route == "/healthz" || route == "/livez" {
			return
		}
		s.Log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, role, err := s.Auth.Login(r.Context(), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.Log.Warn("login failed", zap.String("remote", r.RemoteAddr))
			writeError(w, http.StatusUnauthorized, "invalid password")
			return
		}
		s.Log.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Role: role})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)
	if token != "" {
		if err := s.Auth.Logout(r.Context(), token); err != nil {
			s.Log.Warn("logout failed", zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
