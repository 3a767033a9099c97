package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/p-arndt/driverpool/internal/config"
)

type Server struct {
	cfg     *config.Config
	drivers DriverService
	logger  *slog.Logger
	mux     *http.ServeMux
}

// route is one authenticated endpoint of the driver API.
type route struct {
	pattern string
	handler func(*Server, http.ResponseWriter, *http.Request)
}

var driverRoutes = []route{
	{"POST /v1/drivers", (*Server).handleAcquire},
	{"GET /v1/drivers", (*Server).handleListDrivers},
	{"DELETE /v1/drivers", (*Server).handleReleaseAll},
	{"GET /v1/drivers/{id}", (*Server).handleGetDriver},
	{"DELETE /v1/drivers/{id}", (*Server).handleRelease},
	{"GET /v1/history", (*Server).handleHistory},
}

func NewServer(cfg *config.Config, svc DriverService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		cfg:     cfg,
		drivers: svc,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	for _, rt := range driverRoutes {
		s.mux.HandleFunc(rt.pattern, func(w http.ResponseWriter, r *http.Request) {
			rt.handler(s, w, r)
		})
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	return s
}

// Handler returns the mux wrapped so every response, including auth
// failures, carries a request ID and is access-logged.
func (s *Server) Handler() http.Handler {
	return s.requestIDMiddleware(s.accessLogMiddleware(s.authMiddleware(s.mux)))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
