package api

import (
	"net/http"

	"github.com/p-arndt/driverpool/internal/capabilities"
)

func (s *Server) handleAcquire(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAcquireRequest(w, r)
	if err != nil {
		writeValidationError(w, "invalid request body: "+err.Error(), nil)
		return
	}

	if err := validateAcquireRequest(req); err != nil {
		writeValidationError(w, err.Error(), nil)
		return
	}

	caps := capabilities.Capabilities(req.Capabilities)
	s.logger.Debug("acquire driver", "request_id", requestID(r.Context()), "browser", caps.BrowserName())
	info, err := s.drivers.Acquire(r.Context(), caps)
	if err != nil {
		s.logger.Error("acquire driver", "request_id", requestID(r.Context()), "error", err)
		writeAPIError(w, err)
		return
	}
	s.logger.Debug("driver acquired", "driver_id", info.ID, "fingerprint", info.Fingerprint)
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleGetDriver(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ValidateDriverID(id); err != nil {
		writeValidationError(w, err.Error(), nil)
		return
	}
	info, err := s.drivers.Get(r.Context(), id)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := s.drivers.List(r.Context())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	s.logger.Debug("list drivers", "count", len(drivers))
	writeJSON(w, http.StatusOK, drivers)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ValidateDriverID(id); err != nil {
		writeValidationError(w, err.Error(), nil)
		return
	}
	s.logger.Debug("release driver", "driver_id", id)
	if err := s.drivers.Release(r.Context(), id); err != nil {
		s.logger.Error("release driver", "driver_id", id, "error", err)
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleReleaseAll(w http.ResponseWriter, r *http.Request) {
	result, err := s.drivers.ReleaseAll(r.Context())
	if err != nil {
		s.logger.Error("release all drivers", "error", err)
		details := map[string]any{}
		if result != nil {
			details["dismissed"] = result.Dismissed
			details["errors"] = result.Errors
		}
		writeAPIErrorDetails(w, err, details)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.drivers.History(r.Context())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
