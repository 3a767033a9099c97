package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-arndt/driverpool/internal/config"
	"github.com/p-arndt/driverpool/internal/testutil"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		path       string
		header     string
		wantStatus int
	}{
		{"open access without key", "", "/v1/drivers", "", http.StatusOK},
		{"valid bearer token", "sk-test-key", "/v1/drivers", "Bearer sk-test-key", http.StatusOK},
		{"wrong token", "sk-test-key", "/v1/drivers", "Bearer wrong-key", http.StatusUnauthorized},
		{"missing header", "sk-test-key", "/v1/drivers", "", http.StatusUnauthorized},
		{"missing bearer prefix", "sk-test-key", "/v1/drivers", "sk-test-key", http.StatusUnauthorized},
		{"token prefix only", "sk-test-key", "/v1/drivers", "Bearer sk-test", http.StatusUnauthorized},
		{"history needs auth", "sk-test-key", "/v1/history", "", http.StatusUnauthorized},
		{"healthz skips auth", "sk-test-key", "/healthz", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Server{cfg: &config.Config{APIKey: tt.configured}}
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.authMiddleware(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				apiErr := testutil.DecodeResponse[APIError](t, rec)
				assert.Equal(t, ErrCodeUnauthorized, apiErr.Code)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	s := &Server{cfg: &config.Config{}}

	for _, incoming := range []string{"", "my-custom-id"} {
		var gotID string
		handler := s.requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID = requestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/drivers", nil)
		if incoming != "" {
			req.Header.Set("X-Request-ID", incoming)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.NotEmpty(t, gotID)
		assert.Equal(t, gotID, rec.Header().Get("X-Request-ID"))
		if incoming != "" {
			assert.Equal(t, incoming, gotID)
		}
	}
}

func TestUnauthorizedResponseCarriesRequestID(t *testing.T) {
	s := NewServer(&config.Config{APIKey: "sk-test-key"}, &MockDriverService{}, testutil.Logger())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, testutil.APIRequest(t, http.MethodGet, "/v1/drivers", "", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAccessLogMiddleware(t *testing.T) {
	var buf bytes.Buffer
	s := &Server{
		cfg:    &config.Config{},
		logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
	handler := s.requestIDMiddleware(s.accessLogMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})))

	req := httptest.NewRequest(http.MethodDelete, "/v1/drivers/abc123", nil)
	req.Header.Set("X-Request-ID", "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	assert.Contains(t, line, "level=WARN")
	assert.Contains(t, line, "request_id=req-42")
	assert.Contains(t, line, "status=502")
	assert.Contains(t, line, "path=/v1/drivers/abc123")
}
