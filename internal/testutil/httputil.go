package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/p-arndt/driverpool/protocol"
)

// APIRequest builds a request against the driver API. A non-nil body is
// sent as JSON; a non-empty apiKey is sent as a bearer token.
func APIRequest(t *testing.T, method, path, apiKey string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode %s %s body: %v", method, path, err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	return req
}

// AcquireRequest builds POST /v1/drivers for caps.
func AcquireRequest(t *testing.T, apiKey string, caps map[string]any) *http.Request {
	t.Helper()
	return APIRequest(t, http.MethodPost, "/v1/drivers", apiKey, protocol.AcquireRequest{Capabilities: caps})
}

// ReleaseRequest builds DELETE /v1/drivers/{id}.
func ReleaseRequest(t *testing.T, apiKey, id string) *http.Request {
	t.Helper()
	return APIRequest(t, http.MethodDelete, "/v1/drivers/"+id, apiKey, nil)
}

// DecodeResponse decodes a recorded JSON response body into a T.
func DecodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response (status %d): %v (body: %s)", rec.Code, err, rec.Body.String())
	}
	return v
}
