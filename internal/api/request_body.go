package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/p-arndt/driverpool/internal/capabilities"
	"github.com/p-arndt/driverpool/protocol"
)

const maxJSONBodyBytes int64 = 1 << 20

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(dst)
}

func isYAMLRequest(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/yaml" || mt == "application/x-yaml"
}

// decodeAcquireRequest accepts either a JSON AcquireRequest or a bare YAML
// capability set.
func decodeAcquireRequest(w http.ResponseWriter, r *http.Request) (protocol.AcquireRequest, error) {
	var req protocol.AcquireRequest
	if !isYAMLRequest(r) {
		err := decodeJSONBody(w, r, &req)
		return req, err
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err != nil {
		return req, err
	}
	caps, err := capabilities.Parse(data)
	if err != nil {
		return req, err
	}
	req.Capabilities = caps
	return req, nil
}
