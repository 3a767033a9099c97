//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type testClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func newTestClient(baseURL, apiKey string) *testClient {
	return &testClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (c *testClient) doRequest(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	require.NoError(t, err)
	return resp
}

func (c *testClient) acquire(t *testing.T, caps map[string]any) map[string]any {
	t.Helper()
	resp := c.doRequest(t, "POST", "/v1/drivers", map[string]any{
		"capabilities": caps,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "failed to acquire driver")
	return decodeResponse(t, resp)
}

func (c *testClient) release(t *testing.T, driverID string) *http.Response {
	t.Helper()
	return c.doRequest(t, "DELETE", fmt.Sprintf("/v1/drivers/%s", driverID), nil)
}

func (c *testClient) list(t *testing.T) []map[string]any {
	t.Helper()
	resp := c.doRequest(t, "GET", "/v1/drivers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	var result []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func decodeResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}
