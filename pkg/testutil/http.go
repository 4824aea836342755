// Package testutil provides request and response helpers shared by handler
// and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ErrorEnvelope mirrors the wire shape of error responses.
type ErrorEnvelope struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// NewJSONRequest builds a request whose body is v marshaled as JSON. A nil v
// produces a bodyless request.
func NewJSONRequest(t *testing.T, method, path string, v any) *http.Request {
	t.Helper()

	if v == nil {
		return httptest.NewRequest(method, path, nil)
	}
	body, err := json.Marshal(v)
	require.NoError(t, err, "marshal request body")

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewRawRequest builds a request carrying the body verbatim, for payloads
// that must stay malformed.
func NewRawRequest(t *testing.T, method, path, body string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// Do serves one request against the handler and returns the recorded
// response.
func Do(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DecodeJSON decodes the recorded response body into T.
func DecodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "decode response body %q", rr.Body.String())
	return v
}

// DecodeError decodes the recorded response body as an error envelope.
func DecodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	return DecodeJSON[ErrorEnvelope](t, rr)
}

// AssertStatus checks the response status code, printing the body on
// mismatch since it usually names the reason.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	assert.Equal(t, want, rr.Code, "status code, body: %s", rr.Body.String())
}

// AssertErrorCode checks the status code and the machine-readable error code
// in the envelope.
func AssertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()

	AssertStatus(t, rr, wantStatus)
	assert.Equal(t, wantCode, DecodeError(t, rr).Error, "error code")
}
