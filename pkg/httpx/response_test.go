package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/memberpay/pkg/httpx"
)

func TestJSON_WritesBodyAndHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.JSON(rec, http.StatusCreated, map[string]string{"transactionId": "cs_123"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cs_123", body["transactionId"])
}

func TestError_UniformShape(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.Error(rec, http.StatusBadRequest, "Missing plan or billing cycle.")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Missing plan or billing cycle.", body["error"])
}

func TestHTTPError_Error(t *testing.T) {
	assert.Equal(t, "method_not_allowed", httpx.ErrMethodNotAllowed.Error())
	assert.Equal(t, http.StatusMethodNotAllowed, httpx.ErrMethodNotAllowed.Code)
}
