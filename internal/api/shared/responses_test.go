package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	payload := map[string]string{"hello": "world"}
	RespondWithJSON(rr, req, http.StatusCreated, payload)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded))
	assert.Equal(t, "world", decoded["hello"])
}

func TestRespondWithError(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(SetTraceID(req.Context()))

	RespondWithError(rr, req, http.StatusNotFound, "not_found", "Deck not found")

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Deck not found", resp.Error)
	assert.Equal(t, "not_found", resp.Kind)
	assert.NotEmpty(t, resp.TraceID, "Expected trace ID propagated into the response")
}

func TestRespondWithErrorOmitsStatusCodeField(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	RespondWithError(rr, req, http.StatusBadRequest, "validation", "bad input")

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	_, present := raw["Code"]
	assert.False(t, present, "Code must not be serialized")
	_, present = raw["code"]
	assert.False(t, present, "code must not be serialized")
}

func TestRespondWithErrorAndLogHidesRawError(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/study/sessions", nil)
	req = req.WithContext(SetTraceID(context.Background()))

	internal := errors.New("pq: duplicate key value violates unique constraint \"sessions_pkey\"")
	RespondWithErrorAndLog(rr, req, http.StatusInternalServerError, "server_error",
		"An unexpected error occurred", internal)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "An unexpected error occurred", resp.Error)
	assert.NotContains(t, rr.Body.String(), "sessions_pkey",
		"Raw error detail must never reach the client")
}
