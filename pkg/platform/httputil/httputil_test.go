package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "keygate/pkg/domain-errors"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var envelope ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	return envelope
}

func TestWriteError_TypedError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New(dErrors.CodeAuthenticationFailed, "invalid email or password"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "AUTHENTICATION_FAILED", envelope.Error.Code)
	assert.Equal(t, "invalid email or password", envelope.Error.Message)
}

func TestWriteError_StatusOverride(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New(dErrors.CodeVaultOperationFailed, "secret not found").
		WithStatus(http.StatusNotFound))

	assert.Equal(t, http.StatusNotFound, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "VAULT_OPERATION_FAILED", envelope.Error.Code)
}

func TestWriteError_InternalHidesMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "db failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)
	assert.Equal(t, "internal server error", envelope.Error.Message)
	assert.Nil(t, envelope.Error.Details)
}

func TestWriteError_UnclassifiedError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("something broke"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)
	assert.Equal(t, "internal server error", envelope.Error.Message)
}

func TestWriteError_Details(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New(dErrors.CodeInvalidRequest, "email and password are required").
		WithDetails(map[string]any{"field": "email"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "INVALID_REQUEST", envelope.Error.Code)
	assert.Equal(t, "email", envelope.Error.Details["field"])
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"message": "created"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "created", body["message"])
}
