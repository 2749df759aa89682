package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/loreweave/loreweave/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "value", result["key"])
}

func TestJSON_NilData(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Body.String())
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, http.StatusCreated, map[string]string{"id": "123"})

	assert.Equal(t, http.StatusCreated, w.Code)

	var result SuccessResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "123", data["id"])
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, "something went wrong")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var result ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "something went wrong", result.Error)
}

func TestDomainErrorToHTTP(t *testing.T) {
	assert.Equal(t, http.StatusOK, DomainErrorToHTTP(nil))
	assert.Equal(t, http.StatusBadRequest, DomainErrorToHTTP(domain.ErrMissingChannel))
	assert.Equal(t, http.StatusNotFound, DomainErrorToHTTP(domain.ErrChunkNotFound))
	assert.Equal(t, http.StatusForbidden, DomainErrorToHTTP(domain.ErrPermissionDenied))
	assert.Equal(t, http.StatusServiceUnavailable, DomainErrorToHTTP(domain.ErrStoreUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, DomainErrorToHTTP(domain.ErrEmbeddingService))
	assert.Equal(t, http.StatusInternalServerError, DomainErrorToHTTP(domain.ErrGeneration))
	assert.Equal(t, http.StatusInternalServerError, DomainErrorToHTTP(errors.New("plain error")))
}

func TestHandleError(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, domain.ErrStoreUnavailable)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var result ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Contains(t, result.Error, "content store unavailable")
}
