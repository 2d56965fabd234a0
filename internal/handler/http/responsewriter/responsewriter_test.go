package responsewriter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_Defaults(t *testing.T) {
	wrapped := Wrap(httptest.NewRecorder())

	assert.Equal(t, http.StatusOK, wrapped.StatusCode())
	assert.Equal(t, 0, wrapped.BytesWritten())
}

func TestResponseWriter_RecordsStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := Wrap(rec)

	wrapped.WriteHeader(http.StatusNotFound)
	n, err := wrapped.Write([]byte("not found"))
	require.NoError(t, err)

	assert.Equal(t, 9, n)
	assert.Equal(t, http.StatusNotFound, wrapped.StatusCode())
	assert.Equal(t, 9, wrapped.BytesWritten())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResponseWriter_ImplicitOKOnWrite(t *testing.T) {
	wrapped := Wrap(httptest.NewRecorder())

	_, err := wrapped.Write([]byte("body"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, wrapped.StatusCode())
}

func TestResponseWriter_FirstHeaderWins(t *testing.T) {
	wrapped := Wrap(httptest.NewRecorder())

	wrapped.WriteHeader(http.StatusAccepted)
	wrapped.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusAccepted, wrapped.StatusCode())
}
