package mwlogger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func TestNewMWLogger_RequestID(t *testing.T) {
	var fromCtx bool
	h := NewMWLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, fromCtx = r.Context().Value(loggerWithRequestID{}).(zlog.Zerolog)
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.True(t, fromCtx)
	require.Equal(t, http.StatusTeapot, w.Code)
	require.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
}

func TestNewMWLogger_GeneratesID(t *testing.T) {
	h := NewMWLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

	require.NotEmpty(t, w.Header().Get(RequestIDHeader))
	require.Equal(t, http.StatusOK, w.Code)
}
