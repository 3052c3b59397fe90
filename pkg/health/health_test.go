package health

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckerRegistry(t *testing.T) {
	r := NewCheckerRegistry()
	h := r.Check(context.Background())
	assert.Equal(t, StatusHealthy, h.Status, "empty registry is healthy")

	r.Register(NewFuncChecker("ok", func() error { return nil }))
	h = r.Check(context.Background())
	assert.Equal(t, StatusHealthy, h.Status)
	assert.Equal(t, StatusHealthy, h.Checks["ok"].Status)

	r.Register(NewFuncChecker("mqtt", func() error { return stderrors.New("not subscribed") }))
	h = r.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, h.Status)
	assert.Equal(t, StatusUnhealthy, h.Checks["mqtt"].Status)
	assert.Equal(t, "not subscribed", h.Checks["mqtt"].Message)
	assert.Equal(t, StatusHealthy, h.Checks["ok"].Status)
}

func TestFuncCheckerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewFuncChecker("x", func() error { return nil })
	assert.ErrorIs(t, c.Check(ctx), context.Canceled)
}

func TestHandler(t *testing.T) {
	ready := stderrors.New("disconnected")
	r := NewCheckerRegistry()
	r.Register(NewFuncChecker("mqtt", func() error { return ready }))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusUnhealthy, body.Status)
	assert.Equal(t, "disconnected", body.Checks["mqtt"].Message)

	ready = nil
	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
