package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) statusResponse {
	t.Helper()
	var body statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestLiveEndpoint_NoChecks(t *testing.T) {
	h := New()
	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode(t, w).Status)
}

func TestReadyEndpoint_NotReadyUntilSet(t *testing.T) {
	h := New()
	w := serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decode(t, w).Checks, "_readiness")

	h.SetReady(true)
	assert.True(t, h.IsReady())
	assert.Equal(t, http.StatusOK, serve(h.ReadyEndpoint).Code)

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestProbe_Thresholds(t *testing.T) {
	p := &probe{name: "postgres", timeout: time.Second, failureThreshold: 2, successThreshold: 2}
	p.healthy.Store(true)

	var fail atomic.Bool
	p.check = func(context.Context) error {
		if fail.Load() {
			return errors.New("connection refused")
		}
		return nil
	}
	ctx := context.Background()

	fail.Store(true)
	p.run(ctx)
	assert.True(t, p.healthy.Load(), "one failure stays below threshold")
	p.run(ctx)
	assert.False(t, p.healthy.Load())
	assert.Equal(t, "connection refused", p.failure())

	fail.Store(false)
	p.run(ctx)
	assert.False(t, p.healthy.Load(), "one success stays below threshold")
	p.run(ctx)
	assert.True(t, p.healthy.Load())
}

func TestReadyEndpoint_ReportsFailingProbe(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("redis", time.Second, func(context.Context) error {
		return errors.New("i/o timeout")
	}, WithThresholds(1, 1))
	h.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(1_000_000))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)
	defer h.Stop()

	require.Eventually(t, func() bool { return !h.IsReady() }, time.Second, 5*time.Millisecond)

	w := serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "i/o timeout", body.Checks["redis"])

	// Liveness is unaffected by readiness probes.
	assert.Equal(t, http.StatusOK, serve(h.LiveEndpoint).Code)
}

func TestStop_Idempotent(t *testing.T) {
	h := New()
	h.AddLivenessCheck("noop", time.Second, func(context.Context) error { return nil })
	h.Start(context.Background(), time.Hour)
	h.Stop()
	h.Stop()
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCheckers(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, GoroutineCountCheck(0)(ctx))
	assert.NoError(t, GoroutineCountCheck(1_000_000)(ctx))
	assert.NoError(t, PingCheck(pinger{})(ctx))
	assert.Error(t, PingCheck(pinger{err: errors.New("down")})(ctx))
	assert.Error(t, ConnCheck(func() error { return errors.New("closed") })(ctx))
}
