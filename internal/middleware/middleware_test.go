package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/user-service/internal/repository/sqlstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	store, err := sqlstore.Open(context.Background(), sqlstore.Config{Driver: "sqlite", DSN: dsn}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

type failingAcquirer struct{}

func (failingAcquirer) Acquire(context.Context) (*sqlstore.Conn, error) {
	return nil, errors.New("pool exhausted")
}

// ===== LOGGER TESTS =====

func TestLogger_RecordsStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := chimiddleware.RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/1", nil))

	out := buf.String()
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "path=/users/1")
	assert.Contains(t, out, "bytes=2")
	assert.Contains(t, out, "request_id=")
	assert.NotContains(t, out, `request_id=""`)
}

func TestLogger_ServerErrorsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), "level=ERROR")
}

// ===== STORECONN TESTS =====

func TestStoreConn_ConnAvailableToHandler(t *testing.T) {
	store := newTestStore(t)

	var sawConn bool
	h := StoreConn(store, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, ok := ConnFromContext(r.Context())
		sawConn = ok && conn != nil
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, sawConn, "handler should see the leased connection")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestStoreConn_ReleasedAfterEachRequest(t *testing.T) {
	// A one-connection in-memory pool: if a lease leaked, the second
	// request would block forever on Acquire.
	store, err := sqlstore.Open(context.Background(), sqlstore.Config{Driver: "sqlite", DSN: ":memory:"}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := StoreConn(store, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req.WithContext(ctx))
		cancel()
		assert.Equal(t, http.StatusOK, rr.Code, "request %d", i)
	}
}

func TestStoreConn_ReleasedAfterPanic(t *testing.T) {
	store, err := sqlstore.Open(context.Background(), sqlstore.Config{Driver: "sqlite", DSN: ":memory:"}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	panicking := StoreConn(store, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	h := chimiddleware.Recoverer(panicking)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := store.Acquire(ctx)
	require.NoError(t, err, "connection should be back in the pool after a panic")
	conn.Close()
}

func TestStoreConn_AcquireFailureIs503(t *testing.T) {
	called := false
	h := StoreConn(failingAcquirer{}, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"detail":"Database unavailable."}`, rr.Body.String())
}

func TestConnFromContext_Missing(t *testing.T) {
	_, ok := ConnFromContext(context.Background())
	assert.False(t, ok)
}

// ===== METRICS TESTS =====

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/users/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/users/1", "/users/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues("/users/{user_id}", http.MethodGet, "404"))
	assert.Equal(t, float64(2), got)
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	got := testutil.ToFloat64(m.requests.WithLabelValues("unmatched", http.MethodGet, "404"))
	assert.Equal(t, float64(1), got)
}

// ===== RATE LIMIT TESTS =====

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	h := RateLimit(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
