package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/user-service/internal/handler"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestHello(t *testing.T) {
	rr := httptest.NewRecorder()
	handler.Hello(slog.New(slog.DiscardHandler))(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Hello World"}`, rr.Body.String())
}

func TestWriteFailureIsLoggedToHandlerLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	w := brokenWriter{httptest.NewRecorder()}
	handler.NewHealthHandler(stubPinger{}, logger).
		HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logs.String(), "failed to encode JSON response")
	assert.Contains(t, logs.String(), "connection reset")
}

func TestHealthHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	t.Run("store reachable", func(t *testing.T) {
		h := handler.NewHealthHandler(stubPinger{}, logger)
		rr := httptest.NewRecorder()

		h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	})

	t.Run("store down", func(t *testing.T) {
		h := handler.NewHealthHandler(stubPinger{err: errors.New("connection refused")}, logger)
		rr := httptest.NewRecorder()

		h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.JSONEq(t, `{"detail":"Database unavailable."}`, rr.Body.String())
	})
}

func TestOpenAPIDocument(t *testing.T) {
	raw, err := json.Marshal(handler.BuildOpenAPI("test"))
	require.NoError(t, err)

	// Loading resolves the #/components refs, which Validate requires.
	doc, err := openapi3.NewLoader().LoadFromData(raw)
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	for _, path := range []string{"/test", "/users/", "/users/{user_id}"} {
		assert.NotNil(t, doc.Paths.Value(path), "missing path %s", path)
	}

	item := doc.Paths.Value("/users/{user_id}")
	require.NotNil(t, item)
	assert.NotNil(t, item.Get)
	assert.NotNil(t, item.Put)
	assert.NotNil(t, item.Delete)
	assert.NotNil(t, item.Get.Responses.Value("404"))
}

func TestOpenAPIHandler_ServesLoadableJSON(t *testing.T) {
	h := handler.NewOpenAPIHandler("test", slog.New(slog.DiscardHandler))
	rr := httptest.NewRecorder()

	h.HandleSpec(rr, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	doc, err := openapi3.NewLoader().LoadFromData(rr.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "User Service", doc.Info.Title)
	assert.NotNil(t, doc.Components.Schemas["User"])
}
