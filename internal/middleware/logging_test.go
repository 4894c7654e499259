package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/taskvault/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureLogger_RedactsSensitiveQuery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := SecureLogger(logger)(okHandler())
	req := httptest.NewRequest("GET", "/api/v1/auth/verify?code=123456", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http_request", entry["msg"])
	assert.Equal(t, "/api/v1/auth/verify?[REDACTED]", entry["path"])
	assert.NotContains(t, buf.String(), "123456")
}

func TestSecureLogger_RecordsRoutePattern(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	r := chi.NewRouter()
	r.Use(SecureLogger(logger))
	r.Get("/api/v1/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/tasks/{id}", "404")
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/tasks/3f2b", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/tasks/9a1c", nil))

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
