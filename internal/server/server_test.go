package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainscale/internal/observability"
)

type stubInferencer struct {
	err    error
	lastID string
}

func (s *stubInferencer) Generate(_ context.Context, runID string, lowRes [][]float64) ([][]float64, error) {
	s.lastID = runID
	if s.err != nil {
		return nil, s.err
	}
	// Echo a trivially upscaled field: each input row doubled.
	out := make([][]float64, 0, 2*len(lowRes))
	for _, row := range lowRes {
		out = append(out, row, row)
	}
	return out, nil
}

func newTestServer(inf *stubInferencer) (*Server, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(":0", inf, metrics, logger), metrics
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(&stubInferencer{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestStatusReportsHost(t *testing.T) {
	srv, _ := newTestServer(&stubInferencer{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
	assert.Contains(t, body, "host")
}

func TestGenerateSuccess(t *testing.T) {
	inf := &stubInferencer{}
	srv, metrics := newTestServer(inf)

	payload, _ := json.Marshal(GenerateRequest{RunID: "run-a", LowRes: [][]float64{{1, 2}, {3, 4}}})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-a", resp.RunID)
	assert.Len(t, resp.HighRes, 4)
	assert.Equal(t, "run-a", inf.lastID)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GenerateRequests.WithLabelValues("success")))
}

func TestGenerateRejectsMissingField(t *testing.T) {
	srv, metrics := newTestServer(&stubInferencer{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewReader([]byte(`{}`))))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GenerateRequests.WithLabelValues("error")))
}

func TestGeneratePropagatesInferenceError(t *testing.T) {
	srv, metrics := newTestServer(&stubInferencer{err: errors.New("no checkpoint for run")})

	payload, _ := json.Marshal(GenerateRequest{LowRes: [][]float64{{1}}})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewReader(payload)))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GenerateRequests.WithLabelValues("error")))
}
