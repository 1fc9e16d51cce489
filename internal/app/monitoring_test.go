package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/discretego/internal/ctxlog"
	"github.com/vk/discretego/internal/discretize"
)

func TestMonitoringHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := discretize.NewMetrics(reg)
	metrics.Runs.WithLabelValues("ok").Inc()

	a := &App{
		logger:   ctxlog.Discard(),
		gatherer: reg,
		metrics:  metrics,
	}
	h := a.monitoringHandler()

	testCases := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/health", http.StatusOK, "OK"},
		{"/metrics", http.StatusOK, `result="ok"`},
		{"/missing", http.StatusNotFound, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			require.Equal(t, tc.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
		})
	}
}

func TestCloseMonitoringServer_NotRunning(t *testing.T) {
	a := &App{logger: ctxlog.Discard()}
	assert.NotPanics(t, func() { a.closeMonitoringServer(t.Context()) })
}
