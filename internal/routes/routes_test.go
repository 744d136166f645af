// internal/routes/routes_test.go
package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"motion-service/internal/channel"
	"motion-service/internal/config"
	"motion-service/internal/metrics"
	"motion-service/internal/repository"
	"motion-service/internal/service"
	"motion-service/pkg/octet"
)

type offlineIO struct{}

func (offlineIO) Connect(context.Context, string, int) (octet.Link, error) {
	return nil, errors.New("controller offline")
}

type namedPorts []string

func (p namedPorts) Ports() []string { return p }

func newTestRouter(t *testing.T, metricsEnabled bool) http.Handler {
	t.Helper()
	cfg := &config.Config{
		App:     config.AppConfig{Name: "motion-service", Version: "test", Environment: "test"},
		Metrics: config.MetricsConfig{Enabled: metricsEnabled},
	}
	logger := zap.NewNop()

	table := channel.NewTable(offlineIO{}, channel.Config{MaxChannels: 4}, logger)
	m := metrics.New()
	svc := service.NewChannelService(table, repository.NewMemoryExchangeRepository(10), nil, m, cfg, logger)
	discovery := service.NewDiscoveryService(nil, logger)

	return NewRouter(cfg, logger, nil, svc, discovery, namedPorts{"xps"}, m, nil).SetupRouter()
}

func TestSetupRouter(t *testing.T) {
	router := newTestRouter(t, true)

	cases := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{name: "health", path: "/health", status: http.StatusOK, body: `"channels"`},
		{name: "live", path: "/live", status: http.StatusOK},
		{name: "metrics", path: "/metrics", status: http.StatusOK, body: "motion_channel_open"},
		{name: "ports", path: "/api/v1/ports", status: http.StatusOK, body: `"xps"`},
		{name: "channels", path: "/api/v1/channels", status: http.StatusOK},
		{name: "scanners", path: "/api/v1/discovery/scanners", status: http.StatusOK},
		{name: "docs redirect", path: "/docs", status: http.StatusMovedPermanently},
		{name: "unknown", path: "/api/v1/printers", status: http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			require.Equal(t, tc.status, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			if tc.body != "" {
				assert.Contains(t, w.Body.String(), tc.body)
			}
		})
	}
}

func TestSetupRouterMetricsDisabled(t *testing.T) {
	router := newTestRouter(t, false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetupRouterConnectFailure(t *testing.T) {
	router := newTestRouter(t, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/channels", strings.NewReader(`{"port":"xps","addr":5001}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `motion_channel_connects_total{port="xps",result="failed"} 1`)
}
