package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(SyncRunsTotal.WithLabelValues("intel", "success"))
	SyncRunsTotal.WithLabelValues("intel", "success").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SyncRunsTotal.WithLabelValues("intel", "success")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	CleanupDeletedTotal.WithLabelValues("amd_families").Add(2)
	RunDuration.WithLabelValues("cleanup").Observe(1.5)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cpu_catalog_cleanup_deleted_total{rule="amd_families"}`)
	assert.Contains(t, string(body), "cpu_catalog_run_duration_seconds_bucket")
}
