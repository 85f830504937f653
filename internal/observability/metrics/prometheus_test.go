package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	m := New("oads_download")

	assert.NotNil(t, m)
	assert.Equal(t, "oads_download", m.serviceName)
	assert.NotNil(t, m.registry)
}

func TestPrometheusMetrics_RecordSuccess(t *testing.T) {
	m := New("test")

	m.RecordSuccess("download")
	m.RecordSuccess("download")
	m.RecordSuccess("skip")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.processedTotal.WithLabelValues("success", "download")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.processedTotal.WithLabelValues("success", "skip")))
}

func TestPrometheusMetrics_RecordError(t *testing.T) {
	m := New("test")

	m.RecordError("download", "auth")
	m.RecordError("download", "auth")
	m.RecordError("search", "page_fetch")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.processedTotal.WithLabelValues("error", "download")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("auth", "download")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("page_fetch", "search")))
}

func TestPrometheusMetrics_InProgress(t *testing.T) {
	m := New("test")

	m.StartOperation("download")
	m.StartOperation("download")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.inProgress.WithLabelValues("download")))

	m.EndOperation("download")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inProgress.WithLabelValues("download")))
}

func TestPrometheusMetrics_Histograms(t *testing.T) {
	m := New("test")

	m.RecordDuration("download", 1.5)
	m.RecordFileSize("ATL_NOM_1B", 250*1024*1024)

	assert.Equal(t, 1, testutil.CollectAndCount(m.durationSeconds))
	assert.Equal(t, 1, testutil.CollectAndCount(m.fileSizeBytes))
}

func TestPrometheusMetrics_PrivateRegistry(t *testing.T) {
	// Two instances must not clash on metric registration, since each run
	// collects into its own registry before pushing.
	a := New("test")
	b := New("test")

	a.RecordSuccess("download")
	b.RecordSuccess("download")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.processedTotal.WithLabelValues("success", "download")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.processedTotal.WithLabelValues("success", "download")))
}
