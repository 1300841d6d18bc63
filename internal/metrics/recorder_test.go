package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_CountsStageResults(t *testing.T) {
	reg := prom.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.IncStageResult("render", ResultSuccess)
	rec.IncStageResult("render", ResultSuccess)
	rec.IncStageResult("render", ResultFatal)
	rec.ObserveStageDuration("render", 125*time.Millisecond)
	rec.ObserveBuildDuration(time.Second)
	rec.IncBuildOutcome("success")
	rec.IncLinkChecked(true, false)
	rec.IncLinkCacheHit()

	count := testutil.ToFloat64(rec.stageResults.WithLabelValues("render", "success"))
	require.Equal(t, 2.0, count)
	count = testutil.ToFloat64(rec.stageResults.WithLabelValues("render", "fatal"))
	require.Equal(t, 1.0, count)
	count = testutil.ToFloat64(rec.linksChecked.WithLabelValues("true", "false"))
	require.Equal(t, 1.0, count)
	require.Equal(t, 1.0, testutil.ToFloat64(rec.linkCacheHits))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *PrometheusRecorder
	require.NotPanics(t, func() {
		rec.IncStageResult("render", ResultSuccess)
		rec.ObserveBuildDuration(time.Second)
		rec.IncLinkChecked(false, true)
	})
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var _ Recorder = NoopRecorder{}
	var _ Recorder = &PrometheusRecorder{}
}
