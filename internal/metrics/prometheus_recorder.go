package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	linksChecked  *prom.CounterVec
	linkCacheHits prom.Counter
	linkDuration  prom.Histogram
}

// NewPrometheusRecorder constructs and registers the odadoc metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "odadoc",
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual build stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "odadoc",
		Name:      "build_duration_seconds",
		Help:      "Total site build duration",
		Buckets:   prom.DefBuckets,
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "odadoc",
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "odadoc",
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by final status",
	}, []string{"outcome"})
	pr.linksChecked = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "odadoc",
		Name:      "links_checked_total",
		Help:      "Verified links by scope and result",
	}, []string{"external", "ok"})
	pr.linkCacheHits = prom.NewCounter(prom.CounterOpts{
		Namespace: "odadoc",
		Name:      "link_cache_hits_total",
		Help:      "Link verifications answered from cache",
	})
	pr.linkDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "odadoc",
		Name:      "link_check_duration_seconds",
		Help:      "Duration of individual external link checks",
		Buckets:   prom.DefBuckets,
	})
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults,
		pr.buildOutcome, pr.linksChecked, pr.linkCacheHits, pr.linkDuration)
	return pr
}

// Handler serves the registry over HTTP for the preview server.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncLinkChecked(external bool, ok bool) {
	if p == nil || p.linksChecked == nil {
		return
	}
	p.linksChecked.WithLabelValues(strconv.FormatBool(external), strconv.FormatBool(ok)).Inc()
}

func (p *PrometheusRecorder) IncLinkCacheHit() {
	if p == nil || p.linkCacheHits == nil {
		return
	}
	p.linkCacheHits.Inc()
}

func (p *PrometheusRecorder) ObserveLinkCheckDuration(d time.Duration) {
	if p == nil || p.linkDuration == nil {
		return
	}
	p.linkDuration.Observe(d.Seconds())
}
