package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docsnap"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration    *prom.HistogramVec
	stageResults     *prom.CounterVec
	generateDuration prom.Histogram
	generateOutcome  *prom.CounterVec
	snapshotEntries  prom.Gauge
	snapshotInfo     *prom.GaugeVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual generation stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		generateDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Total generation run duration",
			Buckets:   prom.DefBuckets,
		}),
		generateOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "generate_outcomes_total",
			Help:      "Generation runs by final status",
		}, []string{"outcome"}),
		snapshotEntries: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_entries",
			Help:      "Number of entries in the last written snapshot",
		}),
		snapshotInfo: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_info",
			Help:      "Fingerprint of the last written snapshot (always 1)",
		}, []string{"fingerprint"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.generateDuration,
		pr.generateOutcome, pr.snapshotEntries, pr.snapshotInfo)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveGenerateDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.generateDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncGenerateOutcome(result ResultLabel) {
	if p == nil {
		return
	}
	p.generateOutcome.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) SetSnapshotEntries(n int) {
	if p == nil {
		return
	}
	p.snapshotEntries.Set(float64(n))
}

// SetSnapshotFingerprint replaces the info series so only the latest fingerprint is exported.
func (p *PrometheusRecorder) SetSnapshotFingerprint(fp string) {
	if p == nil {
		return
	}
	p.snapshotInfo.Reset()
	p.snapshotInfo.WithLabelValues(fp).Set(1)
}
