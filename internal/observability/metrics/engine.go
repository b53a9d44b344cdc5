package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics captures entitlement engine decision counts.
type EngineMetrics struct {
	featureChecks *prometheus.CounterVec
	usageChecks   *prometheus.CounterVec
	usageRecorded *prometheus.CounterVec
}

// NewEngineMetrics registers engine instruments on the default registerer.
func NewEngineMetrics(cfg Config) *EngineMetrics {
	return newEngineMetrics(prometheus.DefaultRegisterer, cfg)
}

func newEngineMetrics(registerer prometheus.Registerer, cfg Config) *EngineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	constLabels := prometheus.Labels{
		"service": labelOrDefault(cfg.ServiceName, "entitlements"),
		"env":     labelOrDefault(cfg.Environment, "unknown"),
	}

	featureChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "entitlement_feature_checks_total",
		Help:        "Feature access checks by feature and access level.",
		ConstLabels: constLabels,
	}, []string{"feature", "level"})

	usageChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "entitlement_usage_checks_total",
		Help:        "Usage limit checks by resource and outcome.",
		ConstLabels: constLabels,
	}, []string{"resource", "outcome"})

	usageRecorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "entitlement_usage_recorded_total",
		Help:        "Recorded usage units by resource.",
		ConstLabels: constLabels,
	}, []string{"resource"})

	featureChecks = registerCounterVec(registerer, featureChecks)
	usageChecks = registerCounterVec(registerer, usageChecks)
	usageRecorded = registerCounterVec(registerer, usageRecorded)

	return &EngineMetrics{
		featureChecks: featureChecks,
		usageChecks:   usageChecks,
		usageRecorded: usageRecorded,
	}
}

// RecordFeatureCheck increments the feature check counter.
func (m *EngineMetrics) RecordFeatureCheck(feature, level string) {
	if m == nil {
		return
	}
	m.featureChecks.WithLabelValues(strings.TrimSpace(feature), strings.TrimSpace(level)).Inc()
}

// RecordUsageCheck increments the usage check counter.
func (m *EngineMetrics) RecordUsageCheck(resource string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "exhausted"
	}
	m.usageChecks.WithLabelValues(strings.TrimSpace(resource), outcome).Inc()
}

// RecordUsageRecorded increments the recorded usage counter.
func (m *EngineMetrics) RecordUsageRecorded(resource string) {
	if m == nil {
		return
	}
	m.usageRecorded.WithLabelValues(strings.TrimSpace(resource)).Inc()
}
