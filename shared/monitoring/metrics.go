package monitoring

import (
	"math"
	"sync"
	"time"
)

// ProcessingMetrics accumulates lifetime campaign counters. It is updated
// once per processed campaign and may be read concurrently.
type ProcessingMetrics struct {
	mu                 sync.Mutex
	campaigns          int
	assetsGenerated    int
	complianceFailures int
	meanSeconds        float64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	CampaignsProcessed       int     `json:"campaigns_processed"`
	TotalAssetsGenerated     int     `json:"total_assets_generated"`
	ComplianceFailures       int     `json:"compliance_failures"`
	AverageProcessingTime    float64 `json:"average_processing_time"`
	AverageAssetsPerCampaign float64 `json:"average_assets_per_campaign"`
	ComplianceFailureRate    float64 `json:"compliance_failure_rate"`
}

func NewProcessingMetrics() *ProcessingMetrics {
	return &ProcessingMetrics{}
}

// Record folds one campaign into the running totals.
func (m *ProcessingMetrics) Record(duration time.Duration, assetsGenerated, complianceFailures int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.campaigns++
	m.assetsGenerated += assetsGenerated
	m.complianceFailures += complianceFailures
	m.meanSeconds += (duration.Seconds() - m.meanSeconds) / float64(m.campaigns)
}

func (m *ProcessingMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := MetricsSnapshot{
		CampaignsProcessed:    m.campaigns,
		TotalAssetsGenerated:  m.assetsGenerated,
		ComplianceFailures:    m.complianceFailures,
		AverageProcessingTime: roundTo(m.meanSeconds, 2),
	}
	if m.campaigns > 0 {
		s.AverageAssetsPerCampaign = roundTo(float64(m.assetsGenerated)/float64(m.campaigns), 1)
		s.ComplianceFailureRate = roundTo(float64(m.complianceFailures)/float64(max(m.assetsGenerated, 1))*100, 1)
	}
	return s
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
