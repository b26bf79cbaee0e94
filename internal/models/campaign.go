package models

// ProcessingStatus is the lifecycle state of one campaign run
type ProcessingStatus string

const (
	StatusInProgress            ProcessingStatus = "in_progress"
	StatusCompletedSuccessfully ProcessingStatus = "completed_successfully"
	StatusCompletedWithIssues   ProcessingStatus = "completed_with_issues"
	StatusFailed                ProcessingStatus = "failed"
)

// CampaignSummary holds the aggregate counters of a run
type CampaignSummary struct {
	TotalAssetsRequested   int     `json:"total_assets_requested"`
	AssetsGenerated        int     `json:"assets_generated"`
	AssetsFailed           int     `json:"assets_failed"`
	CompliancePassed       int     `json:"compliance_passed"`
	ComplianceFailed       int     `json:"compliance_failed"`
	OverallComplianceScore float64 `json:"overall_compliance_score"`
}

// SuccessRate is the percentage of requested assets that were generated.
func (s CampaignSummary) SuccessRate() float64 {
	return float64(s.AssetsGenerated) / float64(max(s.TotalAssetsRequested, 1)) * 100
}

// ComplianceRate is the percentage of generated assets that passed compliance.
func (s CampaignSummary) ComplianceRate() float64 {
	return float64(s.CompliancePassed) / float64(max(s.AssetsGenerated, 1)) * 100
}

// CampaignResult is the aggregate record of one campaign run
type CampaignResult struct {
	CorrelationID            string                                  `json:"correlation_id"`
	CampaignName             string                                  `json:"campaign_name"`
	ProcessingStatus         ProcessingStatus                        `json:"processing_status"`
	StartTime                string                                  `json:"start_time"`
	EndTime                  string                                  `json:"end_time,omitempty"`
	Assets                   map[string]map[string]AssetResult       `json:"assets"`
	ComplianceResults        map[string]map[string]*ComplianceResult `json:"compliance_results"`
	Summary                  CampaignSummary                         `json:"summary"`
	Recommendations          []string                                `json:"recommendations"`
	StrategicRecommendations []string                                `json:"strategic_recommendations,omitempty"`
	ProcessingTime           float64                                 `json:"processing_time"`
	Error                    string                                  `json:"error,omitempty"`
}
