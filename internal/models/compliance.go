package models

// CheckResult is the outcome of one compliance dimension
type CheckResult struct {
	Score           float64  `json:"score"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
	ChecksPerformed []string `json:"checks_performed"`
}

// NewCheckResult starts a check at its baseline score.
func NewCheckResult(baseline float64) CheckResult {
	return CheckResult{
		Score:           baseline,
		Issues:          []string{},
		Recommendations: []string{},
		ChecksPerformed: []string{},
	}
}

// ComplianceChecks groups the four compliance dimensions
type ComplianceChecks struct {
	Visual    CheckResult `json:"visual_compliance"`
	Content   CheckResult `json:"content_compliance"`
	Cultural  CheckResult `json:"cultural_compliance"`
	Technical CheckResult `json:"technical_compliance"`
}

// ComplianceResult is the scored verdict for one asset
type ComplianceResult struct {
	OverallScore    float64          `json:"overall_score"`
	Passed          bool             `json:"passed"`
	Checks          ComplianceChecks `json:"checks"`
	Issues          []string         `json:"issues"`
	Recommendations []string         `json:"recommendations"`
}
