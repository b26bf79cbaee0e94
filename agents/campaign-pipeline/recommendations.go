package campaignpipeline

import (
	"fmt"

	"creative-pipeline/internal/models"
)

const maxStrategicRecommendations = 5

var culturallyDemandingRegions = map[string]bool{
	"japan":       true,
	"middle_east": true,
	"india":       true,
}

func strategicRecommendations(summary models.CampaignSummary, region string, processingSeconds float64) []string {
	var recs []string

	if rate := summary.SuccessRate(); rate < 90 {
		recs = append(recs, fmt.Sprintf("Asset generation success rate (%.1f%%) below optimal. Consider API reliability improvements.", rate))
	}

	if rate := summary.ComplianceRate(); rate < 95 {
		recs = append(recs, fmt.Sprintf("Brand compliance rate (%.1f%%) needs improvement. Review brand guidelines integration.", rate))
	}

	if culturallyDemandingRegions[models.NormalizeRegion(region)] && summary.OverallComplianceScore < 90 {
		recs = append(recs, fmt.Sprintf("Consider specialized cultural adaptation for %s market requirements.", region))
	}

	if summary.AssetsGenerated >= 6 {
		recs = append(recs, "Consider A/B testing different creative variations for optimal performance.")
	}

	if processingSeconds > 120 {
		recs = append(recs, "Processing time suggests potential for optimization. Consider caching strategies.")
	}

	if len(recs) > maxStrategicRecommendations {
		recs = recs[:maxStrategicRecommendations]
	}
	return recs
}
