package campaignpipeline

import (
	"fmt"

	"creative-pipeline/internal/models"
)

// ValidationError reports a brief that cannot be processed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type briefError struct {
	cause error
}

func (e *briefError) Error() string {
	return "Campaign brief validation failed: " + e.cause.Error()
}

func (e *briefError) Unwrap() error {
	return e.cause
}

// Validate checks required fields in a fixed order and reports the first
// one that is missing.
func Validate(brief *models.CampaignBrief) error {
	if brief == nil {
		return missing("campaign_name")
	}

	required := []struct {
		field string
		empty bool
	}{
		{"campaign_name", brief.CampaignName == ""},
		{"products", len(brief.Products) == 0},
		{"target_region", brief.TargetRegion == ""},
		{"target_audience", brief.TargetAudience == ""},
		{"campaign_message", brief.CampaignMessage == ""},
	}
	for _, r := range required {
		if r.empty {
			return missing(r.field)
		}
	}

	for i, p := range brief.Products {
		if p.Name == "" {
			return &ValidationError{
				Field:   "products",
				Message: fmt.Sprintf("Product %d must have a 'name' field", i+1),
			}
		}
	}
	return nil
}

func missing(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "Missing required field: " + field}
}
