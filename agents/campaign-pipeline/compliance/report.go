package compliance

import (
	"fmt"
	"strings"

	"creative-pipeline/internal/models"
)

// Report renders a compliance result as plain text.
func Report(result *models.ComplianceResult) string {
	var b strings.Builder

	status := "FAILED"
	if result.Passed {
		status = "PASSED"
	}

	b.WriteString("=== BRAND COMPLIANCE REPORT ===\n")
	fmt.Fprintf(&b, "Overall Score: %.1f/100\n", result.OverallScore)
	fmt.Fprintf(&b, "Status: %s\n\n", status)

	sections := []struct {
		name  string
		check models.CheckResult
	}{
		{"Visual Compliance", result.Checks.Visual},
		{"Content Compliance", result.Checks.Content},
		{"Cultural Compliance", result.Checks.Cultural},
		{"Technical Compliance", result.Checks.Technical},
	}
	for _, s := range sections {
		fmt.Fprintf(&b, "%s: %g/100\n", s.name, s.check.Score)
		for _, performed := range s.check.ChecksPerformed {
			fmt.Fprintf(&b, "  [ok] %s\n", performed)
		}
	}

	if len(result.Issues) > 0 {
		b.WriteString("\nIssues Found:\n")
		for _, issue := range result.Issues {
			fmt.Fprintf(&b, "  - %s\n", issue)
		}
	}

	if len(result.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, rec := range result.Recommendations {
			fmt.Fprintf(&b, "  * %s\n", rec)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
