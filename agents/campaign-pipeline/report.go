package campaignpipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"creative-pipeline/internal/models"
)

const resultsFile = "campaign_results.json"

// GenerateReport renders the human-readable campaign report. Products and
// aspect ratios are listed in sorted order.
func GenerateReport(result *models.CampaignResult) string {
	rule := strings.Repeat("=", 60)
	s := result.Summary

	lines := []string{
		rule,
		"ENTERPRISE CAMPAIGN PROCESSING REPORT",
		rule,
		"Campaign: " + result.CampaignName,
		"Correlation ID: " + result.CorrelationID,
		"Status: " + strings.ToUpper(strings.ReplaceAll(string(result.ProcessingStatus), "_", " ")),
		"Processing Time: " + decimal(result.ProcessingTime) + "s",
		"",
		"ASSET GENERATION SUMMARY:",
		fmt.Sprintf("  Total Requested: %d", s.TotalAssetsRequested),
		fmt.Sprintf("  Successfully Generated: %d", s.AssetsGenerated),
		fmt.Sprintf("  Failed: %d", s.AssetsFailed),
		fmt.Sprintf("  Success Rate: %.1f%%", s.SuccessRate()),
		"",
	}

	if s.AssetsGenerated > 0 {
		lines = append(lines,
			"BRAND COMPLIANCE SUMMARY:",
			fmt.Sprintf("  Compliance Passed: %d", s.CompliancePassed),
			fmt.Sprintf("  Compliance Failed: %d", s.ComplianceFailed),
			"  Overall Compliance Score: "+decimal(s.OverallComplianceScore)+"/100",
			fmt.Sprintf("  Compliance Rate: %.1f%%", s.ComplianceRate()),
			"",
		)
	}

	if len(result.StrategicRecommendations) > 0 {
		lines = append(lines, "STRATEGIC RECOMMENDATIONS:")
		for i, rec := range result.StrategicRecommendations {
			lines = append(lines, fmt.Sprintf("  %d. %s", i+1, rec))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "GENERATED ASSETS:")
	for _, product := range sortedKeys(result.Assets) {
		lines = append(lines, "  "+product+":")
		byAspect := result.Assets[product]
		for _, aspect := range sortedKeys(byAspect) {
			asset := byAspect[aspect]
			if asset.Succeeded() {
				lines = append(lines, fmt.Sprintf("    [OK] %s: %s", aspect, asset.Path))
			} else {
				lines = append(lines, fmt.Sprintf("    [FAILED] %s: Failed", aspect))
			}
		}
	}

	return strings.Join(lines, "\n")
}

// SaveResults writes the result as indented JSON to
// <outputDir>/<campaign>/campaign_results.json and returns the file path.
func SaveResults(outputDir string, result *models.CampaignResult) (string, error) {
	dir := filepath.Join(outputDir, models.FileSafeName(result.CampaignName))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return "", fmt.Errorf("failed to encode campaign results: %w", err)
	}

	path := filepath.Join(dir, resultsFile)
	tmp, err := os.CreateTemp(dir, resultsFile+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write campaign results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}
	return path, nil
}

// decimal formats like 12.5 or 3.0, always with at least one decimal place.
func decimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
