package campaignpipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"creative-pipeline/internal/models"
	"creative-pipeline/shared/config"
	"creative-pipeline/shared/monitoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	aspects []models.AspectRatioSpec
	failing map[string]bool
	calls   int
	seen    *models.CampaignBrief
}

func (f *fakeGenerator) Aspects() []models.AspectRatioSpec {
	return f.aspects
}

func (f *fakeGenerator) GenerateCampaignAssets(ctx context.Context, brief *models.CampaignBrief) map[string]map[string]models.AssetResult {
	f.calls++
	f.seen = brief
	out := make(map[string]map[string]models.AssetResult)
	for _, p := range brief.Products {
		byAspect := make(map[string]models.AssetResult)
		for _, a := range f.aspects {
			if f.failing[p.Name] {
				byAspect[a.Key] = models.AssetResult{Status: models.AssetFailed, AspectRatio: a.Ratio, Error: "provider down"}
				continue
			}
			byAspect[a.Key] = models.AssetResult{
				Path:        filepath.Join("output", models.FileSafeName(p.Name)+"_"+a.Key+"_final.png"),
				Status:      models.AssetSuccess,
				Provider:    "procedural",
				AspectRatio: a.Ratio,
			}
		}
		out[p.Name] = byAspect
	}
	return out
}

type fakeChecker struct {
	scores map[string]float64
	panic  bool
	calls  int
}

func (f *fakeChecker) Check(assetPath string, brief *models.CampaignBrief, product models.Product) *models.ComplianceResult {
	f.calls++
	if f.panic {
		panic("boom")
	}
	score, ok := f.scores[product.Name]
	if !ok {
		score = 90
	}
	return &models.ComplianceResult{
		OverallScore:    score,
		Passed:          score >= 85,
		Issues:          []string{},
		Recommendations: []string{"Review " + product.Name},
	}
}

func steppingClock(step time.Duration) func() time.Time {
	t := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	return func() time.Time {
		cur := t
		t = t.Add(step)
		return cur
	}
}

func newTestProcessor(gen *fakeGenerator, checker *fakeChecker) *Processor {
	cfg := config.Default()
	if gen.aspects == nil {
		gen.aspects = cfg.AspectRatios
	}
	p := NewProcessor(cfg, gen, checker, monitoring.NewProcessingMetrics(), zap.NewNop())
	p.now = steppingClock(0)
	return p
}

func sampleBrief() *models.CampaignBrief {
	return &models.CampaignBrief{
		CampaignName:    "Summer Launch",
		Products:        []models.Product{{Name: "Nike Shoes"}, {Name: "iPhone"}},
		TargetRegion:    "United States",
		TargetAudience:  "Young professionals",
		CampaignMessage: "Step into summer with confidence",
	}
}

func TestProcessCampaignSuccess(t *testing.T) {
	gen := &fakeGenerator{}
	checker := &fakeChecker{}
	p := newTestProcessor(gen, checker)

	result := p.ProcessCampaign(context.Background(), sampleBrief(), "cam_test0001")

	assert.Equal(t, models.StatusCompletedSuccessfully, result.ProcessingStatus)
	assert.Equal(t, "cam_test0001", result.CorrelationID)
	assert.Equal(t, "Summer Launch", result.CampaignName)
	assert.Empty(t, result.Error)

	assert.Equal(t, models.CampaignSummary{
		TotalAssetsRequested:   6,
		AssetsGenerated:        6,
		CompliancePassed:       6,
		OverallComplianceScore: 90,
	}, result.Summary)

	require.Len(t, result.Assets, 2)
	require.Len(t, result.Assets["iPhone"], 3)
	require.Len(t, result.ComplianceResults["Nike Shoes"], 3)
	assert.Equal(t, 6, checker.calls)
	assert.Len(t, result.Recommendations, 6)

	assert.Equal(t, []string{"Consider A/B testing different creative variations for optimal performance."}, result.StrategicRecommendations)
	assert.Equal(t, "2025-03-14 09:30:00", result.StartTime)
	assert.NotEmpty(t, result.EndTime)
}

func TestProcessCampaignEveryGeneratedAssetIsScored(t *testing.T) {
	gen := &fakeGenerator{failing: map[string]bool{"iPhone": true}}
	checker := &fakeChecker{}
	p := newTestProcessor(gen, checker)

	result := p.ProcessCampaign(context.Background(), sampleBrief(), "")

	assert.Equal(t, 3, result.Summary.AssetsGenerated)
	assert.Equal(t, 3, result.Summary.AssetsFailed)
	assert.Equal(t, 3, checker.calls)
	for product, byAspect := range result.Assets {
		for aspect, asset := range byAspect {
			_, scored := result.ComplianceResults[product][aspect]
			assert.Equal(t, asset.Succeeded(), scored, "%s/%s", product, aspect)
		}
	}
	assert.Contains(t, result.StrategicRecommendations,
		"Asset generation success rate (50.0%) below optimal. Consider API reliability improvements.")
}

func TestProcessCampaignValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.CampaignBrief)
		want   string
	}{
		{"missing name", func(b *models.CampaignBrief) { b.CampaignName = "" }, "Missing required field: campaign_name"},
		{"no products", func(b *models.CampaignBrief) { b.Products = nil }, "Missing required field: products"},
		{"missing region", func(b *models.CampaignBrief) { b.TargetRegion = "" }, "Missing required field: target_region"},
		{"missing audience", func(b *models.CampaignBrief) { b.TargetAudience = "" }, "Missing required field: target_audience"},
		{"missing message", func(b *models.CampaignBrief) { b.CampaignMessage = "" }, "Missing required field: campaign_message"},
		{"unnamed product", func(b *models.CampaignBrief) { b.Products[1].Name = "" }, "Product 2 must have a 'name' field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			p := newTestProcessor(gen, &fakeChecker{})
			brief := sampleBrief()
			tt.mutate(brief)

			result := p.ProcessCampaign(context.Background(), brief, "")

			assert.Equal(t, models.StatusFailed, result.ProcessingStatus)
			assert.Equal(t, "Campaign brief validation failed: "+tt.want, result.Error)
			assert.Zero(t, gen.calls)
			assert.Empty(t, result.StrategicRecommendations)
			assert.Equal(t, 1, p.Metrics().CampaignsProcessed)
		})
	}
}

func TestValidateReturnsTypedError(t *testing.T) {
	err := Validate(&models.CampaignBrief{CampaignName: "x"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "products", verr.Field)

	assert.Error(t, Validate(nil))
	assert.NoError(t, Validate(sampleBrief()))
}

func TestProcessCampaignNoAssets(t *testing.T) {
	gen := &fakeGenerator{failing: map[string]bool{"Nike Shoes": true, "iPhone": true}}
	p := newTestProcessor(gen, &fakeChecker{})

	result := p.ProcessCampaign(context.Background(), sampleBrief(), "")

	assert.Equal(t, models.StatusFailed, result.ProcessingStatus)
	assert.Equal(t, "No assets were generated successfully", result.Error)
	assert.Zero(t, result.Summary.OverallComplianceScore)
	assert.Equal(t, []string{
		"Asset generation success rate (0.0%) below optimal. Consider API reliability improvements.",
		"Brand compliance rate (0.0%) needs improvement. Review brand guidelines integration.",
	}, result.StrategicRecommendations)
}

func TestProcessCampaignWithIssues(t *testing.T) {
	checker := &fakeChecker{scores: map[string]float64{"Nike Shoes": 60, "iPhone": 70}}
	brief := sampleBrief()
	brief.Products = append(brief.Products, models.Product{Name: "Coca Cola"})
	p := newTestProcessor(&fakeGenerator{}, checker)

	result := p.ProcessCampaign(context.Background(), brief, "")

	assert.Equal(t, models.StatusCompletedWithIssues, result.ProcessingStatus)
	assert.Equal(t, 6, result.Summary.ComplianceFailed)
	assert.Equal(t, 3, result.Summary.CompliancePassed)
	assert.Equal(t, 73.3, result.Summary.OverallComplianceScore)
}

func TestProcessCampaignPreprocessing(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestProcessor(gen, &fakeChecker{})

	brief := sampleBrief()
	brief.TargetRegion = "Middle East"
	brief.TargetAudience = "Young Professionals in cities"
	brief.CampaignMessage = "Shop now"

	p.ProcessCampaign(context.Background(), brief, "")

	require.NotNil(t, gen.seen)
	assert.Equal(t, "Shop now - Elevate your professional life", gen.seen.CampaignMessage)
	require.NotNil(t, gen.seen.BrandGuidelines)
	assert.Equal(t, &models.CulturalAdaptation{
		Region:           "middle_east",
		CulturalKeywords: []string{"family", "hospitality", "tradition", "celebration"},
		Language:         "ar",
		TextDirection:    "rtl",
	}, gen.seen.BrandGuidelines.CulturalAdaptation)

	assert.Equal(t, "Shop now", brief.CampaignMessage)
	assert.Nil(t, brief.BrandGuidelines)
}

func TestEnhanceMessage(t *testing.T) {
	assert.Equal(t, "Hello - Perfect for the whole family", enhanceMessage("Hello", "Families with kids"))
	assert.Equal(t, "Hello - Smart choice for students", enhanceMessage("Hello", "college students"))
	assert.Equal(t, "Hello - Trusted quality for life's experiences", enhanceMessage("Hello", "Seniors"))
	assert.Equal(t, "Hello", enhanceMessage("Hello", "gamers"))
}

func TestProcessCampaignRecoversFromPanics(t *testing.T) {
	p := newTestProcessor(&fakeGenerator{}, &fakeChecker{panic: true})
	p.now = steppingClock(1500 * time.Millisecond)

	result := p.ProcessCampaign(context.Background(), sampleBrief(), "")

	assert.Equal(t, models.StatusFailed, result.ProcessingStatus)
	assert.Contains(t, result.Error, "boom")
	assert.Equal(t, 1.5, result.ProcessingTime)
	assert.NotEmpty(t, result.EndTime)
	assert.Empty(t, result.StrategicRecommendations)
}

func TestProcessCampaignSlowRunRecommendsCaching(t *testing.T) {
	p := newTestProcessor(&fakeGenerator{}, &fakeChecker{})
	p.now = steppingClock(121 * time.Second)

	result := p.ProcessCampaign(context.Background(), sampleBrief(), "")

	assert.Equal(t, 121.0, result.ProcessingTime)
	assert.Contains(t, result.StrategicRecommendations,
		"Processing time suggests potential for optimization. Consider caching strategies.")
}

func TestProcessCampaignCancelledContext(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestProcessor(gen, &fakeChecker{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := p.ProcessCampaign(ctx, sampleBrief(), "")

	assert.Equal(t, models.StatusFailed, result.ProcessingStatus)
	assert.Zero(t, gen.calls)
}

func TestStrategicRecommendations(t *testing.T) {
	t.Run("regional", func(t *testing.T) {
		summary := models.CampaignSummary{TotalAssetsRequested: 3, AssetsGenerated: 3, CompliancePassed: 3, OverallComplianceScore: 88}
		recs := strategicRecommendations(summary, "Middle East", 1)
		assert.Equal(t, []string{"Consider specialized cultural adaptation for Middle East market requirements."}, recs)

		assert.Empty(t, strategicRecommendations(summary, "Germany", 1))
	})

	t.Run("capped at five", func(t *testing.T) {
		summary := models.CampaignSummary{TotalAssetsRequested: 20, AssetsGenerated: 10, CompliancePassed: 2, OverallComplianceScore: 50}
		recs := strategicRecommendations(summary, "japan", 300)
		require.Len(t, recs, 5)
		assert.True(t, strings.HasPrefix(recs[0], "Asset generation success rate (50.0%)"))
		assert.True(t, strings.HasPrefix(recs[1], "Brand compliance rate (20.0%)"))
		assert.Equal(t, "Consider specialized cultural adaptation for japan market requirements.", recs[2])
		assert.Contains(t, recs[4], "caching")
	})
}

func TestCorrelationID(t *testing.T) {
	id := NewCorrelationID()
	assert.Regexp(t, regexp.MustCompile(`^cam_[0-9a-f]{8}$`), id)
	assert.NotEqual(t, id, NewCorrelationID())

	result := newTestProcessor(&fakeGenerator{}, &fakeChecker{}).ProcessCampaign(context.Background(), sampleBrief(), "")
	assert.Regexp(t, `^cam_[0-9a-f]{8}$`, result.CorrelationID)
}

func TestProcessorMetrics(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestProcessor(gen, &fakeChecker{scores: map[string]float64{"iPhone": 40}})
	p.now = steppingClock(time.Second)

	p.ProcessCampaign(context.Background(), sampleBrief(), "")
	gen.failing = map[string]bool{"Nike Shoes": true, "iPhone": true}
	p.ProcessCampaign(context.Background(), sampleBrief(), "")

	assert.Equal(t, monitoring.MetricsSnapshot{
		CampaignsProcessed:       2,
		TotalAssetsGenerated:     6,
		ComplianceFailures:       3,
		AverageProcessingTime:    1,
		AverageAssetsPerCampaign: 3,
		ComplianceFailureRate:    50,
	}, p.Metrics())
}

func TestGenerateReport(t *testing.T) {
	p := newTestProcessor(&fakeGenerator{failing: map[string]bool{"iPhone": true}}, &fakeChecker{})
	result := p.ProcessCampaign(context.Background(), sampleBrief(), "cam_deadbeef")

	report := GenerateReport(result)

	for _, want := range []string{
		strings.Repeat("=", 60),
		"ENTERPRISE CAMPAIGN PROCESSING REPORT",
		"Campaign: Summer Launch",
		"Correlation ID: cam_deadbeef",
		"Status: COMPLETED SUCCESSFULLY",
		"Processing Time: 0.0s",
		"  Total Requested: 6",
		"  Successfully Generated: 3",
		"  Failed: 3",
		"  Success Rate: 50.0%",
		"BRAND COMPLIANCE SUMMARY:",
		"  Overall Compliance Score: 90.0/100",
		"  Compliance Rate: 100.0%",
		"STRATEGIC RECOMMENDATIONS:",
		"  1. Asset generation success rate (50.0%) below optimal. Consider API reliability improvements.",
		"GENERATED ASSETS:",
		"  Nike Shoes:",
		"    [OK] square: " + filepath.Join("output", "Nike_Shoes_square_final.png"),
		"    [FAILED] story: Failed",
	} {
		assert.Contains(t, report, want)
	}
}

func TestGenerateReportOmitsComplianceWithoutAssets(t *testing.T) {
	p := newTestProcessor(&fakeGenerator{}, &fakeChecker{})
	brief := sampleBrief()
	brief.CampaignName = ""

	report := GenerateReport(p.ProcessCampaign(context.Background(), brief, ""))

	assert.Contains(t, report, "Status: FAILED")
	assert.NotContains(t, report, "BRAND COMPLIANCE SUMMARY:")
	assert.NotContains(t, report, "STRATEGIC RECOMMENDATIONS:")
}

func TestSaveResults(t *testing.T) {
	dir := t.TempDir()
	p := newTestProcessor(&fakeGenerator{}, &fakeChecker{})
	brief := sampleBrief()
	brief.CampaignName = "Tom & Jerry <Summer>"

	result := p.ProcessCampaign(context.Background(), brief, "")
	path, err := SaveResults(dir, result)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Tom_&_Jerry_<Summer>", "campaign_results.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"campaign_name": "Tom & Jerry <Summer>"`)
	assert.Contains(t, string(data), "\n  \"correlation_id\"")

	var decoded models.CampaignResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result.Summary, decoded.Summary)
}

func TestDecimal(t *testing.T) {
	assert.Equal(t, "0.0", decimal(0))
	assert.Equal(t, "12.34", decimal(12.34))
	assert.Equal(t, "85.5", decimal(85.5))
}
