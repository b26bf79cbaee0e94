// Package campaignpipeline turns campaign briefs into finished, scored
// creatives. Processor handles one brief end to end; Agent runs it against
// an inbox on a schedule.
package campaignpipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"creative-pipeline/agents/campaign-pipeline/assets"
	"creative-pipeline/agents/campaign-pipeline/compliance"
	"creative-pipeline/internal/models"
	"creative-pipeline/shared/ai"
	"creative-pipeline/shared/config"
	"creative-pipeline/shared/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const timeLayout = "2006-01-02 15:04:05"

type assetGenerator interface {
	Aspects() []models.AspectRatioSpec
	GenerateCampaignAssets(ctx context.Context, brief *models.CampaignBrief) map[string]map[string]models.AssetResult
}

type complianceChecker interface {
	Check(assetPath string, brief *models.CampaignBrief, product models.Product) *models.ComplianceResult
}

// Processor runs the validate, preprocess, generate, score and aggregate
// steps for a single campaign. Calls are sequential; only the lifetime
// metrics are shared with other goroutines.
type Processor struct {
	config    *config.Config
	generator assetGenerator
	checker   complianceChecker
	metrics   *monitoring.ProcessingMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// New wires a Processor from configuration and primes the static fallback
// store for the demo products.
func New(ctx context.Context, cfg *config.Config, metrics *monitoring.ProcessingMetrics, logger *zap.Logger) (*Processor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	providers, err := ai.NewProviders(ctx, &cfg.AIProviders, logger.Named("ai"))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI providers: %w", err)
	}

	checker, err := compliance.NewChecker(cfg, logger.Named("compliance"))
	if err != nil {
		return nil, fmt.Errorf("failed to create compliance checker: %w", err)
	}

	generator := assets.NewGenerator(cfg, providers, logger.Named("assets"))
	if _, err := generator.PrimeFallbacks(); err != nil {
		logger.Warn("Failed to prime fallback assets", zap.Error(err))
	}
	return NewProcessor(cfg, generator, checker, metrics, logger), nil
}

func NewProcessor(cfg *config.Config, generator assetGenerator, checker complianceChecker, metrics *monitoring.ProcessingMetrics, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.NewProcessingMetrics()
	}
	return &Processor{
		config:    cfg,
		generator: generator,
		checker:   checker,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// NewCorrelationID returns an id of the form cam_1a2b3c4d.
func NewCorrelationID() string {
	return "cam_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ProcessCampaign never returns nil and never panics: every failure is
// reported through the result's status and error fields.
func (p *Processor) ProcessCampaign(ctx context.Context, brief *models.CampaignBrief, correlationID string) *models.CampaignResult {
	if correlationID == "" {
		correlationID = NewCorrelationID()
	}

	start := p.now()
	result := &models.CampaignResult{
		CorrelationID:     correlationID,
		CampaignName:      "Unknown",
		ProcessingStatus:  models.StatusInProgress,
		StartTime:         start.Format(timeLayout),
		Assets:            make(map[string]map[string]models.AssetResult),
		ComplianceResults: make(map[string]map[string]*models.ComplianceResult),
		Recommendations:   []string{},
	}
	if brief != nil && brief.CampaignName != "" {
		result.CampaignName = brief.CampaignName
	}

	log := p.logger.With(zap.String("correlation_id", correlationID))
	log.Info("Starting campaign processing", zap.String("campaign", result.CampaignName))

	region, aggregated, err := p.run(ctx, brief, result, log)
	if err != nil {
		log.Error("Campaign processing failed", zap.Error(err))
		result.ProcessingStatus = models.StatusFailed
		result.Error = err.Error()
	}

	elapsed := p.now().Sub(start)
	result.ProcessingTime = roundTo(elapsed.Seconds(), 2)
	result.EndTime = p.now().Format(timeLayout)

	if aggregated {
		result.StrategicRecommendations = strategicRecommendations(result.Summary, region, result.ProcessingTime)
	}

	p.metrics.Record(elapsed, result.Summary.AssetsGenerated, result.Summary.ComplianceFailed)

	log.Info("Campaign processing completed",
		zap.String("status", string(result.ProcessingStatus)),
		zap.Float64("seconds", result.ProcessingTime))
	return result
}

// run returns the brief's original target region and whether aggregation
// finished, which gates the strategic recommendations.
func (p *Processor) run(ctx context.Context, brief *models.CampaignBrief, result *models.CampaignResult, log *zap.Logger) (region string, aggregated bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			aggregated = false
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	if verr := Validate(brief); verr != nil {
		return "", false, &briefError{cause: verr}
	}
	if err := ctx.Err(); err != nil {
		return brief.TargetRegion, false, err
	}

	processed := p.preprocess(brief, log)

	log.Info("Generating assets", zap.Int("products", len(processed.Products)))
	generated := p.generator.GenerateCampaignAssets(ctx, processed)

	var scores []float64
	seen := make(map[string]bool, len(processed.Products))
	for _, product := range processed.Products {
		if seen[product.Name] {
			continue
		}
		seen[product.Name] = true
		scores = append(scores, p.aggregateProduct(processed, product, generated[product.Name], result, log)...)
	}

	if len(scores) > 0 {
		var total float64
		for _, s := range scores {
			total += s
		}
		result.Summary.OverallComplianceScore = roundTo(total/float64(len(scores)), 1)
	}

	switch {
	case result.Summary.AssetsGenerated == 0:
		result.ProcessingStatus = models.StatusFailed
		result.Error = "No assets were generated successfully"
	case result.Summary.ComplianceFailed > result.Summary.CompliancePassed:
		result.ProcessingStatus = models.StatusCompletedWithIssues
	default:
		result.ProcessingStatus = models.StatusCompletedSuccessfully
	}

	return brief.TargetRegion, true, nil
}

func (p *Processor) aggregateProduct(brief *models.CampaignBrief, product models.Product, generated map[string]models.AssetResult, result *models.CampaignResult, log *zap.Logger) []float64 {
	assetsByAspect := make(map[string]models.AssetResult)
	complianceByAspect := make(map[string]*models.ComplianceResult)
	result.Assets[product.Name] = assetsByAspect
	result.ComplianceResults[product.Name] = complianceByAspect

	var scores []float64
	for _, spec := range p.generator.Aspects() {
		result.Summary.TotalAssetsRequested++

		asset, ok := generated[spec.Key]
		if !ok {
			asset = models.AssetResult{Status: models.AssetFailed, AspectRatio: spec.Ratio, Error: "asset was not produced"}
		}
		assetsByAspect[spec.Key] = asset

		assetLog := log.With(zap.String("product", product.Name), zap.String("aspect", spec.Key))
		if !asset.Succeeded() {
			result.Summary.AssetsFailed++
			assetLog.Error("Asset generation failed", zap.String("error", asset.Error))
			continue
		}
		result.Summary.AssetsGenerated++

		verdict := p.checker.Check(asset.Path, brief, product)
		complianceByAspect[spec.Key] = verdict
		scores = append(scores, verdict.OverallScore)

		if verdict.Passed {
			result.Summary.CompliancePassed++
			assetLog.Info("Compliance passed", zap.Float64("score", verdict.OverallScore))
		} else {
			result.Summary.ComplianceFailed++
			assetLog.Warn("Compliance failed", zap.Float64("score", verdict.OverallScore))
		}
		result.Recommendations = append(result.Recommendations, verdict.Recommendations...)
	}
	return scores
}

// preprocess works on a copy so the caller's brief is left untouched.
func (p *Processor) preprocess(brief *models.CampaignBrief, log *zap.Logger) *models.CampaignBrief {
	processed := brief.Clone()

	if rc, ok := p.config.Region(brief.TargetRegion); ok {
		region := models.NormalizeRegion(brief.TargetRegion)
		if processed.BrandGuidelines == nil {
			processed.BrandGuidelines = &models.BrandGuidelines{}
		}
		processed.BrandGuidelines.CulturalAdaptation = &models.CulturalAdaptation{
			Region:           region,
			CulturalKeywords: append([]string{}, rc.CulturalKeywords...),
			Language:         valueOr(rc.Language, "en"),
			TextDirection:    valueOr(rc.TextDirection, "ltr"),
		}
		log.Info("Applied cultural adaptation", zap.String("region", region))
	}

	if len(strings.Fields(processed.CampaignMessage)) < 3 {
		if enhanced := enhanceMessage(processed.CampaignMessage, processed.TargetAudience); enhanced != processed.CampaignMessage {
			processed.CampaignMessage = enhanced
			log.Info("Enhanced campaign message", zap.String("message", enhanced))
		}
	}

	return processed
}

var audienceSuffixes = []struct {
	audience string
	suffix   string
}{
	{"young professionals", "Elevate your professional life"},
	{"families", "Perfect for the whole family"},
	{"students", "Smart choice for students"},
	{"seniors", "Trusted quality for life's experiences"},
}

func enhanceMessage(message, audience string) string {
	audience = strings.ToLower(audience)
	for _, s := range audienceSuffixes {
		if strings.Contains(audience, s.audience) {
			return message + " - " + s.suffix
		}
	}
	return message
}

// Metrics returns the lifetime processing counters.
func (p *Processor) Metrics() monitoring.MetricsSnapshot {
	return p.metrics.Snapshot()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
