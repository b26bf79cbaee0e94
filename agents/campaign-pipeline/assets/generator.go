// Package assets acquires one finished creative per product and aspect
// ratio. Acquisition walks a chain of tiers (external providers, a
// procedural placeholder, a static fallback and an emergency placeholder)
// and only fails when the last tier cannot write its file.
package assets

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"creative-pipeline/internal/models"
	"creative-pipeline/shared/ai"
	"creative-pipeline/shared/config"

	"go.uber.org/zap"
)

const (
	TierProcedural = "procedural"
	TierFallback   = "fallback"
	TierEmergency  = "emergency"
)

// Generator runs the acquisition chain.
type Generator struct {
	providers    []ai.Provider
	config       *config.Config
	dirs         config.DirectoriesConfig
	demoProducts []string
	timeout      time.Duration
	logger       *zap.Logger
}

func NewGenerator(cfg *config.Config, providers []ai.Provider, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		providers:    providers,
		config:       cfg,
		dirs:         cfg.Directories,
		demoProducts: cfg.Fallback.DemoProducts,
		timeout:      cfg.AIProviders.Timeout,
		logger:       logger,
	}
}

// Aspects returns the configured output formats in order.
func (g *Generator) Aspects() []models.AspectRatioSpec {
	return g.config.AspectRatios
}

// GenerateCampaignAssets acquires every product in every configured aspect.
func (g *Generator) GenerateCampaignAssets(ctx context.Context, brief *models.CampaignBrief) map[string]map[string]models.AssetResult {
	results := make(map[string]map[string]models.AssetResult, len(brief.Products))
	for _, product := range brief.Products {
		byAspect := make(map[string]models.AssetResult, len(g.Aspects()))
		for _, spec := range g.Aspects() {
			byAspect[spec.Key] = g.Acquire(ctx, brief, product, spec.Key)
		}
		results[product.Name] = byAspect
	}
	return results
}

// Acquire produces the final asset for one product in one aspect ratio.
func (g *Generator) Acquire(ctx context.Context, brief *models.CampaignBrief, product models.Product, aspectKey string) models.AssetResult {
	spec, ok := g.config.AspectRatio(aspectKey)
	if !ok {
		return models.AssetResult{
			Status: models.AssetFailed,
			Error:  fmt.Sprintf("unknown aspect ratio %q", aspectKey),
		}
	}

	log := g.logger.With(zap.String("product", product.Name), zap.String("aspect", spec.Key))

	basePath, tier, err := g.acquireBase(ctx, brief, product, spec, log)
	if err != nil {
		log.Error("All asset tiers failed", zap.Error(err))
		return models.AssetResult{
			Status:      models.AssetFailed,
			AspectRatio: spec.Ratio,
			Error:       err.Error(),
		}
	}

	finalPath := g.finalPath(brief, product, spec)
	if err := applyOverlay(basePath, finalPath, spec, brief.CampaignMessage); err != nil {
		log.Warn("Text overlay failed, using base image", zap.Error(err))
		finalPath = basePath
	}

	log.Info("Asset ready", zap.String("tier", tier), zap.String("path", finalPath))
	return models.AssetResult{
		Path:        finalPath,
		Status:      models.AssetSuccess,
		Provider:    tier,
		AspectRatio: spec.Ratio,
	}
}

func (g *Generator) acquireBase(ctx context.Context, brief *models.CampaignBrief, product models.Product, spec models.AspectRatioSpec, log *zap.Logger) (string, string, error) {
	prompt := ai.BuildPrompt(product.Name, brief.TargetAudience, brief.TargetRegion)

	for _, p := range g.providers {
		path, err := g.fromProvider(ctx, p, prompt, product, spec)
		if err == nil {
			return path, p.Name(), nil
		}
		log.Warn("Provider failed, falling through", zap.String("provider", p.Name()), zap.Error(err))
	}

	path := g.cachePath(TierProcedural, product, spec)
	err := savePNG(path, proceduralImage(spec, product.Name))
	if err == nil {
		return path, TierProcedural, nil
	}
	log.Warn("Procedural placeholder failed", zap.Error(err))

	path = g.fallbackPath("fallback", product.Name, spec)
	if fileExists(path) {
		return path, TierFallback, nil
	}

	path = g.fallbackPath("emergency", product.Name, spec)
	if err := savePNG(path, emergencyImage(spec, product.Name)); err != nil {
		return "", "", fmt.Errorf("emergency placeholder: %w", err)
	}
	return path, TierEmergency, nil
}

func (g *Generator) fromProvider(ctx context.Context, p ai.Provider, prompt string, product models.Product, spec models.AspectRatioSpec) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	data, err := p.Generate(ctx, prompt, spec)
	if err != nil {
		return "", err
	}

	img, err := decodeImage(data)
	if err != nil {
		return "", err
	}

	path := g.cachePath(p.Name(), product, spec)
	if err := savePNG(path, img); err != nil {
		return "", err
	}
	return path, nil
}

// PrimeFallbacks writes a static fallback for each demo product and aspect
// ratio that does not have one yet. It returns the number of files written.
func (g *Generator) PrimeFallbacks() (int, error) {
	created := 0
	for _, name := range g.demoProducts {
		for _, spec := range g.Aspects() {
			path := g.fallbackPath("fallback", name, spec)
			if fileExists(path) {
				continue
			}
			if err := savePNG(path, fallbackImage(spec, name)); err != nil {
				return created, fmt.Errorf("failed to write fallback for %s: %w", name, err)
			}
			created++
		}
	}
	g.logger.Info("Fallback assets primed", zap.Int("created", created))
	return created, nil
}

func (g *Generator) cachePath(tier string, product models.Product, spec models.AspectRatioSpec) string {
	return filepath.Join(g.dirs.Cache, fmt.Sprintf("%s_%s_%s.png", tier, models.FileSafeName(product.Name), spec.Key))
}

func (g *Generator) fallbackPath(kind, product string, spec models.AspectRatioSpec) string {
	return filepath.Join(g.dirs.Fallback, fmt.Sprintf("%s_%s_%s.png", kind, models.FileSafeName(product), spec.Key))
}

func (g *Generator) finalPath(brief *models.CampaignBrief, product models.Product, spec models.AspectRatioSpec) string {
	return filepath.Join(g.dirs.Output, models.FileSafeName(brief.CampaignName),
		fmt.Sprintf("%s_%s_final.png", models.FileSafeName(product.Name), spec.Key))
}
