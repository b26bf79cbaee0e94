// Package ai wraps the external image generation services used as the
// primary asset tier.
package ai

import (
	"context"
	"fmt"
	"strings"

	"creative-pipeline/internal/models"
	"creative-pipeline/shared/config"
	"creative-pipeline/shared/httpretry"

	"go.uber.org/zap"
)

// Provider generates one image for a prompt at roughly the given aspect.
// The returned bytes are an encoded image in any format image.Decode
// understands.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, spec models.AspectRatioSpec) ([]byte, error)
}

// BuildPrompt renders the product photography prompt sent to providers.
func BuildPrompt(product, audience, region string) string {
	if strings.TrimSpace(region) == "" {
		region = "global"
	}
	if strings.TrimSpace(audience) == "" {
		audience = "consumers"
	}
	return fmt.Sprintf("Professional product photography of %s, for %s in %s, high quality, clean background, suitable for social media marketing",
		product, audience, region)
}

// NewProviders builds the enabled providers in configured order. Providers
// without credentials are skipped with a warning so the chain can still fall
// through to local tiers.
func NewProviders(ctx context.Context, cfg *config.AIProvidersConfig, logger *zap.Logger) ([]Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var providers []Provider
	for _, name := range cfg.Order {
		switch strings.ToLower(name) {
		case "openai":
			if !cfg.OpenAI.Enabled {
				continue
			}
			if cfg.OpenAI.APIKey == "" {
				logger.Warn("OpenAI provider enabled without API key, skipping")
				continue
			}
			client := httpretry.New(nil, 2, logger.Named("httpretry"))
			providers = append(providers, NewOpenAIProvider(cfg.OpenAI, client))
		case "gemini":
			if !cfg.Gemini.Enabled {
				continue
			}
			if cfg.Gemini.APIKey == "" {
				logger.Warn("Gemini provider enabled without API key, skipping")
				continue
			}
			p, err := NewImagenProvider(ctx, cfg.Gemini)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		default:
			return nil, fmt.Errorf("unknown AI provider %q", name)
		}
	}
	return providers, nil
}
