package ai

import (
	"context"
	"errors"
	"fmt"

	"creative-pipeline/internal/models"
	"creative-pipeline/shared/config"

	"google.golang.org/genai"
)

// ImagenProvider generates images through the Gemini API.
type ImagenProvider struct {
	client *genai.Client
	model  string
}

func NewImagenProvider(ctx context.Context, cfg config.GeminiConfig) (*ImagenProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &ImagenProvider{
		client: client,
		model:  cfg.Model,
	}, nil
}

func (p *ImagenProvider) Name() string {
	return "gemini"
}

func (p *ImagenProvider) Generate(ctx context.Context, prompt string, spec models.AspectRatioSpec) ([]byte, error) {
	resp, err := p.client.Models.GenerateImages(ctx, p.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    imagenAspect(spec),
		OutputMIMEType: "image/png",
	})
	if err != nil {
		return nil, fmt.Errorf("imagen request failed: %w", err)
	}

	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			continue
		}
		return generated.Image.ImageBytes, nil
	}
	return nil, errors.New("imagen returned no image")
}

// imagenAspect maps a pixel size onto one of the aspect ratios Imagen accepts.
func imagenAspect(spec models.AspectRatioSpec) string {
	switch spec.Bucket() {
	case "landscape":
		return "16:9"
	case "portrait":
		return "9:16"
	default:
		return "1:1"
	}
}
