package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"creative-pipeline/internal/models"
	"creative-pipeline/shared/config"
	"creative-pipeline/shared/httpretry"
)

const maxImageBytes = 20 << 20

// OpenAIProvider calls the OpenAI images API and downloads the result.
type OpenAIProvider struct {
	endpoint string
	model    string
	quality  string
	apiKey   string
	client   httpretry.Doer
}

func NewOpenAIProvider(cfg config.OpenAIConfig, client httpretry.Doer) *OpenAIProvider {
	if client == nil {
		client = httpretry.New(nil, 2, nil)
	}
	return &OpenAIProvider{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		quality:  cfg.Quality,
		apiKey:   cfg.APIKey,
		client:   client,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

type imagesResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, spec models.AspectRatioSpec) ([]byte, error) {
	if p.apiKey == "" || p.endpoint == "" || p.model == "" {
		return nil, errors.New("openai provider misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":   p.model,
		"prompt":  prompt,
		"n":       1,
		"size":    openAISize(spec),
		"quality": p.quality,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal openai payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("openai error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed imagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, errors.New("openai returned no image")
	}

	item := parsed.Data[0]
	if item.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode openai image: %w", err)
		}
		return data, nil
	}
	if item.URL == "" {
		return nil, errors.New("openai returned no image")
	}
	return p.download(ctx, item.URL)
}

func (p *OpenAIProvider) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new download request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

// openAISize picks the closest size DALL-E 3 supports.
func openAISize(spec models.AspectRatioSpec) string {
	switch spec.Bucket() {
	case "landscape":
		return "1792x1024"
	case "portrait":
		return "1024x1792"
	default:
		return "1024x1024"
	}
}
