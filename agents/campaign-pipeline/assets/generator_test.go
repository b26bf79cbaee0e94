package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"creative-pipeline/internal/models"
	"creative-pipeline/shared/ai"
	"creative-pipeline/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name  string
	data  []byte
	err   error
	block bool
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, prompt string, spec models.AspectRatioSpec) ([]byte, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.data, f.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.AspectRatios = []models.AspectRatioSpec{
		{Key: "square", Width: 120, Height: 120, Ratio: 1},
		{Key: "story", Width: 90, Height: 160, Ratio: 0.5625},
		{Key: "landscape", Width: 160, Height: 90, Ratio: 1.777},
	}
	cfg.Directories = config.DirectoriesConfig{
		Cache:    filepath.Join(root, "cache"),
		Fallback: filepath.Join(root, "fallback"),
		Output:   filepath.Join(root, "output"),
	}
	cfg.Fallback.DemoProducts = []string{"Nike Shoes"}
	cfg.AIProviders.Timeout = time.Second
	return cfg
}

// block turns dir into a regular file so nothing can be written below it.
func block(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0644))
}

func testBrief() *models.CampaignBrief {
	return &models.CampaignBrief{
		CampaignName:    "Summer Launch",
		Products:        []models.Product{{Name: "Nike Shoes"}, {Name: "Coca Cola"}},
		TargetRegion:    "japan",
		TargetAudience:  "students",
		CampaignMessage: "Step into summer with comfort built for every journey",
	}
}

func assertDimensions(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, w, cfg.Width)
	assert.Equal(t, h, cfg.Height)
}

func TestAcquireUsesProvider(t *testing.T) {
	cfg := testConfig(t)
	p := &fakeProvider{name: "openai", data: pngBytes(t, 64, 64)}
	g := NewGenerator(cfg, []ai.Provider{p}, nil)

	brief := testBrief()
	result := g.Acquire(context.Background(), brief, brief.Products[0], "story")

	require.True(t, result.Succeeded(), result.Error)
	assert.Equal(t, "openai", result.Provider)
	assert.Equal(t, 0.5625, result.AspectRatio)
	assert.Equal(t, filepath.Join(cfg.Directories.Output, "Summer_Launch", "Nike_Shoes_story_final.png"), result.Path)
	assert.FileExists(t, filepath.Join(cfg.Directories.Cache, "openai_Nike_Shoes_story.png"))
	assertDimensions(t, result.Path, 90, 160)
}

func TestAcquireFallsThroughFailingProviders(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
	}{
		{"Provider error", &fakeProvider{name: "openai", err: errors.New("quota exceeded")}},
		{"Undecodable bytes", &fakeProvider{name: "openai", data: []byte("not an image")}},
		{"Provider timeout", &fakeProvider{name: "gemini", block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.AIProviders.Timeout = 20 * time.Millisecond
			g := NewGenerator(cfg, []ai.Provider{tt.provider}, nil)

			brief := testBrief()
			result := g.Acquire(context.Background(), brief, brief.Products[0], "landscape")

			require.True(t, result.Succeeded(), result.Error)
			assert.Equal(t, TierProcedural, result.Provider)
			assert.Equal(t, 1, tt.provider.calls)
			assert.FileExists(t, filepath.Join(cfg.Directories.Cache, "procedural_Nike_Shoes_landscape.png"))
			assertDimensions(t, result.Path, 160, 90)
		})
	}
}

func TestAcquireTriesProvidersInOrder(t *testing.T) {
	cfg := testConfig(t)
	first := &fakeProvider{name: "openai", err: errors.New("down")}
	second := &fakeProvider{name: "gemini", data: pngBytes(t, 32, 32)}
	g := NewGenerator(cfg, []ai.Provider{first, second}, nil)

	brief := testBrief()
	result := g.Acquire(context.Background(), brief, brief.Products[0], "square")

	assert.Equal(t, "gemini", result.Provider)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestAcquireUsesStaticFallback(t *testing.T) {
	cfg := testConfig(t)
	g := NewGenerator(cfg, nil, nil)
	_, err := g.PrimeFallbacks()
	require.NoError(t, err)
	block(t, cfg.Directories.Cache)

	brief := testBrief()
	result := g.Acquire(context.Background(), brief, brief.Products[0], "square")

	require.True(t, result.Succeeded(), result.Error)
	assert.Equal(t, TierFallback, result.Provider)
	assertDimensions(t, result.Path, 120, 120)
}

func TestAcquireEmergency(t *testing.T) {
	cfg := testConfig(t)
	block(t, cfg.Directories.Cache)
	g := NewGenerator(cfg, nil, nil)

	brief := testBrief()
	result := g.Acquire(context.Background(), brief, brief.Products[1], "story")

	require.True(t, result.Succeeded(), result.Error)
	assert.Equal(t, TierEmergency, result.Provider)
	assert.FileExists(t, filepath.Join(cfg.Directories.Fallback, "emergency_Coca_Cola_story.png"))
	assertDimensions(t, result.Path, 90, 160)
}

func TestAcquireFailsWhenNothingIsWritable(t *testing.T) {
	cfg := testConfig(t)
	block(t, cfg.Directories.Cache)
	block(t, cfg.Directories.Fallback)
	g := NewGenerator(cfg, nil, nil)

	brief := testBrief()
	result := g.Acquire(context.Background(), brief, brief.Products[0], "square")

	assert.Equal(t, models.AssetFailed, result.Status)
	assert.Empty(t, result.Path)
	assert.Contains(t, result.Error, "emergency placeholder")
}

func TestAcquireKeepsBaseImageWhenOverlayFails(t *testing.T) {
	cfg := testConfig(t)
	block(t, cfg.Directories.Output)
	g := NewGenerator(cfg, nil, nil)

	brief := testBrief()
	result := g.Acquire(context.Background(), brief, brief.Products[0], "square")

	require.True(t, result.Succeeded())
	assert.Equal(t, filepath.Join(cfg.Directories.Cache, "procedural_Nike_Shoes_square.png"), result.Path)
}

func TestAcquireUnknownAspect(t *testing.T) {
	g := NewGenerator(testConfig(t), nil, nil)
	brief := testBrief()
	result := g.Acquire(context.Background(), brief, brief.Products[0], "billboard")
	assert.Equal(t, models.AssetFailed, result.Status)
}

func TestGenerateCampaignAssets(t *testing.T) {
	cfg := testConfig(t)
	g := NewGenerator(cfg, nil, nil)

	assets := g.GenerateCampaignAssets(context.Background(), testBrief())
	require.Len(t, assets, 2)

	for product, byAspect := range assets {
		require.Len(t, byAspect, 3, product)
		for _, spec := range cfg.AspectRatios {
			result := byAspect[spec.Key]
			require.True(t, result.Succeeded(), "%s/%s: %s", product, spec.Key, result.Error)
			assertDimensions(t, result.Path, spec.Width, spec.Height)
		}
	}
}

func TestPrimeFallbacks(t *testing.T) {
	cfg := testConfig(t)
	g := NewGenerator(cfg, nil, nil)

	created, err := g.PrimeFallbacks()
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assertDimensions(t, filepath.Join(cfg.Directories.Fallback, "fallback_Nike_Shoes_landscape.png"), 160, 90)

	created, err = g.PrimeFallbacks()
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestBottomOffset(t *testing.T) {
	assert.Equal(t, 200, bottomOffset(models.AspectRatioSpec{Width: 1080, Height: 1920}))
	assert.Equal(t, 120, bottomOffset(models.AspectRatioSpec{Width: 1920, Height: 1080}))
	assert.Equal(t, 150, bottomOffset(models.AspectRatioSpec{Width: 1080, Height: 1080}))
}

func TestWrapWords(t *testing.T) {
	// 7px per character at scale 1
	lines := wrapWords("Quality you can trust every day", 70, 1)
	assert.Equal(t, []string{"Quality", "you can", "trust", "every day"}, lines)

	assert.Equal(t, []string{"Supercalifragilistic"}, wrapWords("Supercalifragilistic", 20, 1))
	assert.Empty(t, wrapWords("   ", 100, 1))
}

func TestComposeDrawsMessage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	spec := models.AspectRatioSpec{Key: "square", Width: 400, Height: 400}

	plain := compose(src, spec, "")
	withText := compose(src, spec, "Hello")

	assert.Equal(t, spec.Width, withText.Bounds().Dx())
	assert.Equal(t, spec.Height, withText.Bounds().Dy())
	assert.NotEqual(t, plain.Pix, withText.Pix)
}
