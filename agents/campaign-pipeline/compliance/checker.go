// Package compliance scores finished creatives against heuristic brand
// rules: visual quality, message content, cultural sensitivity and
// technical fitness.
package compliance

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	_ "image/jpeg"
	_ "image/png"

	"creative-pipeline/internal/models"
	"creative-pipeline/shared/config"

	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

const (
	visualBaseline    = 85
	contentBaseline   = 90
	culturalBaseline  = 95
	technicalBaseline = 100

	minWidth        = 800
	minHeight       = 600
	ratioTolerance  = 0.05
	maxFileSize     = 5 * 1024 * 1024
	maxMessageRunes = 100
	minMessageRunes = 10
)

// Checker scores assets. It is safe for concurrent use.
type Checker struct {
	config *config.Config
	rules  []Rule
	logger *zap.Logger
}

func NewChecker(cfg *config.Config, logger *zap.Logger) (*Checker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rules, err := BuildRules(cfg.BrandCompliance.Rules)
	if err != nil {
		return nil, fmt.Errorf("failed to build compliance rules: %w", err)
	}
	return &Checker{
		config: cfg,
		rules:  rules,
		logger: logger,
	}, nil
}

// Check scores one asset. It never fails: unreadable files lower the
// affected sub-scores and internal faults yield an overall score of 0.
func (c *Checker) Check(assetPath string, brief *models.CampaignBrief, product models.Product) (result *models.ComplianceResult) {
	result = &models.ComplianceResult{
		Checks: models.ComplianceChecks{
			Visual:    models.NewCheckResult(0),
			Content:   models.NewCheckResult(0),
			Cultural:  models.NewCheckResult(0),
			Technical: models.NewCheckResult(0),
		},
		Issues:          []string{},
		Recommendations: []string{},
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Compliance check failed", zap.Any("panic", r), zap.String("asset", assetPath))
			result.OverallScore = 0
			result.Passed = false
			result.Issues = append(result.Issues, fmt.Sprintf("Compliance check system error: %v", r))
		}
	}()

	file, err := readAsset(assetPath)

	result.Checks.Visual = c.checkVisual(file, err, brief)
	result.Checks.Content = c.checkContent(brief, product)
	result.Checks.Cultural = c.checkCultural(brief)
	result.Checks.Technical = c.checkTechnical(file, err)

	w := c.config.BrandCompliance.Weights
	overall := result.Checks.Visual.Score*w.Visual +
		result.Checks.Content.Score*w.Content +
		result.Checks.Cultural.Score*w.Cultural +
		result.Checks.Technical.Score*w.Technical

	result.OverallScore = round1(overall)
	result.Passed = overall >= c.config.BrandCompliance.PassScore()

	for _, check := range []models.CheckResult{result.Checks.Visual, result.Checks.Content, result.Checks.Cultural, result.Checks.Technical} {
		result.Issues = append(result.Issues, check.Issues...)
		result.Recommendations = append(result.Recommendations, check.Recommendations...)
	}

	c.logger.Debug("Compliance check completed",
		zap.String("asset", assetPath),
		zap.Float64("score", result.OverallScore),
		zap.Bool("passed", result.Passed))
	return result
}

type assetFile struct {
	data []byte
	size int64
}

var errAssetMissing = errors.New("asset missing")

func readAsset(path string) (*assetFile, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, errAssetMissing
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &assetFile{data: data, size: info.Size()}, nil
}

func (c *Checker) checkVisual(file *assetFile, readErr error, brief *models.CampaignBrief) models.CheckResult {
	result := models.NewCheckResult(visualBaseline)

	if errors.Is(readErr, errAssetMissing) {
		result.Score = 0
		result.Issues = append(result.Issues, "Asset file not found")
		return result
	}
	if readErr != nil {
		return visualFailure(result, readErr)
	}

	img, _, err := image.Decode(bytes.NewReader(file.data))
	if err != nil {
		return visualFailure(result, err)
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	if width < minWidth || height < minHeight {
		result.Score -= 10
		result.Issues = append(result.Issues, "Image resolution below recommended minimum")
		result.Recommendations = append(result.Recommendations, "Use higher resolution images for better quality")
	} else {
		result.ChecksPerformed = append(result.ChecksPerformed, "Resolution check passed")
	}

	if palette := brief.Palette(); len(palette) > 0 && !paletteCompatible(dominantColors(img, 3), palette) {
		result.Score -= 15
		result.Issues = append(result.Issues, "Generated colors don't align with brand palette")
		result.Recommendations = append(result.Recommendations, "Adjust prompt to specify brand colors")
	} else {
		result.ChecksPerformed = append(result.ChecksPerformed, "Color alignment acceptable")
	}

	if height == 0 {
		return visualFailure(result, errors.New("image has zero height"))
	}
	actual := float64(width) / float64(height)
	matched := ""
	for _, a := range c.config.AspectRatios {
		if a.Ratio > 0 && math.Abs(actual-a.Ratio)/a.Ratio <= ratioTolerance {
			matched = a.Key
			break
		}
	}
	if matched != "" {
		result.ChecksPerformed = append(result.ChecksPerformed, "Aspect ratio matches "+matched)
	} else {
		result.Score -= 10
		result.Issues = append(result.Issues, fmt.Sprintf("Aspect ratio %.3f doesn't match standard formats", actual))
	}

	result.Score = floor(result.Score)
	return result
}

func visualFailure(result models.CheckResult, err error) models.CheckResult {
	result.Score = 50
	result.Issues = append(result.Issues, "Visual analysis failed: "+err.Error())
	return result
}

func (c *Checker) checkContent(brief *models.CampaignBrief, product models.Product) models.CheckResult {
	result := models.NewCheckResult(contentBaseline)
	message := strings.ToLower(brief.CampaignMessage)

	c.applyRules(&result, ScopeContent, "", message)
	if len(result.Issues) == 0 {
		result.ChecksPerformed = append(result.ChecksPerformed, "Content screening passed")
	}

	switch n := utf8.RuneCountInString(message); {
	case n > maxMessageRunes:
		result.Score -= 5
		result.Issues = append(result.Issues, "Campaign message may be too long for social media")
		result.Recommendations = append(result.Recommendations, "Consider shortening message for better engagement")
	case n < minMessageRunes:
		result.Score -= 10
		result.Issues = append(result.Issues, "Campaign message is too short")
		result.Recommendations = append(result.Recommendations, "Provide more descriptive campaign message")
	default:
		result.ChecksPerformed = append(result.ChecksPerformed, "Message length appropriate")
	}

	if name := strings.ToLower(product.Name); name != "" && !strings.Contains(message, name) {
		result.Score -= 5
		result.Recommendations = append(result.Recommendations, fmt.Sprintf("Consider mentioning '%s' in campaign message", product.Name))
	}

	result.Score = floor(result.Score)
	return result
}

func (c *Checker) checkCultural(brief *models.CampaignBrief) models.CheckResult {
	result := models.NewCheckResult(culturalBaseline)
	region := models.NormalizeRegion(brief.TargetRegion)
	message := strings.ToLower(brief.CampaignMessage)

	c.applyRules(&result, ScopeCultural, region, message)
	if len(result.Issues) == 0 {
		result.ChecksPerformed = append(result.ChecksPerformed, "Cultural sensitivity screening passed")
	}

	if profile, ok := c.config.Region(brief.TargetRegion); ok && len(profile.CulturalKeywords) > 0 {
		found := false
		for _, k := range profile.CulturalKeywords {
			if strings.Contains(message, strings.ToLower(k)) {
				found = true
				break
			}
		}
		if !found {
			keywords := profile.CulturalKeywords[:min(3, len(profile.CulturalKeywords))]
			result.Recommendations = append(result.Recommendations,
				fmt.Sprintf("Consider incorporating %s cultural elements: %s", region, strings.Join(keywords, ", ")))
		}
	}

	result.Score = floor(result.Score)
	return result
}

func (c *Checker) checkTechnical(file *assetFile, readErr error) models.CheckResult {
	result := models.NewCheckResult(technicalBaseline)

	if errors.Is(readErr, errAssetMissing) {
		result.Score = 0
		result.Issues = append(result.Issues, "Asset file does not exist")
		return result
	}
	if readErr != nil {
		return technicalFailure(result, readErr)
	}

	if file.size > maxFileSize {
		result.Score -= 10
		result.Issues = append(result.Issues, fmt.Sprintf("File size (%.1fMB) exceeds social media limits", float64(file.size)/(1024*1024)))
		result.Recommendations = append(result.Recommendations, "Optimize image compression")
	} else {
		result.ChecksPerformed = append(result.ChecksPerformed, "File size appropriate")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(file.data))
	if err != nil {
		return technicalFailure(result, err)
	}

	if format != "png" && format != "jpeg" {
		result.Score -= 5
		result.Issues = append(result.Issues, fmt.Sprintf("Image format %s not optimal for web", strings.ToUpper(format)))
		result.Recommendations = append(result.Recommendations, "Use PNG or JPEG format")
	} else {
		result.ChecksPerformed = append(result.ChecksPerformed, "Image format acceptable")
	}

	if mode := colorModelName(cfg.ColorModel); mode != "RGB" && mode != "RGBA" {
		result.Score -= 10
		result.Issues = append(result.Issues, fmt.Sprintf("Color mode %s not suitable for digital display", mode))
		result.Recommendations = append(result.Recommendations, "Convert to RGB color mode")
	} else {
		result.ChecksPerformed = append(result.ChecksPerformed, "Color mode appropriate")
	}

	result.Score = floor(result.Score)
	return result
}

func technicalFailure(result models.CheckResult, err error) models.CheckResult {
	result.Score = 50
	result.Issues = append(result.Issues, "Technical validation failed: "+err.Error())
	return result
}

func (c *Checker) applyRules(result *models.CheckResult, scope, region, message string) {
	for _, rule := range c.rules {
		if !rule.applies(scope, region) {
			continue
		}
		for _, phrase := range rule.matches(message) {
			result.Score -= rule.Penalty
			result.Issues = append(result.Issues, fmt.Sprintf("%s: %s", rule.Message, phrase))
			result.Recommendations = append(result.Recommendations, rule.Recommendation)
		}
	}
}

func floor(score float64) float64 {
	return math.Max(score, 0)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
