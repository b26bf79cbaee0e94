package models

import "strings"

// CampaignBrief is the input describing one campaign
type CampaignBrief struct {
	CampaignName         string           `yaml:"campaign_name" json:"campaign_name"`
	Products             []Product        `yaml:"products" json:"products"`
	TargetRegion         string           `yaml:"target_region" json:"target_region"`
	TargetAudience       string           `yaml:"target_audience" json:"target_audience"`
	CampaignMessage      string           `yaml:"campaign_message" json:"campaign_message"`
	BrandGuidelines      *BrandGuidelines `yaml:"brand_guidelines,omitempty" json:"brand_guidelines,omitempty"`
	CulturalRequirements []string         `yaml:"cultural_requirements,omitempty" json:"cultural_requirements,omitempty"`
}

// Product is a single item to produce creatives for. Fields other than name
// are kept in Attributes and passed through untouched.
type Product struct {
	Name       string         `yaml:"name" json:"name"`
	Attributes map[string]any `yaml:",inline" json:"attributes,omitempty"`
}

// BrandGuidelines carries optional brand constraints
type BrandGuidelines struct {
	ColorPalette       []string            `yaml:"color_palette,omitempty" json:"color_palette,omitempty"`
	Notes              []string            `yaml:"notes,omitempty" json:"notes,omitempty"`
	CulturalAdaptation *CulturalAdaptation `yaml:"cultural_adaptation,omitempty" json:"cultural_adaptation,omitempty"`
}

// CulturalAdaptation is attached to the brand guidelines during preprocessing
// when the target region has a configured profile.
type CulturalAdaptation struct {
	Region           string   `yaml:"region" json:"region"`
	CulturalKeywords []string `yaml:"cultural_keywords" json:"cultural_keywords"`
	Language         string   `yaml:"language" json:"language"`
	TextDirection    string   `yaml:"text_direction" json:"text_direction"`
}

// Palette returns the brand colour palette, or nil when none is set.
func (b *CampaignBrief) Palette() []string {
	if b.BrandGuidelines == nil {
		return nil
	}
	return b.BrandGuidelines.ColorPalette
}

// Clone returns a shallow copy of the brief with its own brand guideline
// block, so callers may annotate the copy without touching the original.
func (b *CampaignBrief) Clone() *CampaignBrief {
	c := *b
	c.Products = append([]Product(nil), b.Products...)
	if b.BrandGuidelines != nil {
		bg := *b.BrandGuidelines
		bg.ColorPalette = append([]string(nil), b.BrandGuidelines.ColorPalette...)
		bg.Notes = append([]string(nil), b.BrandGuidelines.Notes...)
		if b.BrandGuidelines.CulturalAdaptation != nil {
			ca := *b.BrandGuidelines.CulturalAdaptation
			bg.CulturalAdaptation = &ca
		}
		c.BrandGuidelines = &bg
	}
	return &c
}

// NormalizeRegion turns "Middle East" into "middle_east".
func NormalizeRegion(region string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(region)), " ", "_")
}

// FileSafeName turns a product name into the form used in asset filenames.
func FileSafeName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}
