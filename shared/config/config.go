package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"creative-pipeline/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AIProviders        AIProvidersConfig        `yaml:"ai_providers"`
	Directories        DirectoriesConfig        `yaml:"directories"`
	AspectRatios       []models.AspectRatioSpec `yaml:"aspect_ratios"`
	BrandCompliance    BrandComplianceConfig    `yaml:"brand_compliance"`
	CulturalAdaptation CulturalAdaptationConfig `yaml:"cultural_adaptation"`
	Fallback           FallbackConfig           `yaml:"fallback"`
	Notifications      NotificationsConfig      `yaml:"notifications"`
	Email              EmailConfig              `yaml:"email"`
	Delivery           DeliveryConfig           `yaml:"delivery"`
	Watch              WatchConfig              `yaml:"watch"`
	Monitoring         MonitoringConfig         `yaml:"monitoring"`
	Logging            LoggingConfig            `yaml:"logging"`
}

type AIProvidersConfig struct {
	// Order lists provider names in the order they are tried.
	Order   []string      `yaml:"order"`
	Timeout time.Duration `yaml:"timeout"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Gemini  GeminiConfig  `yaml:"gemini"`
}

type OpenAIConfig struct {
	Enabled  bool   `yaml:"enabled"`
	APIKey   string `yaml:"api_key" env:"OPENAI_API_KEY"`
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	Quality  string `yaml:"quality"`
}

type GeminiConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model   string `yaml:"model"`
}

type DirectoriesConfig struct {
	Cache           string `yaml:"cache"`
	Fallback        string `yaml:"fallback"`
	Output          string `yaml:"output"`
	SampleCampaigns string `yaml:"sample_campaigns"`
}

type BrandComplianceConfig struct {
	// MinimumScore is a pointer so an explicit 0 survives defaulting.
	MinimumScore *float64     `yaml:"minimum_score"`
	Weights      ScoreWeights `yaml:"weights"`
	// Rules are appended to the built-in rule table.
	Rules []RuleConfig `yaml:"rules"`
}

type ScoreWeights struct {
	Visual    float64 `yaml:"visual"`
	Content   float64 `yaml:"content"`
	Cultural  float64 `yaml:"cultural"`
	Technical float64 `yaml:"technical"`
}

const defaultMinimumScore = 85

// PassScore is the overall score an asset needs to pass compliance.
func (b BrandComplianceConfig) PassScore() float64 {
	if b.MinimumScore == nil {
		return defaultMinimumScore
	}
	return *b.MinimumScore
}

func (w ScoreWeights) sum() float64 {
	return w.Visual + w.Content + w.Cultural + w.Technical
}

// RuleConfig describes one text rule. Scope is "content" or "cultural";
// an empty Region makes a cultural rule apply everywhere.
type RuleConfig struct {
	Scope          string  `yaml:"scope"`
	Region         string  `yaml:"region"`
	Pattern        string  `yaml:"pattern"`
	Penalty        float64 `yaml:"penalty"`
	Message        string  `yaml:"message"`
	Recommendation string  `yaml:"recommendation"`
}

type CulturalAdaptationConfig struct {
	Regions map[string]RegionConfig `yaml:"regions"`
}

type RegionConfig struct {
	CulturalKeywords []string `yaml:"cultural_keywords"`
	Language         string   `yaml:"language"`
	TextDirection    string   `yaml:"text_direction"`
}

type FallbackConfig struct {
	DemoProducts []string `yaml:"demo_products"`
}

type NotificationsConfig struct {
	// Backend is one of "log", "email" or "telegram".
	Backend  string         `yaml:"backend"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	APIURL   string `yaml:"api_url"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type DeliveryConfig struct {
	// Backend is one of "none", "s3" or "drive".
	Backend string      `yaml:"backend"`
	S3      S3Config    `yaml:"s3"`
	Drive   DriveConfig `yaml:"drive"`
}

type S3Config struct {
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
}

type DriveConfig struct {
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string `yaml:"token_file"`
	FolderID     string `yaml:"folder_id"`
}

type WatchConfig struct {
	Inbox     string        `yaml:"inbox"`
	Schedule  string        `yaml:"schedule"`
	StateDir  string        `yaml:"state_dir"`
	Retention time.Duration `yaml:"retention"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the file named by CONFIG_FILE (default config.yml) after loading
// a .env file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yml"
	}
	return LoadFile(configFile)
}

// LoadFile reads and validates a configuration file. ${VAR} values are
// replaced from the environment before decoding.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes, defaults and validates raw YAML configuration.
func Parse(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	substituteEnv(&root)

	var cfg Config
	if len(root.Content) > 0 {
		if err := root.Decode(&cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvFallbacks()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file provides a value.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// AspectRatio looks up an aspect ratio by key.
func (c *Config) AspectRatio(key string) (models.AspectRatioSpec, bool) {
	for _, a := range c.AspectRatios {
		if a.Key == key {
			return a, true
		}
	}
	return models.AspectRatioSpec{}, false
}

// Region returns the cultural profile for a region, normalising its name.
func (c *Config) Region(name string) (RegionConfig, bool) {
	r, ok := c.CulturalAdaptation.Regions[models.NormalizeRegion(name)]
	return r, ok
}

func substituteEnv(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && strings.HasPrefix(n.Value, "${") && strings.HasSuffix(n.Value, "}") {
		if v, ok := os.LookupEnv(n.Value[2 : len(n.Value)-1]); ok {
			n.Value = v
		}
		return
	}
	for _, child := range n.Content {
		substituteEnv(child)
	}
}

func (c *Config) applyEnvFallbacks() {
	fallback := func(dst *string, env string) {
		if *dst == "" || strings.HasPrefix(*dst, "${") {
			*dst = os.Getenv(env)
		}
	}
	fallback(&c.AIProviders.OpenAI.APIKey, "OPENAI_API_KEY")
	fallback(&c.AIProviders.Gemini.APIKey, "GEMINI_API_KEY")
	fallback(&c.Email.Username, "EMAIL_USERNAME")
	fallback(&c.Email.Password, "EMAIL_PASSWORD")
	fallback(&c.Notifications.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	fallback(&c.Notifications.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	fallback(&c.Delivery.Drive.ClientID, "GOOGLE_CLIENT_ID")
	fallback(&c.Delivery.Drive.ClientSecret, "GOOGLE_CLIENT_SECRET")
}

func (c *Config) applyDefaults() {
	if len(c.AIProviders.Order) == 0 {
		c.AIProviders.Order = []string{"openai", "gemini"}
	}
	if c.AIProviders.Timeout == 0 {
		c.AIProviders.Timeout = 60 * time.Second
	}
	if c.AIProviders.OpenAI.Endpoint == "" {
		c.AIProviders.OpenAI.Endpoint = "https://api.openai.com/v1/images/generations"
	}
	if c.AIProviders.OpenAI.Model == "" {
		c.AIProviders.OpenAI.Model = "dall-e-3"
	}
	if c.AIProviders.OpenAI.Quality == "" {
		c.AIProviders.OpenAI.Quality = "standard"
	}
	if c.AIProviders.Gemini.Model == "" {
		c.AIProviders.Gemini.Model = "imagen-3.0-generate-002"
	}

	if c.Directories.Cache == "" {
		c.Directories.Cache = "assets/cache"
	}
	if c.Directories.Fallback == "" {
		c.Directories.Fallback = "assets/fallback"
	}
	if c.Directories.Output == "" {
		c.Directories.Output = "output"
	}
	if c.Directories.SampleCampaigns == "" {
		c.Directories.SampleCampaigns = "data/sample_campaigns"
	}

	if len(c.AspectRatios) == 0 {
		c.AspectRatios = []models.AspectRatioSpec{
			{Key: "square", Width: 1080, Height: 1080, Ratio: 1.0},
			{Key: "story", Width: 1080, Height: 1920, Ratio: 0.5625},
			{Key: "landscape", Width: 1920, Height: 1080, Ratio: 1.777},
		}
	}
	for i := range c.AspectRatios {
		a := &c.AspectRatios[i]
		if a.Ratio == 0 && a.Height > 0 {
			a.Ratio = float64(a.Width) / float64(a.Height)
		}
	}

	if c.BrandCompliance.MinimumScore == nil {
		score := float64(defaultMinimumScore)
		c.BrandCompliance.MinimumScore = &score
	}
	if c.BrandCompliance.Weights == (ScoreWeights{}) {
		c.BrandCompliance.Weights = ScoreWeights{Visual: 0.30, Content: 0.30, Cultural: 0.25, Technical: 0.15}
	}

	if c.CulturalAdaptation.Regions == nil {
		c.CulturalAdaptation.Regions = map[string]RegionConfig{
			"japan": {
				CulturalKeywords: []string{"harmony", "quality", "tradition", "craftsmanship"},
				Language:         "ja",
				TextDirection:    "ltr",
			},
			"middle_east": {
				CulturalKeywords: []string{"family", "hospitality", "tradition", "celebration"},
				Language:         "ar",
				TextDirection:    "rtl",
			},
			"india": {
				CulturalKeywords: []string{"family", "celebration", "value", "festival"},
				Language:         "hi",
				TextDirection:    "ltr",
			},
		}
	}

	if len(c.Fallback.DemoProducts) == 0 {
		c.Fallback.DemoProducts = []string{"Coca Cola", "Nike Shoes", "iPhone"}
	}

	if c.Notifications.Backend == "" {
		c.Notifications.Backend = "log"
	}
	if c.Notifications.Telegram.APIURL == "" {
		c.Notifications.Telegram.APIURL = "https://api.telegram.org"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}

	if c.Delivery.Backend == "" {
		c.Delivery.Backend = "none"
	}
	if c.Delivery.S3.Region == "" {
		c.Delivery.S3.Region = "us-east-1"
	}
	if c.Delivery.Drive.TokenFile == "" {
		c.Delivery.Drive.TokenFile = "drive_token.json"
	}

	if c.Watch.Inbox == "" {
		c.Watch.Inbox = "data/inbox"
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "0 * * * * *" // every minute
	}
	if c.Watch.StateDir == "" {
		c.Watch.StateDir = "data"
	}
	if c.Watch.Retention == 0 {
		c.Watch.Retention = 30 * 24 * time.Hour
	}

	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) validate() error {
	if len(c.AspectRatios) == 0 {
		return fmt.Errorf("at least one aspect ratio is required")
	}
	seen := make(map[string]bool)
	for _, a := range c.AspectRatios {
		if a.Key == "" {
			return fmt.Errorf("aspect ratio key is required")
		}
		if seen[a.Key] {
			return fmt.Errorf("duplicate aspect ratio %q", a.Key)
		}
		seen[a.Key] = true
		if a.Width <= 0 || a.Height <= 0 {
			return fmt.Errorf("aspect ratio %q must have positive width and height", a.Key)
		}
	}
	if score := c.BrandCompliance.PassScore(); score < 0 || score > 100 {
		return fmt.Errorf("minimum compliance score must be between 0 and 100 (got %v)", score)
	}
	if math.Abs(c.BrandCompliance.Weights.sum()-1) > 1e-6 {
		return fmt.Errorf("compliance weights must sum to 1 (got %.3f)", c.BrandCompliance.Weights.sum())
	}
	for i, r := range c.BrandCompliance.Rules {
		if r.Scope != "content" && r.Scope != "cultural" {
			return fmt.Errorf("rule %d: scope must be content or cultural", i+1)
		}
		if r.Pattern == "" {
			return fmt.Errorf("rule %d: pattern is required", i+1)
		}
	}
	switch c.Notifications.Backend {
	case "log", "email", "telegram":
	default:
		return fmt.Errorf("unknown notifications backend %q", c.Notifications.Backend)
	}
	switch c.Delivery.Backend {
	case "none":
	case "s3":
		if c.Delivery.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 delivery (delivery.s3.bucket)")
		}
	case "drive":
		if c.Delivery.Drive.ClientID == "" || c.Delivery.Drive.ClientSecret == "" {
			return fmt.Errorf("Google client credentials are required for drive delivery (set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)")
		}
	default:
		return fmt.Errorf("unknown delivery backend %q", c.Delivery.Backend)
	}
	return nil
}
