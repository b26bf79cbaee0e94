package config

import (
	"errors"
	"fmt"
	"os"

	"creative-pipeline/internal/models"

	"gopkg.in/yaml.v3"
)

// LoadBrief reads a campaign brief from a UTF-8 YAML file.
func LoadBrief(path string) (*models.CampaignBrief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("campaign brief not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read campaign brief %s: %w", path, err)
	}

	brief, err := ParseBrief(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse campaign brief %s: %w", path, err)
	}
	return brief, nil
}

// ParseBrief decodes a campaign brief from YAML.
func ParseBrief(data []byte) (*models.CampaignBrief, error) {
	var brief models.CampaignBrief
	if err := yaml.Unmarshal(data, &brief); err != nil {
		return nil, err
	}
	return &brief, nil
}
