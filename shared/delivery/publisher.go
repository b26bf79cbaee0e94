// Package delivery publishes finished campaign files to external storage.
package delivery

import (
	"context"
	"fmt"

	"creative-pipeline/shared/config"

	"go.uber.org/zap"
)

// Publisher uploads one local file belonging to a campaign and returns
// where it can be found.
type Publisher interface {
	Name() string
	PublishFile(ctx context.Context, campaign, path string) (string, error)
}

// New builds the configured publisher, or nil when delivery is disabled.
func New(ctx context.Context, cfg *config.DeliveryConfig, logger *zap.Logger) (Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "s3":
		p, err := NewS3Publisher(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "drive":
		p, err := NewDrivePublisher(ctx, cfg.Drive, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown delivery backend %q", cfg.Backend)
	}
}

// Result records the outcome for one file.
type Result struct {
	Path     string `json:"path"`
	Location string `json:"location,omitempty"`
	Error    string `json:"error,omitempty"`
}

// PublishAll uploads every file, continuing past individual failures.
func PublishAll(ctx context.Context, p Publisher, campaign string, paths []string, logger *zap.Logger) []Result {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		location, err := p.PublishFile(ctx, campaign, path)
		if err != nil {
			logger.Warn("Failed to publish file", zap.String("publisher", p.Name()), zap.String("path", path), zap.Error(err))
			results = append(results, Result{Path: path, Error: err.Error()})
			continue
		}
		logger.Info("Published file", zap.String("publisher", p.Name()), zap.String("location", location))
		results = append(results, Result{Path: path, Location: location})
	}
	return results
}
