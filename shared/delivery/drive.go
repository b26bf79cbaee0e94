package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"creative-pipeline/internal/models"
	"creative-pipeline/shared/config"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DrivePublisher uploads files into a Google Drive folder.
type DrivePublisher struct {
	service  *drive.Service
	folderID string
}

func NewDrivePublisher(ctx context.Context, cfg config.DriveConfig, logger *zap.Logger) (*DrivePublisher, error) {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{drive.DriveFileScope},
		Endpoint:     google.Endpoint,
	}

	token, err := getToken(ctx, oauthConfig, cfg.TokenFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth token: %w", err)
	}

	tokenSource := &tokenSaver{
		config:    oauthConfig,
		token:     token,
		tokenFile: cfg.TokenFile,
		logger:    logger,
	}

	service, err := drive.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return &DrivePublisher{
		service:  service,
		folderID: cfg.FolderID,
	}, nil
}

func (p *DrivePublisher) Name() string {
	return "drive"
}

func (p *DrivePublisher) PublishFile(ctx context.Context, campaign, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	file := &drive.File{Name: driveName(campaign, path)}
	if p.folderID != "" {
		file.Parents = []string{p.folderID}
	}

	created, err := p.service.Files.Create(file).Media(f).Fields("id", "webViewLink").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload %s to drive: %w", file.Name, err)
	}
	if created.WebViewLink != "" {
		return created.WebViewLink, nil
	}
	return "drive://" + created.Id, nil
}

func driveName(campaign, path string) string {
	return models.FileSafeName(campaign) + "_" + filepath.Base(path)
}
