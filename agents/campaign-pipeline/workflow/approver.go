package workflow

import (
	"context"
	"fmt"
	"sort"

	"creative-pipeline/internal/models"

	"go.uber.org/zap"
)

const (
	RoleCreativeDirector = "Creative Director"
	RoleCampaignManager  = "Campaign Manager"
)

// Approver simulates the approval chain. Every request is approved;
// notification failures are logged and do not block approval.
type Approver struct {
	notifier Notifier
	logger   *zap.Logger
}

func NewApprover(notifier Notifier, logger *zap.Logger) *Approver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Approver{notifier: notifier, logger: logger}
}

// Approve signs off the visuals for one product.
func (a *Approver) Approve(ctx context.Context, product string) bool {
	a.notify(ctx, RoleCreativeDirector, fmt.Sprintf("Approved visuals for %s", product))
	return true
}

// ApproveCampaign approves every product with at least one successful asset
// and tells the campaign manager how the run finished.
func (a *Approver) ApproveCampaign(ctx context.Context, result *models.CampaignResult) map[string]bool {
	products := make([]string, 0, len(result.Assets))
	for product := range result.Assets {
		products = append(products, product)
	}
	sort.Strings(products)

	approved := make(map[string]bool)
	for _, product := range products {
		for _, asset := range result.Assets[product] {
			if asset.Succeeded() {
				approved[product] = a.Approve(ctx, product)
				break
			}
		}
	}

	a.notify(ctx, RoleCampaignManager, fmt.Sprintf("Campaign %s finished with status %s: %d/%d assets generated, compliance score %.1f",
		result.CampaignName, result.ProcessingStatus, result.Summary.AssetsGenerated,
		result.Summary.TotalAssetsRequested, result.Summary.OverallComplianceScore))

	return approved
}

func (a *Approver) notify(ctx context.Context, role, message string) {
	if err := a.notifier.Notify(ctx, role, message); err != nil {
		a.logger.Warn("Notification failed", zap.String("role", role), zap.Error(err))
	}
}
