package campaignpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"creative-pipeline/agents/campaign-pipeline/workflow"
	"creative-pipeline/internal/models"
	"creative-pipeline/shared/config"
	"creative-pipeline/shared/delivery"
	"creative-pipeline/shared/monitoring"
	"creative-pipeline/shared/scheduler"
	"creative-pipeline/shared/storage"

	"go.uber.org/zap"
)

// SweepMetrics summarises one pass over the inbox.
type SweepMetrics struct {
	Found           int
	Skipped         int
	Processed       int
	Failed          int
	Errors          int
	AssetsGenerated int
}

// GetSummary implements the scheduler.Metrics interface
func (m SweepMetrics) GetSummary() string {
	return fmt.Sprintf("%d briefs found, %d skipped, %d processed, %d failed, %d errors, %d assets",
		m.Found, m.Skipped, m.Processed, m.Failed, m.Errors, m.AssetsGenerated)
}

// Outcome is everything produced for one brief.
type Outcome struct {
	Result      *models.CampaignResult
	ResultsPath string
	Approvals   map[string]bool
	Deliveries  []delivery.Result
}

// Agent implements the scheduler.Agent interface. Each run sweeps the inbox
// and processes every brief it has not seen before.
type Agent struct {
	config    *config.Config
	processor *Processor
	approver  *workflow.Approver
	tracker   *storage.BriefTracker
	metrics   *monitoring.ProcessingMetrics
	logger    *zap.Logger

	// publisher stays nil when delivery is disabled; publisherReady records
	// that the backend has been resolved.
	publisher      delivery.Publisher
	publisherReady bool
}

func NewAgent(cfg *config.Config, metrics *monitoring.ProcessingMetrics, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.NewProcessingMetrics()
	}
	return &Agent{
		config:  cfg,
		metrics: metrics,
		logger:  logger,
	}
}

func (a *Agent) Name() string {
	return "Campaign Pipeline"
}

func (a *Agent) Initialize() error {
	a.logger.Info("Initializing agent", zap.String("agent", a.Name()))
	ctx := context.Background()

	if a.processor == nil {
		processor, err := New(ctx, a.config, a.metrics, a.logger.Named("processor"))
		if err != nil {
			return fmt.Errorf("failed to create campaign processor: %w", err)
		}
		a.processor = processor
	}

	if a.approver == nil {
		notifier, err := workflow.NewNotifier(a.config, a.logger.Named("notifier"))
		if err != nil {
			return fmt.Errorf("failed to create notifier: %w", err)
		}
		a.approver = workflow.NewApprover(notifier, a.logger.Named("approver"))
	}

	if !a.publisherReady && a.publisher == nil {
		publisher, err := delivery.New(ctx, &a.config.Delivery, a.logger.Named("delivery"))
		if err != nil {
			return fmt.Errorf("failed to create publisher: %w", err)
		}
		a.publisher = publisher
	}
	a.publisherReady = true

	if a.tracker == nil {
		tracker, err := storage.NewBriefTracker(a.config.Watch.StateDir, a.config.Watch.Retention)
		if err != nil {
			return fmt.Errorf("failed to create brief tracker: %w", err)
		}
		a.tracker = tracker
		a.logger.Info("Brief tracker initialized", zap.Int("tracked", tracker.Count()))
	}

	return nil
}

// Metrics returns the lifetime processing counters.
func (a *Agent) Metrics() monitoring.MetricsSnapshot {
	return a.metrics.Snapshot()
}

// ProcessBrief runs one campaign and handles everything downstream of it:
// results file, approvals and delivery. The outcome is never nil; the error
// reports a results file that could not be written.
func (a *Agent) ProcessBrief(ctx context.Context, brief *models.CampaignBrief, correlationID string) (*Outcome, error) {
	result := a.processor.ProcessCampaign(ctx, brief, correlationID)
	outcome := &Outcome{Result: result}
	log := a.logger.With(zap.String("correlation_id", result.CorrelationID))

	path, err := SaveResults(a.config.Directories.Output, result)
	if err != nil {
		log.Error("Failed to save campaign results", zap.Error(err))
		return outcome, err
	}
	outcome.ResultsPath = path

	outcome.Approvals = a.approver.ApproveCampaign(ctx, result)

	if a.publisher != nil {
		files := append(finalAssetPaths(result), path)
		outcome.Deliveries = delivery.PublishAll(ctx, a.publisher, result.CampaignName, files, log)
	}

	return outcome, nil
}

func (a *Agent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()

	briefs, err := listBriefs(a.config.Watch.Inbox)
	if err != nil {
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(fmt.Errorf("failed to list inbox: %w", err), time.Since(startTime))
		}
		return fmt.Errorf("failed to list inbox %s: %w", a.config.Watch.Inbox, err)
	}

	metrics := SweepMetrics{Found: len(briefs)}
	for _, path := range briefs {
		if ctx.Err() != nil {
			break
		}
		a.handleFile(ctx, path, &metrics)
	}

	duration := time.Since(startTime)
	if metrics.Failed > 0 || metrics.Errors > 0 {
		if events != nil && events.OnPartialFailure != nil {
			events.OnPartialFailure(fmt.Errorf("%d failed and %d unreadable of %d briefs", metrics.Failed, metrics.Errors, metrics.Found), duration)
		}
	}
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, duration)
	}

	a.logger.Info("Inbox sweep complete", zap.String("summary", metrics.GetSummary()))
	return ctx.Err()
}

func (a *Agent) handleFile(ctx context.Context, path string, metrics *SweepMetrics) {
	log := a.logger.With(zap.String("brief", path))

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Failed to read brief", zap.Error(err))
		metrics.Errors++
		return
	}

	digest := storage.Digest(data)
	if a.tracker.IsProcessed(digest) {
		metrics.Skipped++
		return
	}

	entry := storage.TrackedBrief{Digest: digest, Path: path, ProcessedAt: time.Now()}
	defer func() {
		if err := a.tracker.MarkProcessed(entry); err != nil {
			log.Warn("Failed to record processed brief", zap.Error(err))
		}
	}()

	brief, err := config.ParseBrief(data)
	if err != nil {
		log.Warn("Failed to parse brief", zap.Error(err))
		metrics.Errors++
		entry.Status = "invalid"
		return
	}

	outcome, err := a.ProcessBrief(ctx, brief, "")
	entry.CorrelationID = outcome.Result.CorrelationID
	entry.Status = string(outcome.Result.ProcessingStatus)
	metrics.AssetsGenerated += outcome.Result.Summary.AssetsGenerated

	switch {
	case err != nil:
		metrics.Errors++
	case outcome.Result.ProcessingStatus == models.StatusFailed:
		metrics.Failed++
	default:
		metrics.Processed++
	}
}

func listBriefs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !isBriefFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func isBriefFile(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yml" || ext == ".yaml"
}

func finalAssetPaths(result *models.CampaignResult) []string {
	var paths []string
	for _, product := range sortedKeys(result.Assets) {
		byAspect := result.Assets[product]
		for _, aspect := range sortedKeys(byAspect) {
			if asset := byAspect[aspect]; asset.Succeeded() {
				paths = append(paths, asset.Path)
			}
		}
	}
	return paths
}
