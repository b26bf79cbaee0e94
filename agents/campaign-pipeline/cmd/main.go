package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	campaignpipeline "creative-pipeline/agents/campaign-pipeline"
	"creative-pipeline/agents/campaign-pipeline/assets"
	"creative-pipeline/agents/campaign-pipeline/compliance"
	"creative-pipeline/internal/models"
	"creative-pipeline/shared/config"
	"creative-pipeline/shared/logging"
	"creative-pipeline/shared/monitoring"
	"creative-pipeline/shared/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:           "creative-pipeline",
		Short:         "Generate, score and deliver campaign creatives",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "configuration file (default $CONFIG_FILE or config.yml)")

	root.AddCommand(a.runCommand(), a.primeCommand(), a.watchCommand(), a.listCommand())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func (a *app) setup() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	a.logger, err = logging.New(a.cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger.Info("Configuration loaded")
	return nil
}

func (a *app) runCommand() *cobra.Command {
	var correlationID string

	cmd := &cobra.Command{
		Use:   "run <campaign_brief.yml>",
		Short: "Process a single campaign brief",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			brief, err := config.LoadBrief(args[0])
			if err != nil {
				return err
			}
			a.logger.Info("Campaign brief loaded", zap.String("campaign", brief.CampaignName))

			printOverview(brief)

			agent := campaignpipeline.NewAgent(a.cfg, nil, a.logger)
			if err := agent.Initialize(); err != nil {
				return err
			}

			outcome, err := agent.ProcessBrief(cmd.Context(), brief, correlationID)
			result := outcome.Result
			fmt.Println(campaignpipeline.GenerateReport(result))
			printComplianceDetails(result)
			if err != nil {
				return err
			}
			fmt.Printf("\nDetailed results saved to: %s\n", filepath.Dir(outcome.ResultsPath))

			metrics := agent.Metrics()
			fmt.Println("\nSYSTEM PERFORMANCE METRICS:")
			fmt.Printf("Campaigns Processed: %d\n", metrics.CampaignsProcessed)
			fmt.Printf("Average Processing Time: %.2fs\n", metrics.AverageProcessingTime)

			switch result.ProcessingStatus {
			case models.StatusCompletedSuccessfully:
				fmt.Println("\nCampaign completed successfully!")
			case models.StatusCompletedWithIssues:
				fmt.Println("\nCampaign completed with compliance issues. Review recommendations.")
			default:
				return fmt.Errorf("campaign processing failed: %s", result.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "correlation id (default cam_<random>)")
	return cmd
}

func (a *app) primeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prime",
		Short: "Write static fallback assets for the demo products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			generator := assets.NewGenerator(a.cfg, nil, a.logger.Named("assets"))
			created, err := generator.PrimeFallbacks()
			if err != nil {
				return err
			}
			fmt.Printf("Created %d fallback assets in %s\n", created, a.cfg.Directories.Fallback)
			return nil
		},
	}
}

func (a *app) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Process briefs dropped into the inbox directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics := monitoring.NewProcessingMetrics()
			monitor := monitoring.NewMonitor(a.logger.Named("monitor"))
			agent := campaignpipeline.NewAgent(a.cfg, metrics, a.logger)
			// The watcher can trigger a run before the scheduler starts.
			if err := agent.Initialize(); err != nil {
				return err
			}
			sched := scheduler.New(a.cfg.Watch.Schedule, agent, monitor, a.logger.Named("scheduler"))
			health := monitoring.NewHealthServer(monitor, metrics, a.cfg.Monitoring.HealthPort, a.logger.Named("health"))
			watcher := campaignpipeline.NewWatcher(a.cfg.Watch.Inbox, 500*time.Millisecond, func(ctx context.Context) {
				if err := sched.RunOnce(ctx); err != nil {
					a.logger.Error("Triggered run failed", zap.Error(err))
				}
			}, a.logger.Named("watcher"))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return sched.Start(ctx) })
			g.Go(func() error { return health.Run(ctx) })
			g.Go(func() error { return watcher.Run(ctx) })

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.logger.Info("Shutdown complete")
			return nil
		},
	}
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the sample campaign briefs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Directories.SampleCampaigns
			var files []string
			for _, pattern := range []string{"*.yml", "*.yaml"} {
				matches, err := filepath.Glob(filepath.Join(dir, pattern))
				if err != nil {
					return err
				}
				files = append(files, matches...)
			}
			sort.Strings(files)

			fmt.Println("Available campaigns:")
			if len(files) == 0 {
				fmt.Println("  - No sample campaigns found")
				return nil
			}
			for _, f := range files {
				fmt.Printf("  - %s\n", f)
			}
			return nil
		},
	}
}

func printOverview(brief *models.CampaignBrief) {
	rule := strings.Repeat("=", 70)
	names := make([]string, 0, len(brief.Products))
	for _, p := range brief.Products {
		names = append(names, p.Name)
	}

	fmt.Println("\n" + rule)
	fmt.Println("ENTERPRISE CREATIVE AUTOMATION PIPELINE")
	fmt.Println(rule)
	fmt.Printf("Campaign: %s\n", orDefault(brief.CampaignName, "Unknown"))
	fmt.Printf("Products: %s\n", strings.Join(names, ", "))
	fmt.Printf("Region: %s\n", orDefault(brief.TargetRegion, "Unknown"))
	fmt.Printf("Audience: %s\n", orDefault(brief.TargetAudience, "Unknown"))
	fmt.Printf("Message: %s\n", orDefault(brief.CampaignMessage, "No message"))
	if n := len(brief.CulturalRequirements); n > 0 {
		fmt.Printf("Cultural Requirements: %d specified\n", n)
	}
	if brief.BrandGuidelines != nil {
		fmt.Println("Brand Guidelines: Specified")
	}
	fmt.Println("\nStarting campaign processing...")
	fmt.Println(rule)
}

func printComplianceDetails(result *models.CampaignResult) {
	products := make([]string, 0, len(result.ComplianceResults))
	for product := range result.ComplianceResults {
		products = append(products, product)
	}
	sort.Strings(products)

	for _, product := range products {
		byAspect := result.ComplianceResults[product]
		aspects := make([]string, 0, len(byAspect))
		for aspect := range byAspect {
			aspects = append(aspects, aspect)
		}
		sort.Strings(aspects)

		for _, aspect := range aspects {
			fmt.Printf("\n%s (%s)\n%s\n", product, aspect, compliance.Report(byAspect[aspect]))
		}
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
