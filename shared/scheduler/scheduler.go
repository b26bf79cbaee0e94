package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"creative-pipeline/shared/monitoring"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Metrics defines the common interface for agent metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring agent execution
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent defines the interface that all agents must implement
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// Scheduler runs an agent on a cron schedule and on demand. Runs never
// overlap: a trigger that arrives while a run is in progress is dropped.
type Scheduler struct {
	schedule string
	monitor  *monitoring.Monitor
	agent    Agent
	cron     *cron.Cron
	running  sync.Mutex
	logger   *zap.Logger
}

func New(schedule string, agent Agent, monitor *monitoring.Monitor, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if monitor == nil {
		monitor = monitoring.NewMonitor(logger)
	}

	return &Scheduler{
		schedule: schedule,
		monitor:  monitor,
		agent:    agent,
		// Prevent overlapping scheduled runs
		cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
	}
}

// Start initializes the agent and blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("Scheduled run failed", zap.String("agent", s.agent.Name()), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.logger.Info("Scheduler started", zap.String("agent", s.agent.Name()), zap.String("schedule", s.schedule))
	s.cron.Start()

	<-ctx.Done()
	s.logger.Info("Scheduler stopped", zap.String("agent", s.agent.Name()))
	<-s.cron.Stop().Done()
	return ctx.Err()
}

// RunOnce runs the agent immediately unless a run is already in progress.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.running.TryLock() {
		s.logger.Debug("Run already in progress, skipping", zap.String("agent", s.agent.Name()))
		return nil
	}
	defer s.running.Unlock()

	startTime := time.Now()
	agentName := s.agent.Name()

	s.logger.Debug("Starting run", zap.String("agent", agentName))

	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}

	if err := s.agent.RunOnce(ctx, events); err != nil {
		duration := time.Since(startTime)
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), duration)
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	return nil
}
