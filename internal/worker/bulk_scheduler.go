package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assigner/internal/service"
)

// TriggerSchedule labels bulk runs started by the scheduler.
const TriggerSchedule = "schedule"

// BulkAssigner runs one bulk auto-assignment pass.
type BulkAssigner interface {
	BulkAutoAssign(ctx context.Context) (*service.BulkResult, error)
}

// BulkRunRecorder counts bulk runs per trigger.
type BulkRunRecorder interface {
	RecordBulkRun(trigger string)
}

// BulkScheduler runs bulk auto-assignment on a cron schedule. Overlapping runs are skipped.
type BulkScheduler struct {
	cron     *cron.Cron
	assigner BulkAssigner
	recorder BulkRunRecorder
	logger   *zap.Logger
	timeout  time.Duration
}

// NewBulkScheduler parses a standard five-field cron expression. An empty schedule
// returns (nil, nil); callers treat a nil scheduler as disabled.
func NewBulkScheduler(schedule string, assigner BulkAssigner, recorder BulkRunRecorder, logger *zap.Logger) (*BulkScheduler, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &BulkScheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		assigner: assigner,
		recorder: recorder,
		logger:   logger,
		timeout:  10 * time.Minute,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid bulk schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins scheduling in the background.
func (s *BulkScheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
	for _, entry := range s.cron.Entries() {
		s.logger.Info("bulk auto-assign scheduled", zap.Time("next_run", entry.Next))
	}
}

// Stop prevents new runs and waits for a running one to finish or ctx to expire.
func (s *BulkScheduler) Stop(ctx context.Context) {
	if s == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("bulk auto-assign still running at shutdown")
	}
}

// Run executes a single bulk pass.
func (s *BulkScheduler) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.recorder != nil {
		s.recorder.RecordBulkRun(TriggerSchedule)
	}
	started := time.Now()
	result, err := s.assigner.BulkAutoAssign(ctx)
	if err != nil {
		s.logger.Error("scheduled bulk auto-assign failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled bulk auto-assign done",
		zap.Int("total", result.Total),
		zap.Int("assigned", result.Assigned),
		zap.Int("failed", result.Failed),
		zap.Duration("took", time.Since(started)))
}
