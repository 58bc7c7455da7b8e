package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MathijsBok/ticket-system-sub002/internal/config"
	"github.com/MathijsBok/ticket-system-sub002/internal/observability"
	"github.com/MathijsBok/ticket-system-sub002/internal/repository"
	"github.com/MathijsBok/ticket-system-sub002/internal/service"
)

const leaseKey = "automation:sweep:lease"

// BlobStore deletes attachment payloads from object storage. The sweep
// only needs deletion; uploads go through the API layer.
type BlobStore interface {
	Delete(ctx context.Context, storageKey string) error
}

// SweepResult tallies one pass.
type SweepResult struct {
	RemindersSent      int
	AutoSolved         int
	AutoClosed         int
	AttachmentsDeleted int
	Failures           int
}

// Sweeper runs the timed automation rules. Each pass scans for candidate
// tickets and applies each rule through the lifecycle service, one ticket
// at a time; the precondition is re-checked inside the ticket lock, so a
// sweep that re-runs or overlaps with user actions never double-fires.
type Sweeper struct {
	store      repository.Store
	lifecycle  *service.LifecycleService
	automation config.AutomationConfig
	blobs      BlobStore
	redis      *redis.Client
	logger     *zap.Logger
	metrics    *observability.Metrics
	clock      func() time.Time
}

// SweeperDependencies bundles collaborators for the sweeper. Redis and
// Blobs are optional; without Redis every instance sweeps (harmless,
// since rules are idempotent), without Blobs retention only marks rows.
type SweeperDependencies struct {
	Store      repository.Store
	Lifecycle  *service.LifecycleService
	Automation config.AutomationConfig
	Blobs      BlobStore
	Redis      *redis.Client
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Clock      func() time.Time
}

// NewSweeper constructs a sweeper.
func NewSweeper(deps SweeperDependencies) *Sweeper {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Sweeper{
		store:      deps.Store,
		lifecycle:  deps.Lifecycle,
		automation: deps.Automation,
		blobs:      deps.Blobs,
		redis:      deps.Redis,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		clock:      clock,
	}
}

// Run executes sweep passes on the configured interval until ctx ends.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.automation.SweepInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("automation sweep started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("automation sweep stopped")
			return
		case <-ticker.C:
			if !s.acquireLease(ctx, interval) {
				continue
			}
			result, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Error("sweep pass failed", zap.Error(err))
				continue
			}
			s.logger.Info("sweep pass complete",
				zap.Int("reminders", result.RemindersSent),
				zap.Int("auto_solved", result.AutoSolved),
				zap.Int("auto_closed", result.AutoClosed),
				zap.Int("attachments_deleted", result.AttachmentsDeleted),
				zap.Int("failures", result.Failures))
		}
	}
}

// acquireLease grabs a best-effort leader lease so only one instance
// sweeps per interval. On Redis errors the sweep proceeds.
func (s *Sweeper) acquireLease(ctx context.Context, interval time.Duration) bool {
	if s.redis == nil {
		return true
	}
	ok, err := s.redis.SetNX(ctx, leaseKey, s.clock().Format(time.RFC3339), interval).Result()
	if err != nil {
		s.logger.Warn("sweep lease check failed", zap.Error(err))
		return true
	}
	if !ok {
		s.logger.Debug("sweep lease held elsewhere")
	}
	return ok
}

// Sweep executes one pass of every enabled rule. A failing ticket is
// logged and skipped; it does not abort the pass.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	if err := ctx.Err(); err != nil {
		return result, err
	}
	s.runPendingReminders(ctx, &result)
	s.runAutoSolve(ctx, &result)
	s.runAutoClose(ctx, &result)
	s.runAttachmentRetention(ctx, &result)
	return result, nil
}

func (s *Sweeper) runPendingReminders(ctx context.Context, result *SweepResult) {
	if !s.automation.PendingReminderEnabled || s.automation.PendingReminderHours <= 0 {
		return
	}
	cutoff := s.clock().Add(-time.Duration(s.automation.PendingReminderHours) * time.Hour)
	candidates, err := s.store.Tickets().ListPendingForReminder(ctx, cutoff)
	if err != nil {
		s.logger.Error("pending reminder scan failed", zap.Error(err))
		result.Failures++
		return
	}
	for _, ticket := range candidates {
		acted, err := s.withTicketTimeout(ctx, func(ctx context.Context) (bool, error) {
			return s.lifecycle.MarkReminderSent(ctx, ticket.ID)
		})
		s.tally(result, "pending_reminder", ticket.Number, acted, err)
		if acted {
			result.RemindersSent++
		}
	}
}

func (s *Sweeper) runAutoSolve(ctx context.Context, result *SweepResult) {
	if !s.automation.AutoSolveEnabled || s.automation.AutoSolveHours <= 0 {
		return
	}
	cutoff := s.clock().Add(-time.Duration(s.automation.AutoSolveHours) * time.Hour)
	candidates, err := s.store.Tickets().ListPendingForAutoSolve(ctx, cutoff)
	if err != nil {
		s.logger.Error("auto-solve scan failed", zap.Error(err))
		result.Failures++
		return
	}
	for _, ticket := range candidates {
		acted, err := s.withTicketTimeout(ctx, func(ctx context.Context) (bool, error) {
			return s.lifecycle.AutoSolve(ctx, ticket.ID)
		})
		s.tally(result, "auto_solve", ticket.Number, acted, err)
		if acted {
			result.AutoSolved++
		}
	}
}

func (s *Sweeper) runAutoClose(ctx context.Context, result *SweepResult) {
	if !s.automation.AutoCloseEnabled || s.automation.AutoCloseHours <= 0 {
		return
	}
	cutoff := s.clock().Add(-time.Duration(s.automation.AutoCloseHours) * time.Hour)
	candidates, err := s.store.Tickets().ListSolvedForAutoClose(ctx, cutoff)
	if err != nil {
		s.logger.Error("auto-close scan failed", zap.Error(err))
		result.Failures++
		return
	}
	for _, ticket := range candidates {
		acted, err := s.withTicketTimeout(ctx, func(ctx context.Context) (bool, error) {
			return s.lifecycle.AutoClose(ctx, ticket.ID)
		})
		s.tally(result, "auto_close", ticket.Number, acted, err)
		if acted {
			result.AutoClosed++
		}
	}
}

// runAttachmentRetention marks expired attachment rows deleted and, when
// a blob store is wired, removes the stored payloads. The row is marked
// first; a blob delete failure leaves an orphan blob for the next pass
// rather than a dangling row.
func (s *Sweeper) runAttachmentRetention(ctx context.Context, result *SweepResult) {
	if !s.automation.AttachmentRetentionEnabled || s.automation.AttachmentRetentionDays <= 0 {
		return
	}
	cutoff := s.clock().Add(-time.Duration(s.automation.AttachmentRetentionDays) * 24 * time.Hour)
	expired, err := s.store.Attachments().ListExpired(ctx, cutoff)
	if err != nil {
		s.logger.Error("attachment retention scan failed", zap.Error(err))
		result.Failures++
		return
	}
	for _, attachment := range expired {
		if err := s.store.Attachments().MarkDeleted(ctx, attachment.ID, s.clock()); err != nil {
			s.logger.Warn("attachment delete mark failed",
				zap.String("attachment_id", attachment.ID), zap.Error(err))
			s.metrics.RecordSweepAction("attachment_retention", "error")
			result.Failures++
			continue
		}
		if s.blobs != nil {
			if err := s.blobs.Delete(ctx, attachment.StorageKey); err != nil {
				s.logger.Warn("attachment blob delete failed",
					zap.String("storage_key", attachment.StorageKey), zap.Error(err))
			}
		}
		s.metrics.RecordSweepAction("attachment_retention", "acted")
		result.AttachmentsDeleted++
	}
}

func (s *Sweeper) withTicketTimeout(ctx context.Context, fn func(context.Context) (bool, error)) (bool, error) {
	ticketCtx, cancel := context.WithTimeout(ctx, s.automation.TicketTimeout())
	defer cancel()
	return fn(ticketCtx)
}

func (s *Sweeper) tally(result *SweepResult, rule string, number int64, acted bool, err error) {
	switch {
	case err != nil:
		s.logger.Warn("sweep rule failed",
			zap.String("rule", rule),
			zap.Int64("ticket_number", number),
			zap.Error(err))
		s.metrics.RecordSweepAction(rule, "error")
		result.Failures++
	case acted:
		s.metrics.RecordSweepAction(rule, "acted")
	default:
		s.metrics.RecordSweepAction(rule, "skipped")
	}
}
