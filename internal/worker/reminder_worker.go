package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/observability/metrics"
)

// ReminderWorker periodically scans the feedback collection, keeps the
// pending-acknowledgment gauge current, and logs a reminder for every
// record that has waited longer than maxAge.
type ReminderWorker struct {
	feedback  domain.FeedbackRepository
	directory domain.UserDirectory
	logger    *slog.Logger
	interval  time.Duration
	maxAge    time.Duration
	now       func() time.Time
}

// NewReminderWorker creates a reminder worker.
func NewReminderWorker(
	feedback domain.FeedbackRepository,
	directory domain.UserDirectory,
	logger *slog.Logger,
	interval time.Duration,
	maxAge time.Duration,
) *ReminderWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderWorker{
		feedback:  feedback,
		directory: directory,
		logger:    logger,
		interval:  interval,
		maxAge:    maxAge,
		now:       time.Now,
	}
}

// Start begins the reminder loop and blocks until ctx is done.
func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reminder worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ReminderWorker) runOnce(ctx context.Context) {
	all, err := w.feedback.List(ctx)
	if err != nil {
		w.logger.Error("failed to list feedback", slog.String("error", err.Error()))
		return
	}

	now := w.now()
	pending := 0
	for _, f := range all {
		if f.Acknowledged {
			continue
		}
		pending++

		age := now.Sub(f.CreatedAt)
		if age < w.maxAge {
			continue
		}
		w.logger.Warn("feedback awaiting acknowledgment",
			slog.String("feedback_id", f.ID),
			slog.String("employee", w.employeeName(ctx, f.EmployeeID)),
			slog.Duration("age", age),
		)
	}

	metrics.SetPendingAcknowledgments(pending)
}

func (w *ReminderWorker) employeeName(ctx context.Context, id string) string {
	user, err := w.directory.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			w.logger.Debug("employee lookup failed", slog.String("error", err.Error()))
		}
		return id
	}
	return user.Name
}
