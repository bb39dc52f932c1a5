package river

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"github.com/neomorfeo/rentiq/internal/domain"
)

// Deliverer stores and pushes a notification.
type Deliverer interface {
	Deliver(ctx context.Context, n domain.Notification) error
}

// Activator promotes pre-booked leases due on a day.
type Activator interface {
	Today() civil.Date
	ActivateDue(ctx context.Context, day civil.Date) (domain.ActivationReport, error)
}

// NotificationWorker delivers notification jobs. A failed delivery is
// returned so River retries it with backoff.
type NotificationWorker struct {
	river.WorkerDefaults[NotificationJobArgs]
	deliverer Deliverer
	logger    *zap.Logger
}

// Work processes a single notification job.
func (w *NotificationWorker) Work(ctx context.Context, job *river.Job[NotificationJobArgs]) error {
	n := job.Args.notification()
	if err := w.deliverer.Deliver(ctx, n); err != nil {
		w.logger.Warn("notification delivery failed",
			zap.String("notification_id", n.ID),
			zap.Int64("job_id", job.ID),
			zap.Int("attempt", job.Attempt),
			zap.Error(err),
		)
		return err
	}

	w.logger.Debug("notification delivered",
		zap.String("notification_id", n.ID),
		zap.String("recipient_id", n.RecipientID),
		zap.Int64("job_id", job.ID),
	)
	return nil
}

// ActivationJobArgs triggers one activation run. An empty Day means today in
// the activator's time zone.
type ActivationJobArgs struct {
	Day string `json:"day,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (ActivationJobArgs) Kind() string { return "lease.activate" }

// ActivationWorker runs the daily lease activation.
type ActivationWorker struct {
	river.WorkerDefaults[ActivationJobArgs]
	activator Activator
	logger    *zap.Logger
}

// Work processes a single activation job.
func (w *ActivationWorker) Work(ctx context.Context, job *river.Job[ActivationJobArgs]) error {
	day := w.activator.Today()
	if job.Args.Day != "" {
		parsed, err := civil.ParseDate(job.Args.Day)
		if err != nil {
			// A malformed day will never parse; don't retry.
			return river.JobCancel(fmt.Errorf("parsing activation day %q: %w", job.Args.Day, err))
		}
		day = parsed
	}

	report, err := w.activator.ActivateDue(ctx, day)
	if err != nil {
		return err
	}

	w.logger.Info("activation job finished",
		zap.Int64("job_id", job.ID),
		zap.Stringer("day", report.Day),
		zap.Strings("activated", report.Activated),
		zap.Strings("skipped", report.Skipped),
	)
	return nil
}
