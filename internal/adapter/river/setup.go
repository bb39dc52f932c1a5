package river

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Deps are the application services the workers drive.
type Deps struct {
	Deliverer Deliverer
	Activator Activator
	// Schedule triggers the activation job. Nil disables periodic activation.
	Schedule cron.Schedule
	Logger   *zap.Logger
}

// Setup creates a River client with the notification and activation workers
// registered and runs River's internal migrations. The caller must call
// client.Start() to begin processing jobs and client.Stop() for graceful shutdown.
func Setup(ctx context.Context, db *sql.DB, deps Deps) (*Client, error) {
	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &NotificationWorker{deliverer: deps.Deliverer, logger: logger.Named("notifications")})
	river.AddWorker(workers, &ActivationWorker{activator: deps.Activator, logger: logger.Named("activation")})

	var periodic []*river.PeriodicJob
	if deps.Schedule != nil {
		periodic = append(periodic, river.NewPeriodicJob(
			deps.Schedule,
			func() (river.JobArgs, *river.InsertOpts) {
				return ActivationJobArgs{}, nil
			},
			// Catch up on a day missed while the service was down.
			&river.PeriodicJobOpts{RunOnStart: true},
		))
	}

	client, err := river.NewClient(riversqlite.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}

// Migrate runs River's own migrations (river_job, river_leader, etc.).
// These are separate from the lease store's goose migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrator, err := rivermigrate.New(riversqlite.New(db), nil)
	if err != nil {
		return fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("running river migrations: %w", err)
	}
	return nil
}

// ParseSchedule parses a standard five-field cron expression evaluated in loc.
// An explicit CRON_TZ prefix in expr wins over loc.
func ParseSchedule(expr string, loc *time.Location) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("parsing activation schedule %q: %w", expr, err)
	}
	if loc == nil {
		return schedule, nil
	}
	return zonedSchedule{Schedule: schedule, loc: loc}, nil
}

// zonedSchedule evaluates a schedule parsed without a zone in loc.
type zonedSchedule struct {
	cron.Schedule
	loc *time.Location
}

func (z zonedSchedule) Next(t time.Time) time.Time {
	return z.Schedule.Next(t.In(z.loc))
}
