package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	codeRetention  = 24 * time.Hour
	tokenRetention = 24 * time.Hour
	jobTimeout     = 5 * time.Minute
)

// CleanupStore is the persistence the janitor cleans.
type CleanupStore interface {
	DeleteStaleVerificationCodes(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteStaleRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
	ExpireInvitations(ctx context.Context, now time.Time) (int64, error)
}

type job struct {
	name string
	run  func(ctx context.Context, now time.Time) (int64, error)
}

// Janitor periodically removes stale codes and tokens and expires invitations.
type Janitor struct {
	cron *cron.Cron
	jobs []job
	now  func() time.Time
}

// NewJanitor creates a janitor that runs on schedule, a standard cron spec or descriptor.
func NewJanitor(store CleanupStore, schedule string) (*Janitor, error) {
	if schedule == "" {
		return nil, errors.New("cleanup schedule must not be empty")
	}

	j := &Janitor{
		cron: cron.New(),
		now:  time.Now,
		jobs: []job{
			{"verification_codes", func(ctx context.Context, now time.Time) (int64, error) {
				return store.DeleteStaleVerificationCodes(ctx, now.Add(-codeRetention))
			}},
			{"refresh_tokens", func(ctx context.Context, now time.Time) (int64, error) {
				return store.DeleteStaleRefreshTokens(ctx, now.Add(-tokenRetention))
			}},
			{"invitations", store.ExpireInvitations},
		},
	}

	if _, err := j.cron.AddFunc(schedule, func() { j.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start runs the schedule in the background.
func (j *Janitor) Start() {
	j.cron.Start()
	slog.Info("Cleanup scheduler started", "jobs", len(j.jobs))
}

// Stop stops the schedule and waits for a running cleanup to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// RunOnce runs every cleanup job. A failing job does not stop the others.
func (j *Janitor) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	now := j.now()
	var errs []error
	for _, jb := range j.jobs {
		n, err := jb.run(ctx, now)
		if err != nil {
			slog.Error("Cleanup job failed", "job", jb.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", jb.name, err))
			continue
		}
		if n > 0 {
			slog.Info("Cleanup job finished", "job", jb.name, "rows_affected", n)
		}
	}
	return errors.Join(errs...)
}
