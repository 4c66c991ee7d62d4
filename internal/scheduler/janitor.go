// Package scheduler runs the periodic housekeeping of the gateway.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type sessionPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type workspaceSweeper interface {
	Sweep(idle time.Duration) int
}

type purgeRecorder interface {
	SessionsPurged(n int64)
}

// Janitor removes expired sessions from the store and evicts idle
// workspaces on a cron schedule.
type Janitor struct {
	cron       *cron.Cron
	sessions   sessionPurger
	workspaces workspaceSweeper
	recorder   purgeRecorder
	idle       time.Duration
	timeout    time.Duration
	now        func() time.Time
}

func NewJanitor(sessions sessionPurger, workspaces workspaceSweeper, recorder purgeRecorder, idle time.Duration) *Janitor {
	return &Janitor{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sessions:   sessions,
		workspaces: workspaces,
		recorder:   recorder,
		idle:       idle,
		timeout:    time.Minute,
		now:        time.Now,
	}
}

// Schedule registers the sweep under the cron expression expr, for example "@every 15m".
func (j *Janitor) Schedule(expr string) error {
	if _, err := j.cron.AddFunc(expr, func() { j.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("schedule janitor %q: %w", expr, err)
	}
	return nil
}

func (j *Janitor) Start() {
	j.cron.Start()
	slog.Info("session janitor started", "entries", len(j.cron.Entries()))
}

// Stop waits for a running sweep to finish or ctx to expire.
func (j *Janitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("session janitor did not stop in time")
	}
}

// RunOnce performs a single sweep.
func (j *Janitor) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	purged, err := j.sessions.PurgeExpired(ctx, j.now().UTC())
	if err != nil {
		slog.Error("failed to purge expired sessions", "error", err)
	} else if j.recorder != nil {
		j.recorder.SessionsPurged(purged)
	}

	evicted := 0
	if j.workspaces != nil && j.idle > 0 {
		evicted = j.workspaces.Sweep(j.idle)
	}

	if purged > 0 || evicted > 0 {
		slog.Info("janitor sweep", "sessions_purged", purged, "workspaces_evicted", evicted)
	}
}
