package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReloadFunc reloads every dashboard.
type ReloadFunc func(ctx context.Context) error

// Reloader runs a ReloadFunc on a cron schedule so long-running deployments pick up
// newly published yearly datasets.
type Reloader struct {
	sched   cron.Schedule
	spec    string
	reload  ReloadFunc
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewReloader parses a 5-field cron expression or a descriptor such as "@daily".
// An empty schedule returns a nil Reloader and no error: reloading is disabled.
func NewReloader(schedule string, reload ReloadFunc, timeout time.Duration, logger *zap.Logger) (*Reloader, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, nil
	}
	if reload == nil {
		panic("reload func must not be nil")
	}
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid reload schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Reloader{
		sched:   sched,
		spec:    schedule,
		reload:  reload,
		timeout: timeout,
		now:     time.Now,
		logger:  logger.Named("reloader"),
	}, nil
}

// Next returns the first run strictly after t.
func (r *Reloader) Next(t time.Time) time.Time {
	return r.sched.Next(t)
}

// Start runs the loop in a goroutine until Stop or ctx is done.
func (r *Reloader) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.logger.Info("dashboard reload scheduled", zap.String("schedule", r.spec))
	go r.loop(ctx)
}

func (r *Reloader) loop(ctx context.Context) {
	defer close(r.done)
	for {
		now := r.now()
		next := r.sched.Next(now)
		wait := next.Sub(now)
		r.logger.Debug("next dashboard reload", zap.Time("at", next), zap.Duration("in", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		r.runOnce(ctx)
	}
}

func (r *Reloader) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := r.now()
	if err := r.reload(runCtx); err != nil {
		r.logger.Warn("scheduled reload finished with errors", zap.Error(err))
		return
	}
	r.logger.Info("scheduled reload complete", zap.Duration("took", r.now().Sub(start)))
}

// Stop ends the loop and waits for an in-flight reload to return.
func (r *Reloader) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
