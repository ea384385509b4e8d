// Package summary keeps a local mirror of the directory's guest counters.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rayarayu/checkin/internal/kiosk"
)

const (
	DefaultSchedule = "@every 30s"
	DefaultTimeout  = 10 * time.Second
)

// Fetcher pulls aggregate counts from the directory.
type Fetcher interface {
	FetchSummary(ctx context.Context) (kiosk.Summary, error)
}

// Snapshot is what the UI renders for the counters card.
type Snapshot struct {
	kiosk.Summary
	Remaining int       `json:"remaining"`
	Stale     bool      `json:"stale"`
	Loading   bool      `json:"loading"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Refresher replaces its summary wholesale on every successful fetch.
// Overlapping fetches resolve in arrival order: the last response to land
// wins. A failed fetch keeps the previous summary and marks it stale.
type Refresher struct {
	fetcher Fetcher
	logger  *slog.Logger
	timeout time.Duration

	mu        sync.Mutex
	summary   kiosk.Summary
	stale     bool
	loading   int
	updatedAt time.Time
	onChange  []func()

	inflight sync.WaitGroup
}

func New(fetcher Fetcher, logger *slog.Logger, timeout time.Duration) *Refresher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Refresher{fetcher: fetcher, logger: logger, timeout: timeout}
}

// OnChange registers f to run after the snapshot changes.
func (r *Refresher) OnChange(f func()) {
	r.mu.Lock()
	r.onChange = append(r.onChange, f)
	r.mu.Unlock()
}

// Refresh starts a fetch and returns immediately.
func (r *Refresher) Refresh() {
	r.mu.Lock()
	r.loading++
	r.inflight.Add(1)
	r.mu.Unlock()

	r.notify()
	go r.fetch()
}

// Snapshot returns the current counters.
func (r *Refresher) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Summary:   r.summary,
		Remaining: r.summary.Remaining(),
		Stale:     r.stale,
		Loading:   r.loading > 0,
		UpdatedAt: r.updatedAt,
	}
}

// Wait blocks until outstanding fetches have landed.
func (r *Refresher) Wait() {
	r.inflight.Wait()
}

// Start refreshes once, then on every tick of schedule until ctx is done.
func (r *Refresher) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, r.Refresh); err != nil {
		return fmt.Errorf("parsing summary schedule %q: %w", schedule, err)
	}

	r.Refresh()
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

func (r *Refresher) fetch() {
	defer r.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	s, err := r.fetcher.FetchSummary(ctx)

	r.mu.Lock()
	r.loading--
	if err != nil {
		r.stale = true
	} else {
		r.summary = s
		r.stale = false
		r.updatedAt = time.Now().UTC()
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("summary refresh failed", "error", err)
	}
	r.notify()
}

func (r *Refresher) notify() {
	r.mu.Lock()
	hooks := r.onChange
	r.mu.Unlock()
	for _, h := range hooks {
		h()
	}
}
