// Package search debounces operator keystrokes into guest searches.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rayarayu/checkin/internal/clock"
	"github.com/rayarayu/checkin/internal/kiosk"
)

// DefaultQuietPeriod is how long the query must stay unchanged before a
// search is issued.
const DefaultQuietPeriod = 300 * time.Millisecond

// Searcher looks guests up by name.
type Searcher interface {
	Search(ctx context.Context, query string) ([]kiosk.SearchResult, error)
}

// Dispatcher schedules at most one pending search and applies only the
// result of the latest one. Every query change bumps seq; a timer or
// response carrying an older seq is stale and dropped.
type Dispatcher struct {
	searcher Searcher
	sched    clock.Scheduler
	quiet    time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	seq      uint64
	timer    clock.Timer
	cancel   context.CancelFunc
	query    string
	results  []kiosk.SearchResult
	onChange []func()

	inflight sync.WaitGroup
}

func New(searcher Searcher, sched clock.Scheduler, quiet time.Duration, logger *slog.Logger) *Dispatcher {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Dispatcher{
		searcher: searcher,
		sched:    sched,
		quiet:    quiet,
		logger:   logger,
	}
}

// OnChange registers f to run after the result list changes.
func (d *Dispatcher) OnChange(f func()) {
	d.mu.Lock()
	d.onChange = append(d.onChange, f)
	d.mu.Unlock()
}

// OnQueryChanged reschedules the search for text. A blank query clears the
// results immediately without a request.
func (d *Dispatcher) OnQueryChanged(text string) {
	term := strings.TrimSpace(text)

	d.mu.Lock()
	seq := d.supersede()
	if term == "" {
		d.query = ""
		d.results = nil
		d.mu.Unlock()
		d.notify()
		return
	}
	d.timer = d.sched.AfterFunc(d.quiet, func() { d.fire(seq, term) })
	d.mu.Unlock()
}

// Clear drops the current results and any pending or in-flight search.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	d.supersede()
	d.query = ""
	d.results = nil
	d.mu.Unlock()
	d.notify()
}

// Results returns the results of the latest completed search.
func (d *Dispatcher) Results() []kiosk.SearchResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]kiosk.SearchResult, len(d.results))
	copy(out, d.results)
	return out
}

// Query returns the query the current results belong to.
func (d *Dispatcher) Query() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.query
}

// Wait blocks until issued searches have returned.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// supersede invalidates everything scheduled or issued so far and returns
// the new sequence number. d.mu must be held.
func (d *Dispatcher) supersede() uint64 {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.seq++
	return d.seq
}

func (d *Dispatcher) fire(seq uint64, term string) {
	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.inflight.Add(1)
	d.mu.Unlock()

	go d.run(ctx, cancel, seq, term)
}

func (d *Dispatcher) run(ctx context.Context, cancel context.CancelFunc, seq uint64, term string) {
	defer d.inflight.Done()
	defer cancel()

	results, err := d.searcher.Search(ctx, term)

	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		d.logger.Debug("stale search result dropped", "query", term)
		return
	}
	d.cancel = nil
	d.query = term
	if err != nil {
		d.results = nil
	} else {
		d.results = results
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.Warn("guest search failed", "query", term, "error", err)
	}
	d.notify()
}

func (d *Dispatcher) notify() {
	d.mu.Lock()
	hooks := d.onChange
	d.mu.Unlock()
	for _, h := range hooks {
		h()
	}
}
