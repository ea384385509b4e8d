// Package station assembles the check-in core into the single state object
// and command set a kiosk UI binds to.
package station

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rayarayu/checkin/internal/checkin"
	"github.com/rayarayu/checkin/internal/clock"
	"github.com/rayarayu/checkin/internal/decoder"
	"github.com/rayarayu/checkin/internal/kiosk"
	"github.com/rayarayu/checkin/internal/search"
	"github.com/rayarayu/checkin/internal/summary"
)

type Config struct {
	CheckInTimeout    time.Duration
	SearchQuietPeriod time.Duration
	SummaryTimeout    time.Duration
}

// View is the read-only state rendered by the UI.
type View struct {
	Operator      string               `json:"operator"`
	Role          kiosk.Role           `json:"role"`
	Lock          kiosk.LockState      `json:"lock"`
	LastOutcome   *kiosk.Outcome       `json:"lastOutcome"`
	Headline      string               `json:"headline,omitempty"`
	Message       string               `json:"message,omitempty"`
	Notice        *kiosk.Notice        `json:"notice"`
	Query         string               `json:"query"`
	SearchResults []kiosk.SearchResult `json:"searchResults"`
	Summary       summary.Snapshot     `json:"summary"`
}

type Station struct {
	session kiosk.Session
	coord   *checkin.Coordinator
	search  *search.Dispatcher
	summary *summary.Refresher
	logger  *slog.Logger

	mu       sync.Mutex
	onChange []func()
}

func New(dir kiosk.Directory, session kiosk.Session, sched clock.Scheduler, cfg Config, logger *slog.Logger) (*Station, error) {
	coord, err := checkin.New(dir, session, logger.With("component", "coordinator"), cfg.CheckInTimeout)
	if err != nil {
		return nil, err
	}

	s := &Station{
		session: session,
		coord:   coord,
		search:  search.New(dir, sched, cfg.SearchQuietPeriod, logger.With("component", "search")),
		summary: summary.New(dir, logger.With("component", "summary"), cfg.SummaryTimeout),
		logger:  logger,
	}

	// First-time and repeat check-ins both refresh the counters.
	coord.OnSettled(func(kiosk.Outcome) {
		s.search.Clear()
		s.summary.Refresh()
	})
	coord.OnChange(s.changed)
	s.search.OnChange(s.changed)
	s.summary.OnChange(s.changed)

	return s, nil
}

// OnChange registers f to run after any part of the view changes.
func (s *Station) OnChange(f func()) {
	s.mu.Lock()
	s.onChange = append(s.onChange, f)
	s.mu.Unlock()
}

// Attach subscribes the coordinator to a decoder source.
func (s *Station) Attach(src decoder.Source) (detach func()) {
	return src.Subscribe(func(e decoder.Event) {
		s.coord.OnDetected(e.Text)
	})
}

// Start begins periodic summary polling.
func (s *Station) Start(ctx context.Context, schedule string) error {
	return s.summary.Start(ctx, schedule)
}

func (s *Station) OnDetected(raw string) {
	s.coord.OnDetected(raw)
}

func (s *Station) OnManualPick(id kiosk.Identifier, name string, partySize int) {
	s.coord.OnManualPick(id, name, partySize)
}

func (s *Station) Resume() bool {
	return s.coord.Resume()
}

func (s *Station) OnQueryChanged(text string) {
	s.search.OnQueryChanged(text)
}

func (s *Station) RefreshSummary() {
	s.summary.Refresh()
}

// View composes the current state of every component.
func (s *Station) View() View {
	cs := s.coord.State()
	v := View{
		Operator:      s.session.Operator,
		Role:          s.session.Role,
		Lock:          cs.Lock,
		LastOutcome:   cs.LastOutcome,
		Notice:        cs.Notice,
		Query:         s.search.Query(),
		SearchResults: s.search.Results(),
		Summary:       s.summary.Snapshot(),
	}
	if cs.Lock.Outcome != nil {
		v.Headline = cs.Lock.Outcome.Headline()
		v.Message = cs.Lock.Outcome.Message()
	}
	return v
}

// Wait blocks until in-flight check-ins, searches and summary fetches have
// completed.
func (s *Station) Wait() {
	s.coord.Wait()
	s.search.Wait()
	s.summary.Wait()
}

func (s *Station) changed() {
	s.mu.Lock()
	hooks := s.onChange
	s.mu.Unlock()
	for _, h := range hooks {
		h()
	}
}
