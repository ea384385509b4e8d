// Package checkin turns a noisy stream of scan and pick events into at most
// one in-flight check-in request, and exposes the resulting lock state.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rayarayu/checkin/internal/kiosk"
	"github.com/rayarayu/checkin/internal/slug"
)

// DefaultTimeout bounds a single check-in request.
const DefaultTimeout = 10 * time.Second

// Snapshot is a read-only copy of the coordinator state for rendering.
type Snapshot struct {
	Lock        kiosk.LockState `json:"lock"`
	LastOutcome *kiosk.Outcome  `json:"lastOutcome"`
	Notice      *kiosk.Notice   `json:"notice"`
}

type known struct {
	name      string
	partySize int
}

// Coordinator owns the scan lock. All state is guarded by mu; hooks run
// after mu is released.
type Coordinator struct {
	dir     kiosk.Directory
	session kiosk.Session
	logger  *slog.Logger
	timeout time.Duration

	mu        sync.Mutex
	state     kiosk.LockState
	lastSeen  kiosk.Identifier
	last      *kiosk.Outcome
	notice    *kiosk.Notice
	onChange  []func()
	onSettled []func(kiosk.Outcome)

	inflight sync.WaitGroup
}

// New returns an idle coordinator. A zero timeout means DefaultTimeout.
func New(dir kiosk.Directory, session kiosk.Session, logger *slog.Logger, timeout time.Duration) (*Coordinator, error) {
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("creating coordinator: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Coordinator{
		dir:     dir,
		session: session,
		logger:  logger,
		timeout: timeout,
		state:   kiosk.LockState{Phase: kiosk.PhaseIdle},
	}, nil
}

// OnChange registers f to run after every state change.
func (c *Coordinator) OnChange(f func()) {
	c.mu.Lock()
	c.onChange = append(c.onChange, f)
	c.mu.Unlock()
}

// OnSettled registers f to run after a Success or AlreadyCheckedIn outcome.
func (c *Coordinator) OnSettled(f func(kiosk.Outcome)) {
	c.mu.Lock()
	c.onSettled = append(c.onSettled, f)
	c.mu.Unlock()
}

// OnDetected handles one decoder frame. It is safe to call at frame rate;
// frames arriving while the lock is held are ignored.
func (c *Coordinator) OnDetected(raw string) {
	id, err := slug.Extract(raw)
	if err != nil {
		c.rejectInvalid(err)
		return
	}
	c.accept(id, known{}, "scan")
}

// OnManualPick handles an operator choosing a search result. It skips
// extraction and goes straight to the acceptance gate.
func (c *Coordinator) OnManualPick(id kiosk.Identifier, name string, partySize int) {
	id = kiosk.Identifier(strings.TrimSpace(string(id)))
	if id == "" {
		c.rejectInvalid(fmt.Errorf("%w: empty identifier", kiosk.ErrInvalidInput))
		return
	}
	c.accept(id, known{name: name, partySize: partySize}, "pick")
}

// Resume acknowledges a settled outcome and reopens the scanner. It does
// nothing while a request is in flight, since that request cannot be
// abandoned.
func (c *Coordinator) Resume() bool {
	c.mu.Lock()
	if c.state.Phase == kiosk.PhaseProcessing {
		c.mu.Unlock()
		return false
	}
	c.state = kiosk.LockState{Phase: kiosk.PhaseIdle}
	c.lastSeen = ""
	c.notice = nil
	c.mu.Unlock()

	c.notify()
	return true
}

// State returns a snapshot for rendering.
func (c *Coordinator) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{Lock: c.state}
	if c.last != nil {
		o := *c.last
		s.LastOutcome = &o
	}
	if c.notice != nil {
		n := *c.notice
		s.Notice = &n
	}
	return s
}

// LastSeen returns the most recently accepted identifier, or "" after a
// failure or resume.
func (c *Coordinator) LastSeen() kiosk.Identifier {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Wait blocks until every accepted check-in has completed.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

func (c *Coordinator) rejectInvalid(err error) {
	c.mu.Lock()
	// The status bar belongs to the in-flight or settled result.
	if c.state.Phase != kiosk.PhaseIdle {
		c.mu.Unlock()
		return
	}
	c.notice = &kiosk.Notice{Kind: kiosk.NoticeError, Text: "Invalid code"}
	c.mu.Unlock()

	c.logger.Debug("scan rejected", "error", err)
	c.notify()
}

// accept is the acceptance gate. The check and the transition to
// Processing happen under one critical section.
func (c *Coordinator) accept(id kiosk.Identifier, k known, source string) {
	c.mu.Lock()
	if c.state.Phase != kiosk.PhaseIdle {
		c.mu.Unlock()
		return
	}
	c.lastSeen = id
	c.state = kiosk.LockState{Phase: kiosk.PhaseProcessing, Identifier: id}
	text := "Processing check-in..."
	if k.name != "" {
		text = fmt.Sprintf("Processing check-in for %s...", k.name)
	}
	c.notice = &kiosk.Notice{Kind: kiosk.NoticeProcessing, Text: text}
	c.inflight.Add(1)
	c.mu.Unlock()

	c.logger.Info("check-in accepted",
		"identifier", id,
		"source", source,
		"operator", c.session.Operator,
	)
	c.notify()

	go c.process(id, k)
}

func (c *Coordinator) process(id kiosk.Identifier, k known) {
	defer c.inflight.Done()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	res, err := c.dir.CheckIn(ctx, id)
	outcome := interpret(id, res, err, k)

	c.logger.Info("check-in settled",
		"identifier", id,
		"outcome", outcome.Kind,
		"reason", outcome.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	c.settle(outcome, res.Message)
}

func interpret(id kiosk.Identifier, res kiosk.CheckInResult, err error, k known) kiosk.Outcome {
	switch {
	case err == nil:
	case errors.Is(err, kiosk.ErrNotFound), errors.Is(err, kiosk.ErrInvalidInput):
		return kiosk.Invalid(id, err.Error())
	case errors.Is(err, kiosk.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return kiosk.RequestFailed(id, kiosk.ErrTimeout.Error())
	default:
		return kiosk.RequestFailed(id, err.Error())
	}

	name := res.DisplayName
	if name == "" {
		name = k.name
	}
	party := res.PartySize
	if party <= 0 {
		party = max(k.partySize, 1)
	}
	if res.AlreadyCheckedIn {
		return kiosk.AlreadyCheckedIn(id, name, party)
	}
	return kiosk.Success(id, name, party)
}

func (c *Coordinator) settle(o kiosk.Outcome, message string) {
	c.mu.Lock()
	c.last = &o
	if o.Settles() {
		c.state = kiosk.LockState{Phase: kiosk.PhaseSettled, Identifier: o.Identifier, Outcome: &o}
		if message == "" {
			message = "Check-in successful."
		}
		c.notice = &kiosk.Notice{
			Kind: kiosk.NoticeSuccess,
			Text: fmt.Sprintf("%s (%d guests) %s", o.Name, o.PartySize, message),
		}
	} else {
		// Failures reopen the scanner at once so the same code can be retried.
		c.state = kiosk.LockState{Phase: kiosk.PhaseIdle}
		c.lastSeen = ""
		c.notice = &kiosk.Notice{Kind: kiosk.NoticeError, Text: o.Reason}
	}
	hooks := c.onSettled
	c.mu.Unlock()

	c.notify()
	if o.Settles() {
		for _, h := range hooks {
			h(o)
		}
	}
}

func (c *Coordinator) notify() {
	c.mu.Lock()
	hooks := c.onChange
	c.mu.Unlock()
	for _, h := range hooks {
		h()
	}
}
