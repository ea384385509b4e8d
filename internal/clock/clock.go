// Package clock provides an injectable scheduler so timer-driven behavior
// can be driven by virtual time in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop cancels the timer. It reports false if the callback already ran
	// or the timer was already stopped.
	Stop() bool
}

// Scheduler schedules callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is a Scheduler backed by the runtime timers.
type Real struct{}

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Virtual is a Scheduler whose time only moves when Advance is called.
// Due callbacks run synchronously on the goroutine calling Advance, in
// deadline order.
type Virtual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*virtualTimer
}

type virtualTimer struct {
	v    *Virtual
	at   time.Duration
	seq  int
	f    func()
	done bool
}

func NewVirtual() *Virtual {
	return &Virtual{}
}

func (v *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	t := &virtualTimer{v: v, at: v.now + d, seq: v.seq, f: f}
	v.timers = append(v.timers, t)
	return t
}

// Advance moves virtual time forward by d and fires every timer that
// became due, including timers scheduled by callbacks along the way.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now + d
	v.mu.Unlock()

	for {
		v.mu.Lock()
		t := v.nextDue(target)
		if t == nil {
			v.now = target
			v.mu.Unlock()
			return
		}
		t.done = true
		v.now = t.at
		v.mu.Unlock()

		t.f()
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, t := range v.timers {
		if !t.done {
			n++
		}
	}
	return n
}

func (v *Virtual) nextDue(target time.Duration) *virtualTimer {
	live := v.timers[:0]
	for _, t := range v.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	v.timers = live
	sort.Slice(v.timers, func(i, j int) bool {
		if v.timers[i].at == v.timers[j].at {
			return v.timers[i].seq < v.timers[j].seq
		}
		return v.timers[i].at < v.timers[j].at
	})
	if len(v.timers) == 0 || v.timers[0].at > target {
		return nil
	}
	return v.timers[0]
}

func (t *virtualTimer) Stop() bool {
	t.v.mu.Lock()
	defer t.v.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}
