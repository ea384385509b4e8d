package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rayarayu/checkin/internal/clock"
	"github.com/rayarayu/checkin/internal/kiosk"
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	gates   map[string]chan struct{}
	ctxs    map[string]context.Context
	err     error
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		gates: make(map[string]chan struct{}),
		ctxs:  make(map[string]context.Context),
	}
}

func (f *fakeSearcher) Search(ctx context.Context, q string) ([]kiosk.SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.ctxs[q] = ctx
	gate := f.gates[q]
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return []kiosk.SearchResult{{Identifier: kiosk.Identifier(q + "-slug"), DisplayName: q, PartySize: 1}}, nil
}

func (f *fakeSearcher) issued() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func newDispatcher(s Searcher) (*Dispatcher, *clock.Virtual) {
	v := clock.NewVirtual()
	d := New(s, v, 300*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return d, v
}

func TestDebounceIssuesOnlyLatestQuery(t *testing.T) {
	s := newFakeSearcher()
	d, v := newDispatcher(s)

	d.OnQueryChanged("a")
	v.Advance(100 * time.Millisecond)
	d.OnQueryChanged("ab")
	v.Advance(299 * time.Millisecond)

	if got := s.issued(); len(got) != 0 {
		t.Fatalf("searches before quiet period = %v, want none", got)
	}

	v.Advance(time.Millisecond)
	d.Wait()

	got := s.issued()
	if len(got) != 1 || got[0] != "ab" {
		t.Fatalf("searches = %v, want [ab]", got)
	}
	if q := d.Query(); q != "ab" {
		t.Errorf("query = %q, want ab", q)
	}
	if r := d.Results(); len(r) != 1 || r[0].Identifier != "ab-slug" {
		t.Errorf("results = %+v", r)
	}
}

func TestBlankQueryClearsImmediately(t *testing.T) {
	s := newFakeSearcher()
	d, v := newDispatcher(s)

	d.OnQueryChanged("jane")
	v.Advance(300 * time.Millisecond)
	d.Wait()
	if len(d.Results()) == 0 {
		t.Fatal("expected results for jane")
	}

	d.OnQueryChanged("ja")
	d.OnQueryChanged("   ")

	if r := d.Results(); len(r) != 0 {
		t.Errorf("results after blank query = %+v, want none", r)
	}
	if n := v.Pending(); n != 0 {
		t.Errorf("pending timers = %d, want 0", n)
	}
	v.Advance(time.Second)
	d.Wait()
	if got := s.issued(); len(got) != 1 {
		t.Errorf("searches = %v, want only the first", got)
	}
}

func TestStaleResponseIsDropped(t *testing.T) {
	s := newFakeSearcher()
	abGate := make(chan struct{})
	abcGate := make(chan struct{})
	s.gates["ab"] = abGate
	s.gates["abc"] = abcGate

	d, v := newDispatcher(s)
	changed := make(chan struct{}, 8)
	d.OnChange(func() { changed <- struct{}{} })

	d.OnQueryChanged("ab")
	v.Advance(300 * time.Millisecond)
	d.OnQueryChanged("abc")
	v.Advance(300 * time.Millisecond)

	close(abcGate)
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("abc results were never applied")
	}

	close(abGate)
	d.Wait()

	if q := d.Query(); q != "abc" {
		t.Fatalf("query = %q, want abc", q)
	}
	if r := d.Results(); len(r) != 1 || r[0].DisplayName != "abc" {
		t.Errorf("results = %+v, want abc's", r)
	}

	s.mu.Lock()
	abCtx := s.ctxs["ab"]
	s.mu.Unlock()
	if abCtx.Err() == nil {
		t.Error("superseded search context was not cancelled")
	}
}

func TestSearchFailureClearsResults(t *testing.T) {
	s := newFakeSearcher()
	d, v := newDispatcher(s)

	d.OnQueryChanged("jane")
	v.Advance(300 * time.Millisecond)
	d.Wait()

	s.mu.Lock()
	s.err = errors.New("directory down")
	s.mu.Unlock()

	d.OnQueryChanged("janet")
	v.Advance(300 * time.Millisecond)
	d.Wait()

	if r := d.Results(); len(r) != 0 {
		t.Errorf("results after failure = %+v, want none", r)
	}
}

func TestClearCancelsPendingSearch(t *testing.T) {
	s := newFakeSearcher()
	d, v := newDispatcher(s)

	d.OnQueryChanged("jane")
	d.Clear()
	v.Advance(time.Second)
	d.Wait()

	if got := s.issued(); len(got) != 0 {
		t.Errorf("searches = %v, want none", got)
	}
}
