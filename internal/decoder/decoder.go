// Package decoder models the stream of decoded scan payloads the kiosk
// consumes. Symbol decoding itself happens elsewhere (the browser camera
// page, a hardware scanner); sources here only deliver the text.
package decoder

import (
	"strings"
	"sync"
)

// Event is one decoded frame.
type Event struct {
	Text string
}

// Source delivers decoded frames to subscribers, possibly many times per
// second for a code held in front of the camera.
type Source interface {
	Subscribe(func(Event)) (unsubscribe func())
}

// fanout delivers events to every live subscriber, in arrival order.
type fanout struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
}

func (f *fanout) Subscribe(cb func(Event)) func() {
	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[int]func(Event))
	}
	id := f.next
	f.next++
	f.subs[id] = cb
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// emit drops empty payloads; a frame without text is not a detection.
func (f *fanout) emit(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	f.mu.Lock()
	cbs := make([]func(Event), 0, len(f.subs))
	for _, cb := range f.subs {
		cbs = append(cbs, cb)
	}
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(Event{Text: text})
	}
}

// Synthetic is a scripted source for tests and demos.
type Synthetic struct {
	fanout
}

func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

// Emit delivers each payload in order.
func (s *Synthetic) Emit(texts ...string) {
	for _, t := range texts {
		s.emit(t)
	}
}
