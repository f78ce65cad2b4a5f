// Package event carries build events (tool runs, locate and fetch results,
// space transitions) to pluggable sinks.
package event

import (
	"sync"
	"time"
)

type Kind string

const (
	KindTool   Kind = "tool"
	KindLocate Kind = "locate"
	KindFetch  Kind = "fetch"
	KindSpace  Kind = "space"
)

// Outcomes used across kinds.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
	OutcomeMissing = "missing"
)

// Event is one observation made during a build.
type Event struct {
	Kind     Kind
	Name     string
	Detail   string
	Outcome  string
	ExitCode int
	Duration time.Duration
	Time     time.Time
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Record(e Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Record(Event) {}

// SafeRecord records an event and swallows any panic raised by the sink, so
// a broken observer never fails a build.
func SafeRecord(s Sink, e Event) {
	if s == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	defer func() {
		_ = recover()
	}()
	s.Record(e)
}

// Multi fans every event out to all sinks in order.
type Multi []Sink

func (m Multi) Record(e Event) {
	for _, s := range m {
		SafeRecord(s, e)
	}
}

// Recorder is a concurrency-safe in-memory collector.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfKind returns the recorded events of one kind in arrival order.
func (r *Recorder) OfKind(kind Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
