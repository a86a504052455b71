// Package events provides EventSink implementations: a slog-backed sink for
// production and an in-memory recorder for tests. Events exist for external
// indexers; nothing in the registries reads them back.
package events

import (
	"log/slog"
	"sync"

	"github.com/artledger/nft-registry-backend/interfaces"
)

// SlogSink logs every emitted event with its topic and fields, one log line
// per event.
type SlogSink struct {
	log *slog.Logger
}

// NewSlogSink creates a sink writing to the given logger.
func NewSlogSink(log *slog.Logger) *SlogSink {
	return &SlogSink{log: log}
}

// Emit implements interfaces.EventSink.
func (s *SlogSink) Emit(ev interfaces.Event) {
	attrs := make([]any, 0, 2+2*len(ev.Fields))
	attrs = append(attrs, slog.String("event", ev.Name), slog.String("topic", ev.Topic.String()))
	for k, v := range ev.Fields {
		attrs = append(attrs, slog.String(k, v))
	}
	s.log.Info("Ledger event", attrs...)
}

// Recorder captures emitted events for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	events []interfaces.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit implements interfaces.EventSink.
func (r *Recorder) Emit(ev interfaces.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything emitted so far.
func (r *Recorder) Events() []interfaces.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interfaces.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Named returns the recorded events with the given name, in emission order.
func (r *Recorder) Named(name string) []interfaces.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []interfaces.Event
	for _, ev := range r.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Discard is an EventSink that drops everything.
type Discard struct{}

// Emit implements interfaces.EventSink.
func (Discard) Emit(interfaces.Event) {}
