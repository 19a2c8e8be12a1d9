// Package emitter fans executor events out to metrics, logs and the journal.
package emitter

import (
	"context"

	"github.com/yairfalse/shotty/pkg/resource"
)

// Emitter records executor events to a backend.
type Emitter interface {
	// Emit records one event.
	Emit(ctx context.Context, event resource.Event) error

	// Close cleans up resources.
	Close() error
}

// MultiEmitter fans out to multiple emitters.
type MultiEmitter struct {
	emitters []Emitter
}

// NewMultiEmitter creates an emitter that sends to multiple backends.
// Nil emitters are dropped.
func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	m := &MultiEmitter{}
	for _, e := range emitters {
		if e != nil {
			m.emitters = append(m.emitters, e)
		}
	}
	return m
}

// Emit sends to all emitters, returns first error.
func (m *MultiEmitter) Emit(ctx context.Context, event resource.Event) error {
	for _, e := range m.emitters {
		if err := e.Emit(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every emitter, even after a failure, and returns the
// first error.
func (m *MultiEmitter) Close() error {
	var firstErr error
	for _, e := range m.emitters {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Nop discards events.
type Nop struct{}

// Emit does nothing.
func (Nop) Emit(context.Context, resource.Event) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
