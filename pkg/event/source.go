// Package event provides a multi-subscriber event source that tolerates
// subscribers being removed while an event is being dispatched.
package event

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/go-drift/stencil/pkg/errors"
)

// Handler receives a published payload. A non-nil error stops the
// dispatch pass and is returned to the publisher.
type Handler[T any] func(T) error

// AsyncHandler receives a published payload and may return a channel that
// delivers its completion. A nil channel means the handler finished
// synchronously.
type AsyncHandler[T any] func(ctx context.Context, payload T) <-chan error

// Registration is the revocable handle returned by Subscribe.
type Registration struct {
	release func() error
	done    bool
}

// Dispose revokes the subscription. Calling Dispose more than once is a
// no-op.
func (r *Registration) Dispose() {
	if r == nil || r.done {
		return
	}
	r.done = true
	if r.release != nil {
		_ = r.release()
	}
}

// Active reports whether the registration has not been revoked.
func (r *Registration) Active() bool {
	return r != nil && !r.done
}

type entry[T any] struct {
	reg   *Registration
	sync  Handler[T]
	async AsyncHandler[T]
}

// Source dispatches payloads to its subscribers in subscription order.
//
// Source is NOT thread-safe. It must only be used from the UI goroutine.
type Source[T any] struct {
	entries []*entry[T]
	depth   int
	dirty   bool
}

// Subscribe registers h and returns its registration.
func (s *Source[T]) Subscribe(h Handler[T]) *Registration {
	return s.add(&entry[T]{sync: h})
}

// SubscribeAsync registers an asynchronous handler. Publish ignores the
// channel it returns; PublishAsync waits for it.
func (s *Source[T]) SubscribeAsync(h AsyncHandler[T]) *Registration {
	return s.add(&entry[T]{async: h})
}

func (s *Source[T]) add(e *entry[T]) *Registration {
	reg := &Registration{}
	e.reg = reg
	reg.release = func() error { return s.Unsubscribe(reg) }
	s.entries = append(s.entries, e)
	return reg
}

// Unsubscribe removes the subscription behind reg. Removing a registration
// that does not belong to this source, or was already removed, is a misuse
// error.
//
// During a dispatch the slot is tombstoned rather than removed so the pass
// in progress keeps its indices; the list is compacted once the outermost
// dispatch returns.
func (s *Source[T]) Unsubscribe(reg *Registration) error {
	for i, e := range s.entries {
		if e == nil || e.reg != reg {
			continue
		}
		reg.done = true
		if s.depth > 0 {
			s.entries[i] = nil
			s.dirty = true
		} else {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
		}
		return nil
	}
	return errors.New("event.Unsubscribe", errors.KindMisuse, "", "handler is not subscribed")
}

// Len returns the number of live subscriptions.
func (s *Source[T]) Len() int {
	n := 0
	for _, e := range s.entries {
		if e != nil {
			n++
		}
	}
	return n
}

// Publish invokes every subscriber with payload. The first handler error
// aborts the pass; later handlers are not invoked.
func (s *Source[T]) Publish(payload T) error {
	_, err := s.dispatch(context.Background(), payload, false)
	return err
}

// PublishAsync dispatches like Publish, then waits until every pending
// asynchronous handler has completed or ctx is done. It returns the first
// error observed.
func (s *Source[T]) PublishAsync(ctx context.Context, payload T) error {
	pending, err := s.dispatch(ctx, payload, true)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range pending {
		g.Go(func() error {
			select {
			case err := <-ch:
				return err
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	return g.Wait()
}

func (s *Source[T]) dispatch(ctx context.Context, payload T, collect bool) ([]<-chan error, error) {
	s.depth++
	defer s.endDispatch()

	var pending []<-chan error
	// Handlers subscribed during this pass are not part of it.
	n := len(s.entries)
	for i := 0; i < n; i++ {
		e := s.entries[i]
		if e == nil {
			continue
		}
		if e.sync != nil {
			if err := e.sync(payload); err != nil {
				return pending, err
			}
			continue
		}
		if ch := e.async(ctx, payload); ch != nil && collect {
			pending = append(pending, ch)
		}
	}
	return pending, nil
}

func (s *Source[T]) endDispatch() {
	s.depth--
	if s.depth > 0 || !s.dirty {
		return
	}
	live := s.entries[:0]
	for _, e := range s.entries {
		if e != nil {
			live = append(live, e)
		}
	}
	for i := len(live); i < len(s.entries); i++ {
		s.entries[i] = nil
	}
	s.entries = live
	s.dirty = false
}
