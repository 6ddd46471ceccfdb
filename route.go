// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"code.hybscloud.com/iox"
)

// PublishNext claims a slot, stores v as a next-value signal, and
// publishes it.
func PublishNext[T any](r *Ring[T], v T) {
	seq := r.Next()
	s := r.Get(seq)
	s.Type = SignalNext
	s.Value = v
	s.Err = nil
	r.Publish(seq)
}

// PublishNextRequest is PublishNext with eager demand replenishment:
// after claiming, any remaining ring capacity is immediately re-requested
// from sub so the pipe stays full. sub may be nil.
func PublishNextRequest[T any](r *Ring[T], v T, sub Subscription) {
	seq := r.Next()
	s := r.Get(seq)
	s.Type = SignalNext
	s.Value = v
	s.Err = nil
	if sub != nil {
		if remaining := r.CachedRemainingCapacity(); remaining > 0 {
			sub.Request(remaining)
		}
	}
	r.Publish(seq)
}

// PublishError claims a slot, stores err as an error signal, and
// publishes it. The value field is cleared so the slot does not keep a
// stale reference.
func PublishError[T any](r *Ring[T], err error) {
	seq := r.Next()
	s := r.Get(seq)
	var zero T
	s.Type = SignalError
	s.Value = zero
	s.Err = err
	r.Publish(seq)
}

// PublishComplete claims a slot, stores a completion signal, and
// publishes it. Both payload fields are cleared.
func PublishComplete[T any](r *Ring[T]) {
	seq := r.Next()
	s := r.Get(seq)
	var zero T
	s.Type = SignalComplete
	s.Value = zero
	s.Err = nil
	r.Publish(seq)
}

// Route dispatches a populated slot to sub by tag. Next is checked
// first as the statistically common path, Complete second, Error last;
// the ordering is a branch-prediction convention, not a correctness
// requirement.
func Route[T any](s *Signal[T], sub Subscriber[T]) {
	if s.Type == SignalNext {
		sub.OnNext(s.Value)
	} else if s.Type == SignalComplete {
		sub.OnComplete()
	} else if s.Type == SignalError {
		sub.OnError(s.Err)
	}
}

// RouteOnce dispatches like Route but clears the slot's payload before
// dispatch, so a reused slot never leaks a delivered value's reference.
// If the subscriber panics the payload is restored before re-raising,
// leaving the slot intact for the producer.
func RouteOnce[T any](s *Signal[T], sub Subscriber[T]) {
	v := s.Value
	var zero T
	s.Value = zero
	defer func() {
		if p := recover(); p != nil {
			s.Value = v
			panic(p)
		}
	}()
	if s.Type == SignalNext {
		sub.OnNext(v)
	} else if s.Type == SignalComplete {
		sub.OnComplete()
	} else if s.Type == SignalError {
		sub.OnError(s.Err)
	}
}

// AwaitDemandOrTerminal parks the calling consumer while pending is
// negative (no authorized demand yet), polling the barrier for a
// terminal signal arriving in the meantime. Returns true once demand is
// available. Returns false after dispatching a terminal signal to sub,
// or on an alert, in which case consuming must stop.
//
// This is the crux of the backpressure contract: a consumer is never
// handed a next-value signal before it holds demand for it, yet
// completion and errors unblock it promptly even at zero demand.
func AwaitDemandOrTerminal[T any](pending *Sequence, r *Ring[T], b *Barrier, sub Subscriber[T]) bool {
	// An already published terminal sits at the cursor; otherwise the
	// one to watch for is the next publication. An empty ring reads a
	// zero slot, which tags as a next-value signal.
	waited := r.Cursor()
	if r.Get(waited).Type == SignalNext {
		waited++
	}
	var bo iox.Backoff
	for pending.Load() < 0 {
		switch _, err := b.TryWaitFor(waited); {
		case err == nil:
			s := r.Get(waited)
			if s.Type == SignalComplete {
				sub.OnComplete()
				return false
			}
			if s.Type == SignalError {
				sub.OnError(s.Err)
				return false
			}
			// a plain value arrived; the terminal, if any, comes later
			waited++
		case !iox.IsWouldBlock(err):
			return false
		}
		bo.Wait()
	}
	return true
}
