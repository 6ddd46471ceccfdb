// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm_test

import (
	"sync"
	"time"

	"code.hybscloud.com/strm"
)

// recorder is a Subscriber double that records every received signal.
// Safe for use from a reader goroutine.
type recorder[T any] struct {
	// request, when non-zero, is issued on OnSubscribe.
	request int64

	mu        sync.Mutex
	sub       strm.Subscription
	values    []T
	errs      []error
	completes int
}

func (r *recorder[T]) OnSubscribe(s strm.Subscription) {
	r.mu.Lock()
	r.sub = s
	r.mu.Unlock()
	if r.request != 0 {
		s.Request(r.request)
	}
}

func (r *recorder[T]) OnNext(v T) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
}

func (r *recorder[T]) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *recorder[T]) OnComplete() {
	r.mu.Lock()
	r.completes++
	r.mu.Unlock()
}

func (r *recorder[T]) snapshot() (values []T, errs []error, completes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...), append([]error(nil), r.errs...), r.completes
}

// subscription returns the recorded Subscription, waiting briefly for
// OnSubscribe when the subscriber runs on another goroutine.
func (r *recorder[T]) subscription() strm.Subscription {
	for range 1000 {
		r.mu.Lock()
		s := r.sub
		r.mu.Unlock()
		if s != nil {
			return s
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}

// fakeSubscription records demand requests and cancellations.
type fakeSubscription struct {
	mu       sync.Mutex
	requests []int64
	cancels  int
}

func (s *fakeSubscription) Request(n int64) {
	s.mu.Lock()
	s.requests = append(s.requests, n)
	s.mu.Unlock()
}

func (s *fakeSubscription) Cancel() {
	s.mu.Lock()
	s.cancels++
	s.mu.Unlock()
}

func (s *fakeSubscription) snapshot() (requests []int64, cancels int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.requests...), s.cancels
}

// manualSource is a Publisher double whose signals the test drives by
// hand through the captured subscriber.
type manualSource[T any] struct {
	mu   sync.Mutex
	subs []strm.Subscriber[T]
}

func (s *manualSource[T]) Subscribe(sub strm.Subscriber[T]) {
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}

func (s *manualSource[T]) last() strm.Subscriber[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[len(s.subs)-1]
}

// boundedSource is manualSource advertising a buffering bound.
type boundedSource[T any] struct {
	manualSource[T]
	capacity int64
}

func (s *boundedSource[T]) Capacity() int64 { return s.capacity }

// episode is one subscription's worth of scripted signals.
type episode[T any] struct {
	values   []T
	err      error
	complete bool
}

// scriptedSource replays one episode per Subscribe call, synchronously:
// OnSubscribe, the values, then the terminal signal if any. Used to
// exercise retry resubscription.
type scriptedSource[T any] struct {
	episodes []episode[T]
	calls    int
	subs     []*fakeSubscription
}

func (s *scriptedSource[T]) Subscribe(sub strm.Subscriber[T]) {
	i := s.calls
	s.calls++
	fs := &fakeSubscription{}
	s.subs = append(s.subs, fs)
	sub.OnSubscribe(fs)
	if i >= len(s.episodes) {
		return
	}
	ep := s.episodes[i]
	for _, v := range ep.values {
		sub.OnNext(v)
	}
	if ep.err != nil {
		sub.OnError(ep.err)
	} else if ep.complete {
		sub.OnComplete()
	}
}

// manualTimer is a Timer double fired by hand.
type manualTimer struct {
	mu        sync.Mutex
	scheduled []*manualHandle
}

type manualHandle struct {
	t         *manualTimer
	fn        func()
	delay     time.Duration
	cancelled bool
	fired     bool
}

func (t *manualTimer) Submit(fn func(), delay time.Duration) strm.TimerHandle {
	h := &manualHandle{t: t, fn: fn, delay: delay}
	t.mu.Lock()
	t.scheduled = append(t.scheduled, h)
	t.mu.Unlock()
	return h
}

func (h *manualHandle) Cancel() {
	h.t.mu.Lock()
	h.cancelled = true
	h.t.mu.Unlock()
}

// fire runs the most recently scheduled live callback, emulating timer
// expiry. Reports whether a callback ran.
func (t *manualTimer) fire() bool {
	t.mu.Lock()
	var h *manualHandle
	for i := len(t.scheduled) - 1; i >= 0; i-- {
		if !t.scheduled[i].cancelled && !t.scheduled[i].fired {
			h = t.scheduled[i]
			break
		}
	}
	if h != nil {
		h.fired = true
	}
	t.mu.Unlock()
	if h == nil {
		return false
	}
	h.fn()
	return true
}

// eventually polls cond until it holds or the deadline passes.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}
