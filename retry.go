// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// UnlimitedRetries removes the numeric retry budget.
const UnlimitedRetries int64 = -1

// Retry resubscribes to a remembered root source when the upstream
// errors, bounded by a numeric budget and/or a predicate. A delivered
// value resets the consecutive-error count. The operator itself is
// handed back to the root on resubscription, so outstanding downstream
// demand survives unchanged.
type Retry[T any] struct {
	root    Publisher[T]
	budget  int64
	matcher func(error) bool

	down    Subscriber[T]
	pending Sequence
	done    atomix.Uint32

	mu       sync.Mutex
	upstream Subscription
	retries  int64
	// trampoline state: a retry arriving while a resubscription is
	// already on the stack queues one more iteration instead of
	// recursing, so a synchronous always-erroring source cannot grow
	// the stack with the error run.
	resubscribing bool
	again         bool
}

// NewRetry returns a retry operator over root. budget is the number of
// retries allowed per consecutive-error run (UnlimitedRetries for no
// cap). matcher, when non-nil, can authorize a retry even after the
// budget is exhausted; it is consulted with the error cause, so it can
// decline non-retryable causes such as ErrCapacityExceeded.
func NewRetry[T any](root Publisher[T], budget int64, matcher func(error) bool) *Retry[T] {
	return &Retry[T]{root: root, budget: budget, matcher: matcher}
}

// Subscribe attaches downstream and subscribes the operator to the root
// source. The downstream drives demand through the operator.
func (r *Retry[T]) Subscribe(down Subscriber[T]) {
	r.down = down
	down.OnSubscribe(r)
	r.root.Subscribe(r)
}

// OnSubscribe implements Subscriber. Requests the outstanding demand
// plus one: the surplus budgets for one retry-driven resubscription
// without starving downstream demand.
func (r *Retry[T]) OnSubscribe(s Subscription) {
	r.mu.Lock()
	r.upstream = s
	r.mu.Unlock()
	req := r.pending.Load()
	if req < 0 {
		req = 0
	}
	if req != Unbounded {
		req++
	}
	s.Request(req)
}

// OnNext implements Subscriber. A value ends the error run.
func (r *Retry[T]) OnNext(v T) {
	if r.done.Load() != 0 {
		return
	}
	r.mu.Lock()
	r.retries = 0
	r.mu.Unlock()
	r.down.OnNext(v)
	if r.pending.Load() != Unbounded {
		r.pending.Add(-1)
	}
}

// OnError implements Subscriber. Either terminates (budget exhausted and
// the predicate, if any, rejects) or cancels the current upstream and
// resubscribes to the root with this same instance.
func (r *Retry[T]) OnError(err error) {
	if r.done.Load() != 0 {
		return
	}
	r.mu.Lock()
	r.retries++
	exhausted := r.budget != UnlimitedRetries && r.retries > r.budget
	r.mu.Unlock()

	if exhausted && (r.matcher == nil || !r.matcher(err)) {
		r.mu.Lock()
		r.retries = 0
		r.upstream = nil
		r.mu.Unlock()
		r.done.Store(1)
		r.down.OnError(err)
		return
	}

	r.mu.Lock()
	up := r.upstream
	r.upstream = nil
	if r.resubscribing {
		// a resubscription loop below us on the stack picks this up
		r.again = true
		r.mu.Unlock()
		if up != nil {
			up.Cancel()
		}
		return
	}
	r.resubscribing = true
	r.mu.Unlock()
	if up != nil {
		up.Cancel()
	}
	for {
		r.root.Subscribe(r)
		r.mu.Lock()
		if !r.again || r.done.Load() != 0 {
			r.resubscribing = false
			r.again = false
			r.mu.Unlock()
			return
		}
		r.again = false
		r.mu.Unlock()
	}
}

// OnComplete implements Subscriber.
func (r *Retry[T]) OnComplete() {
	if r.done.Load() != 0 {
		return
	}
	r.done.Store(1)
	r.down.OnComplete()
}

// Request implements Subscription: adds n to the outstanding demand,
// saturating at Unbounded instead of wrapping, and forwards the request
// upstream. n must be positive.
func (r *Retry[T]) Request(n int64) {
	if n < 1 {
		panic("strm: request count must be positive")
	}
	r.pending.AddSaturating(n)
	r.mu.Lock()
	up := r.upstream
	r.mu.Unlock()
	if up != nil {
		up.Request(n)
	}
}

// Cancel implements Subscription.
func (r *Retry[T]) Cancel() {
	r.done.Store(1)
	r.mu.Lock()
	up := r.upstream
	r.upstream = nil
	r.mu.Unlock()
	if up != nil {
		up.Cancel()
	}
}
