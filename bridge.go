// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import "sync"

// Bridge adapts a demand-signaling upstream publisher into a ring,
// requesting exactly as much upstream data as the ring has room for and
// republishing arrivals in counted batches. The returned publisher
// signals the bridge's own lifecycle: OnComplete after the upstream
// completes and the final partial batch is published, OnError when the
// upstream fails (the error bypasses the ring) or when the upstream
// overruns its requested demand (ErrCapacityExceeded).
//
// The batch size is the minimum of the upstream's advertised capacity
// (when it implements Bounded) and the ring capacity.
func Bridge[T any](source Publisher[T], ring *Ring[T]) Publisher[struct{}] {
	capacity := ring.Capacity()
	if b, ok := source.(Bounded); ok && b.Capacity() < capacity {
		capacity = b.Capacity()
	}
	return &bridgePublisher[T]{source: source, ring: ring, capacity: capacity}
}

type bridgePublisher[T any] struct {
	source   Publisher[T]
	ring     *Ring[T]
	capacity int64
}

// Subscribe implements Publisher.
func (p *bridgePublisher[T]) Subscribe(s Subscriber[struct{}]) {
	b := &bridgeSubscriber[T]{p: p, down: s}
	s.OnSubscribe(bridgeControl[T]{b})
	p.source.Subscribe(b)
}

// bridgeSubscriber owns the ring's single-writer claim right for the
// lifetime of the bridge: all claims and publishes happen on the
// upstream's signal path.
type bridgeSubscriber[T any] struct {
	p    *bridgePublisher[T]
	down Subscriber[struct{}]

	mu         sync.Mutex
	up         Subscription
	terminated bool

	// batch state, upstream signal path only
	pending Sequence // values still expected in the current batch
	lo, hi  int64    // claimed sequence range of the current batch
	claimed bool
}

// OnSubscribe implements Subscriber. Requests the first full batch.
func (b *bridgeSubscriber[T]) OnSubscribe(s Subscription) {
	b.mu.Lock()
	b.up = s
	b.mu.Unlock()
	b.refill()
}

// refill claims the next batch range in the ring and requests matching
// upstream demand. Nothing is requested after cancellation or a
// terminal signal.
func (b *bridgeSubscriber[T]) refill() {
	b.mu.Lock()
	up := b.up
	b.mu.Unlock()
	if up == nil {
		return
	}
	n := b.p.capacity
	b.hi = b.p.ring.NextN(n)
	b.lo = b.hi - n + 1
	b.claimed = true
	b.pending.Store(n)
	up.Request(n)
}

// OnNext implements Subscriber. Fills the slot for this delivery; when
// the batch count reaches zero the whole range is published at once and
// a fresh batch is requested. A delivery past the requested demand is a
// protocol violation: the bridge cancels upstream and fails with
// ErrCapacityExceeded instead of buffering unboundedly. A delivery after
// a terminal signal or a cancel is dropped: the batch claims were
// already released and may belong to a successor producer.
func (b *bridgeSubscriber[T]) OnNext(v T) {
	b.mu.Lock()
	terminated := b.terminated
	b.mu.Unlock()
	if terminated {
		return
	}
	left := b.pending.Add(-1)
	if left < 0 {
		b.fail(ErrCapacityExceeded)
		return
	}
	s := b.p.ring.Get(b.hi - left)
	s.Type = SignalNext
	s.Value = v
	s.Err = nil
	if left == 0 {
		b.p.ring.PublishRange(b.lo, b.hi)
		b.refill()
	}
}

// OnComplete implements Subscriber. Publishes the partially filled
// batch, releases the unfilled claims, and completes downstream. After a
// downstream cancel the completion stays silent but still releases the
// claims: a cancel cannot rewind itself, it races the upstream, so the
// release happens here on the upstream's signal path.
func (b *bridgeSubscriber[T]) OnComplete() {
	b.mu.Lock()
	if b.terminated {
		b.mu.Unlock()
		b.release()
		return
	}
	b.terminated = true
	b.up = nil
	b.mu.Unlock()
	if b.claimed {
		b.claimed = false
		filled := b.p.capacity - b.pending.Load()
		published := b.lo + filled - 1
		if filled > 0 {
			b.p.ring.PublishRange(b.lo, published)
		}
		b.p.ring.rewind(published)
	}
	b.down.OnComplete()
}

// release gives unpublished batch claims back to the ring. Upstream
// signal path only; a no-op once the claims are gone.
func (b *bridgeSubscriber[T]) release() {
	if b.claimed {
		b.claimed = false
		b.p.ring.rewind(b.p.ring.Cursor())
	}
}

// OnError implements Subscriber. Propagates immediately without touching
// the ring; unpublished claims are released.
func (b *bridgeSubscriber[T]) OnError(err error) {
	b.fail(err)
}

func (b *bridgeSubscriber[T]) fail(err error) {
	b.mu.Lock()
	if b.terminated {
		b.mu.Unlock()
		b.release()
		return
	}
	b.terminated = true
	up := b.up
	b.up = nil
	b.mu.Unlock()
	if up != nil {
		up.Cancel()
	}
	b.release()
	b.down.OnError(err)
}

// bridgeControl is the subscription handed to the bridge's downstream
// observer. The bridge paces upstream demand by ring capacity itself, so
// Request is a no-op; Cancel stops the upstream.
type bridgeControl[T any] struct {
	b *bridgeSubscriber[T]
}

// Request implements Subscription.
func (c bridgeControl[T]) Request(n int64) {
	if n < 1 {
		panic("strm: request count must be positive")
	}
}

// Cancel implements Subscription.
func (c bridgeControl[T]) Cancel() {
	c.b.mu.Lock()
	up := c.b.up
	c.b.up = nil
	c.b.terminated = true
	c.b.mu.Unlock()
	if up != nil {
		up.Cancel()
	}
}
