// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"code.hybscloud.com/iox"
)

// Reader is a registered consumer of a Ring: a gating sequence the
// producer must not overrun, a barrier to wait on, and a demand counter
// tracking how many next-value signals the subscriber has authorized.
//
// Reader implements Subscription; Run hands it to the subscriber so the
// subscriber drives demand and may cancel cooperatively.
type Reader[T any] struct {
	ring    *Ring[T]
	barrier *Barrier
	gate    *Sequence
	pending Sequence
	serial  Serial
}

// NewReader registers a consumer on the ring: its gating sequence starts
// at the current cursor and its demand counter starts empty. Passing
// dependent sequences chains this reader behind other consumers — it
// then only observes sequences those have already passed.
func (r *Ring[T]) NewReader(deps ...*Sequence) *Reader[T] {
	rd := &Reader[T]{
		ring:    r,
		barrier: r.NewBarrier(deps...),
		gate:    NewSequence(r.Cursor()),
		serial:  r.nextSerial(),
	}
	rd.pending.Store(Initial)
	r.AddGate(rd.gate)
	return rd
}

// Serial returns the serial number assigned to this reader.
func (rd *Reader[T]) Serial() Serial { return rd.serial }

// Gate exposes the reader's progress sequence so downstream readers can
// chain behind it.
func (rd *Reader[T]) Gate() *Sequence { return rd.gate }

// Barrier exposes the reader's barrier for out-of-band alerting.
func (rd *Reader[T]) Barrier() *Barrier { return rd.barrier }

// Request authorizes n more next-value deliveries, saturating at
// Unbounded. n must be positive.
func (rd *Reader[T]) Request(n int64) {
	if n < 1 {
		panic("strm: request count must be positive")
	}
	// first request replaces the "no demand yet" marker
	if !rd.pending.CompareAndSwap(Initial, n) {
		rd.pending.AddSaturating(n)
	}
}

// Cancel alerts the reader's barrier. A running Run loop exits silently
// on the next suspension point and unregisters the gate.
func (rd *Reader[T]) Cancel() { rd.barrier.Alert() }

// Run drives the consume loop on the calling goroutine: wait for
// authorized demand, wait for the next published sequence, dispatch it,
// advance the gate. Returns after dispatching a terminal signal or when
// the reader is cancelled. The gate is unregistered on return so a
// stopped reader never stalls the producer.
func (rd *Reader[T]) Run(sub Subscriber[T]) {
	defer rd.ring.RemoveGate(rd.gate)
	sub.OnSubscribe(rd)
	if !AwaitDemandOrTerminal(&rd.pending, rd.ring, rd.barrier, sub) {
		return
	}
	next := rd.gate.Load() + 1
	for {
		avail, err := rd.barrier.WaitFor(next)
		if err != nil {
			return // alerted: cancellation, exit without OnError
		}
		for next <= avail {
			s := rd.ring.Get(next)
			if s.Type == SignalNext && !rd.takeDemand() {
				return
			}
			RouteOnce(s, sub)
			rd.gate.Store(next)
			if s.Type != SignalNext {
				return
			}
			next++
		}
	}
}

// takeDemand claims one unit of authorized demand, parking with
// iox.Backoff until the subscriber has requested more. Returns false
// when the reader is cancelled while parked.
func (rd *Reader[T]) takeDemand() bool {
	var bo iox.Backoff
	for {
		cur := rd.pending.Load()
		if cur == Unbounded {
			return true
		}
		if cur > 0 && rd.pending.CompareAndSwap(cur, cur-1) {
			return true
		}
		if err := rd.barrier.CheckAlert(); err != nil {
			return false
		}
		bo.Wait()
	}
}
