// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// fanSignal is the unit carried through the fan-in gate before it is
// republished into the ring by the drainer.
type fanSignal[T any] struct {
	kind SignalType
	v    T
	err  error
}

// Fanin is the serialization point for multiple producers feeding one
// ring: a bounded lock-free MPSC queue drained by a single goroutine
// that owns the ring's single-writer claim right. Producers stay
// non-blocking; the drainer absorbs the ring's backpressure.
//
// A terminal signal (Error or Complete) closes the gate: it is
// republished after everything enqueued before it, then the drainer
// exits. Publishing after a terminal signal is a programming error.
type Fanin[T any] struct {
	ring   *Ring[T]
	q      lfq.Queue[fanSignal[T]]
	closed atomix.Uint32
}

// NewFanin creates a fan-in gate over ring and starts its drainer
// goroutine. capacity bounds the gate queue and rounds up to the next
// power of two.
//
// The drainer runs until a terminal signal closes the gate: a Fanin
// whose producers never call Error or Complete keeps its drainer parked
// for the life of the process. The owner that creates the gate is
// responsible for eventually terminating it.
func NewFanin[T any](ring *Ring[T], capacity int) *Fanin[T] {
	f := &Fanin[T]{ring: ring, q: lfq.NewMPSC[fanSignal[T]](capacity)}
	go f.drain()
	return f
}

// Publish enqueues a next-value signal. Non-blocking: returns
// iox.ErrWouldBlock when the gate is full; retry after the drainer makes
// progress. Safe for concurrent use by any number of producers.
func (f *Fanin[T]) Publish(v T) error {
	if f.closed.Load() != 0 {
		panic("strm: publish after terminal signal")
	}
	sig := fanSignal[T]{kind: SignalNext, v: v}
	return f.q.Enqueue(&sig)
}

// Error enqueues a terminal error signal and closes the gate.
func (f *Fanin[T]) Error(err error) error {
	sig := fanSignal[T]{kind: SignalError, err: err}
	return f.terminal(&sig)
}

// Complete enqueues a terminal completion signal and closes the gate.
func (f *Fanin[T]) Complete() error {
	sig := fanSignal[T]{kind: SignalComplete}
	return f.terminal(&sig)
}

func (f *Fanin[T]) terminal(sig *fanSignal[T]) error {
	if f.closed.Load() != 0 {
		panic("strm: publish after terminal signal")
	}
	if err := f.q.Enqueue(sig); err != nil {
		return err
	}
	f.closed.Store(1)
	// no producer enqueues past a terminal signal; let the drainer
	// bypass the queue's idle-producer threshold
	if d, ok := f.q.(lfq.Drainer); ok {
		d.Drain()
	}
	return nil
}

// drain republishes gate signals into the ring in arrival order and
// exits after the terminal signal.
func (f *Fanin[T]) drain() {
	var bo iox.Backoff
	for {
		sig, err := f.q.Dequeue()
		if err != nil {
			bo.Wait()
			continue
		}
		bo.Reset()
		switch sig.kind {
		case SignalNext:
			PublishNext(f.ring, sig.v)
		case SignalError:
			PublishError(f.ring, sig.err)
			return
		case SignalComplete:
			PublishComplete(f.ring)
			return
		}
	}
}
