// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"sync"
	"time"
)

// BatchConfig configures a Batch consumer.
type BatchConfig[T any] struct {
	// Size is the value count that closes a window. Must be positive.
	Size int
	// Timespan optionally also closes a window this long after its
	// first value arrives.
	Timespan time.Duration
	// Timer schedules the Timespan flush; SystemTimer when nil.
	Timer Timer
	// First is called with the first value of each window.
	First func(v T)
	// Each is called with every value.
	Each func(v T)
	// Flush is called once per closed window, and once more on
	// completion for the trailing partial window.
	Flush func()
	// SkipEmptyFlush suppresses the completion flush when the trailing
	// window holds no values.
	SkipEmptyFlush bool
	// Downstream optionally receives the terminal signals.
	Downstream Subscriber[T]
}

// Batch groups a demand-driven signal sequence into fixed-size and/or
// fixed-time windows, invoking the configured first/each/flush hooks.
//
// The window index is mutated from two independent triggers — value
// arrival and timer expiry — so both close paths run under one mutex:
// at most one of them closes a given window, never both.
type Batch[T any] struct {
	cfg BatchConfig[T]

	mu    sync.Mutex
	index int
	reg   TimerHandle

	sub Subscription
}

// NewBatch returns a batch consumer over cfg.
func NewBatch[T any](cfg BatchConfig[T]) *Batch[T] {
	if cfg.Size < 1 {
		panic("strm: batch size must be positive")
	}
	if cfg.Timespan > 0 && cfg.Timer == nil {
		cfg.Timer = SystemTimer{}
	}
	return &Batch[T]{cfg: cfg}
}

// OnSubscribe implements Subscriber.
func (b *Batch[T]) OnSubscribe(s Subscription) {
	b.sub = s
	if d := b.cfg.Downstream; d != nil {
		d.OnSubscribe(s)
	}
}

// OnNext implements Subscriber. Opens a window on the first value
// (scheduling the Timespan flush when configured) and closes it when
// Size values have arrived, cancelling any pending timer flush.
func (b *Batch[T]) OnNext(v T) {
	b.mu.Lock()
	b.index++
	index := b.index
	if index == 1 && b.cfg.Timespan > 0 {
		b.reg = b.cfg.Timer.Submit(b.timedFlush, b.cfg.Timespan)
	}
	closed := index == b.cfg.Size
	if closed {
		if b.reg != nil {
			b.reg.Cancel()
			b.reg = nil
		}
		b.index = 0
	}
	b.mu.Unlock()

	if index == 1 && b.cfg.First != nil {
		b.cfg.First(v)
	}
	if b.cfg.Each != nil {
		b.cfg.Each(v)
	}
	if closed && b.cfg.Flush != nil {
		b.cfg.Flush()
	}
}

// timedFlush closes the window on timer expiry. No-op when the window
// was already closed by count.
func (b *Batch[T]) timedFlush() {
	b.mu.Lock()
	if b.index == 0 {
		b.mu.Unlock()
		return
	}
	b.index = 0
	b.reg = nil
	b.mu.Unlock()
	if b.cfg.Flush != nil {
		b.cfg.Flush()
	}
}

// OnComplete implements Subscriber. Flushes the trailing window — by
// default even an empty one — before propagating completion.
func (b *Batch[T]) OnComplete() {
	b.mu.Lock()
	if b.reg != nil {
		b.reg.Cancel()
		b.reg = nil
	}
	empty := b.index == 0
	b.index = 0
	b.mu.Unlock()
	if b.cfg.Flush != nil && !(empty && b.cfg.SkipEmptyFlush) {
		b.cfg.Flush()
	}
	if d := b.cfg.Downstream; d != nil {
		d.OnComplete()
	}
}

// OnError implements Subscriber. Cancels any pending timer flush and
// propagates the error; no flush is emitted for the aborted window.
func (b *Batch[T]) OnError(err error) {
	b.mu.Lock()
	if b.reg != nil {
		b.reg.Cancel()
		b.reg = nil
	}
	b.index = 0
	b.mu.Unlock()
	if d := b.cfg.Downstream; d != nil {
		d.OnError(err)
	}
}
