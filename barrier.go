// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// Barrier is a consumer-group view of the sequences that are safe to
// consume: the ring cursor plus any dependent consumer sequences that
// must be respected (for readers chained behind other readers).
//
// The alert flag is the single cooperative cancellation signal; every
// wait loop re-checks it on each iteration and exits promptly with
// ErrAlerted in lieu of a deadline.
type Barrier struct {
	cursor  *Sequence
	deps    []*Sequence
	alerted atomix.Uint32
}

// NewBarrier returns a barrier over the ring cursor and the given
// dependent sequences.
func (r *Ring[T]) NewBarrier(deps ...*Sequence) *Barrier {
	return &Barrier{cursor: &r.cursor, deps: deps}
}

// WaitFor blocks until the highest safely consumable sequence reaches at
// least seq and returns it. Parks with iox.Backoff between checks.
// Returns ErrAlerted when the barrier is alerted while waiting.
func (b *Barrier) WaitFor(seq int64) (int64, error) {
	var bo iox.Backoff
	for {
		if err := b.CheckAlert(); err != nil {
			return 0, err
		}
		if avail := b.available(); avail >= seq {
			return avail, nil
		}
		bo.Wait()
	}
}

// TryWaitFor polls once: the highest safely consumable sequence when it
// has reached seq, ErrAlerted on an alert, iox.ErrWouldBlock otherwise.
// For custom spin loops that interleave other work.
func (b *Barrier) TryWaitFor(seq int64) (int64, error) {
	if err := b.CheckAlert(); err != nil {
		return 0, err
	}
	if avail := b.available(); avail >= seq {
		return avail, nil
	}
	return 0, iox.ErrWouldBlock
}

// available is the minimum over the cursor and all dependents.
func (b *Barrier) available() int64 {
	avail := b.cursor.Load()
	for _, d := range b.deps {
		if v := d.Load(); v < avail {
			avail = v
		}
	}
	return avail
}

// CheckAlert returns ErrAlerted when the barrier has been alerted.
// Non-blocking.
func (b *Barrier) CheckAlert() error {
	if b.alerted.Load() != 0 {
		return ErrAlerted
	}
	return nil
}

// Alert wakes any consumer waiting on the barrier with ErrAlerted.
// Used for shutdown and cancellation, never for data errors.
func (b *Barrier) Alert() { b.alerted.Store(1) }

// ClearAlert re-arms the barrier after an alert has been handled.
func (b *Barrier) ClearAlert() { b.alerted.Store(0) }

// Alerted reports whether the barrier is currently alerted.
func (b *Barrier) Alerted() bool { return b.alerted.Load() != 0 }
