// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"sync"
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// Ring is a fixed-capacity circular buffer of reused Signal slots with a
// single-writer producer cursor and registered consumer gating
// sequences. Signals become visible to consumers strictly in publish
// order: the cursor only moves forward.
//
// Claim discipline: exactly one logical producer may call Next, NextN or
// TryNext on a given Ring. External fan-in must serialize before
// claiming; Fanin provides that serialization point. A claimed sequence
// must be published — an unpublished claim stalls every dependent
// consumer permanently.
type Ring[T any] struct {
	slots []Signal[T]
	mask  int64

	cursor Sequence // published high-water mark

	// producer-owned; no concurrent access by contract
	next       int64 // highest claimed sequence
	cachedGate int64 // cached view of the slowest gating sequence

	mu    sync.Mutex // guards gate registration
	gates atomic.Pointer[[]*Sequence]

	serials atomix.Uint32 // reader serial allocator
}

// NewRing creates a ring with the given capacity. The capacity must be a
// power of two of at least 2, otherwise ErrInvalidCapacity is returned.
func NewRing[T any](capacity int) (*Ring[T], error) {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return nil, ErrInvalidCapacity
	}
	r := &Ring[T]{
		slots:      make([]Signal[T], capacity),
		mask:       int64(capacity) - 1,
		next:       Initial,
		cachedGate: Initial,
	}
	r.cursor.Store(Initial)
	r.gates.Store(&[]*Sequence{})
	return r, nil
}

// Capacity returns the fixed slot count.
func (r *Ring[T]) Capacity() int64 { return r.mask + 1 }

// Cursor returns the published high-water mark.
func (r *Ring[T]) Cursor() int64 { return r.cursor.Load() }

// CursorSequence returns the cursor as a dependency for barriers over
// other rings.
func (r *Ring[T]) CursorSequence() *Sequence { return &r.cursor }

// Get returns the slot claimed for seq. The producer populates the slot
// and then publishes seq to make it visible.
func (r *Ring[T]) Get(seq int64) *Signal[T] { return &r.slots[seq&r.mask] }

// Next claims the next sequence for the sole producer and returns it.
func (r *Ring[T]) Next() int64 { return r.NextN(1) }

// NextN claims the next n sequences and returns the highest. When the
// claim would overwrite a slot not yet consumed by every registered
// gating sequence, NextN parks with iox.Backoff until the slowest
// consumer advances. It never takes a lock.
func (r *Ring[T]) NextN(n int64) int64 {
	if n < 1 {
		panic("strm: claim count must be positive")
	}
	hi := r.next + n
	if wrap := hi - r.Capacity(); wrap > r.cachedGate {
		var bo iox.Backoff
		for {
			r.cachedGate = r.minGate(r.next)
			if wrap <= r.cachedGate {
				break
			}
			bo.Wait()
		}
	}
	r.next = hi
	return hi
}

// TryNext claims the next sequence without waiting. Returns
// iox.ErrWouldBlock when the claim would overwrite an unconsumed slot;
// retry after consumers make progress.
func (r *Ring[T]) TryNext() (int64, error) {
	hi := r.next + 1
	if wrap := hi - r.Capacity(); wrap > r.cachedGate {
		r.cachedGate = r.minGate(r.next)
		if wrap > r.cachedGate {
			return 0, iox.ErrWouldBlock
		}
	}
	r.next = hi
	return hi, nil
}

// Publish makes the slot claimed for seq visible to consumers.
func (r *Ring[T]) Publish(seq int64) { r.cursor.Store(seq) }

// PublishRange makes the slots lo..hi visible as one batch.
func (r *Ring[T]) PublishRange(lo, hi int64) {
	if hi < lo {
		panic("strm: publish range inverted")
	}
	r.cursor.Store(hi)
}

// rewind releases claimed but never-published sequences above seq,
// keeping the claim/publish pairing scoped when a producer terminates
// mid-batch. seq must be at or above the published cursor. Producer-side
// only.
func (r *Ring[T]) rewind(seq int64) { r.next = seq }

// CachedRemainingCapacity returns the free slot count judged against the
// producer's cached view of the slowest consumer, refreshing the cache
// when it reports no room. Used to size upstream demand without
// overflowing the ring. Producer-side only.
func (r *Ring[T]) CachedRemainingCapacity() int64 {
	free := r.Capacity() - (r.next - r.cachedGate)
	if free <= 0 {
		r.cachedGate = r.minGate(r.cachedGate)
		free = r.Capacity() - (r.next - r.cachedGate)
	}
	return free
}

// minGate returns the smallest registered gating sequence, or fallback
// when no consumer is registered (an ungated ring never blocks its
// producer).
func (r *Ring[T]) minGate(fallback int64) int64 {
	min := fallback
	for _, g := range *r.gates.Load() {
		if v := g.Load(); v < min {
			min = v
		}
	}
	return min
}

// AddGate registers gate as a consumer read cursor the producer must not
// overrun. Readers register themselves through NewReader; AddGate is for
// custom consumers. Copy-on-write so the producer's gate scan stays
// lock-free.
func (r *Ring[T]) AddGate(gate *Sequence) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := *r.gates.Load()
	gates := make([]*Sequence, len(old)+1)
	copy(gates, old)
	gates[len(old)] = gate
	r.gates.Store(&gates)
}

// RemoveGate unregisters gate. A removed consumer no longer holds the
// producer back; call it when a reader stops so a dead consumer cannot
// stall the ring.
func (r *Ring[T]) RemoveGate(gate *Sequence) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := *r.gates.Load()
	gates := make([]*Sequence, 0, len(old))
	for _, g := range old {
		if g != gate {
			gates = append(gates, g)
		}
	}
	r.gates.Store(&gates)
}
