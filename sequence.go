// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"math"

	"code.hybscloud.com/atomix"
)

// Unbounded is the sentinel demand value meaning "no limit".
// Demand arithmetic saturates at this value instead of wrapping.
const Unbounded int64 = math.MaxInt64

// Initial is the starting value for cursors and gating sequences:
// one before the first claimable sequence.
const Initial int64 = -1

// Sequence is an atomically updated monotonic counter identifying a
// position in a Ring or a consumer's read progress. Mutation rights
// belong to exactly one owner (the ring cursor to its producer, a gating
// sequence to its reader, a demand counter to its requesters); every
// other role only loads.
type Sequence struct {
	v atomix.Int64
}

// NewSequence returns a Sequence initialized to v.
func NewSequence(v int64) *Sequence {
	s := &Sequence{}
	s.v.Store(v)
	return s
}

// Load returns the current value.
func (s *Sequence) Load() int64 { return s.v.Load() }

// Store sets the current value.
func (s *Sequence) Store(v int64) { s.v.Store(v) }

// Add atomically adds delta and returns the new value.
func (s *Sequence) Add(delta int64) int64 { return s.v.Add(delta) }

// CompareAndSwap atomically replaces old with new and reports whether
// the swap happened.
func (s *Sequence) CompareAndSwap(old, new int64) bool {
	return s.v.CompareAndSwap(old, new)
}

// AddSaturating atomically adds delta, clamping at Unbounded instead of
// overflowing past it. A counter already at Unbounded stays there.
// Returns the new value.
func (s *Sequence) AddSaturating(delta int64) int64 {
	for {
		cur := s.v.Load()
		if cur == Unbounded {
			return Unbounded
		}
		next := cur + delta
		if delta > 0 && next < cur {
			next = Unbounded
		}
		if s.v.CompareAndSwap(cur, next) {
			return next
		}
	}
}
