// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

// SignalType tags the variant stored in a ring slot.
type SignalType uint8

const (
	// SignalNext carries a value.
	SignalNext SignalType = iota
	// SignalComplete terminates the stream normally. No payload.
	SignalComplete
	// SignalError terminates the stream with a cause.
	SignalError
)

// Signal is one mutable, reused slot of a Ring: a tagged variant over
// next-value, completion and error. The producer fully overwrites a slot
// before publishing its sequence; a consumer must not read a slot whose
// publish it has not observed through a Barrier. Exactly one of Value
// and Err is meaningful per tag; SignalComplete carries neither.
type Signal[T any] struct {
	Type  SignalType
	Value T
	Err   error
}
