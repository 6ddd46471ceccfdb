// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import "errors"

// ErrInvalidCapacity reports a ring capacity that is not a power of two
// of at least 2. Power-of-two capacity makes slot indexing a bit-mask.
var ErrInvalidCapacity = errors.New("strm: capacity must be a power of two >= 2")

// ErrAlerted reports that a barrier was alerted while waiting.
// An alert is cooperative cancellation, not a data error: wait loops
// exit with ErrAlerted instead of dispatching OnError.
var ErrAlerted = errors.New("strm: barrier alerted")

// ErrCapacityExceeded reports that an upstream delivered more values
// than the outstanding requested demand. It is distinct from
// upstream-originated data errors so retry predicates can decline it.
var ErrCapacityExceeded = errors.New("strm: insufficient capacity: delivery past requested demand")

// IsAlerted reports whether err is the cooperative cancellation signal
// raised by an alerted barrier.
func IsAlerted(err error) bool { return errors.Is(err, ErrAlerted) }
