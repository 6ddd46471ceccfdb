// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import "time"

// Publisher is a demand-driven source of signals. Subscribe may be
// called multiple times, each starting an independent subscription.
type Publisher[T any] interface {
	Subscribe(s Subscriber[T])
}

// Subscriber receives OnSubscribe once, then zero or more OnNext calls,
// terminated by exactly one OnComplete or OnError. A terminal signal is
// final: no further signals may follow it on that logical stream.
type Subscriber[T any] interface {
	OnSubscribe(s Subscription)
	OnNext(v T)
	OnError(err error)
	OnComplete()
}

// Subscription is the backpressure handle of one Publisher↔Subscriber
// lifecycle. Request authorizes n more signals; n must be positive.
// Cancel is cooperative and may take effect after in-flight signals.
type Subscription interface {
	Request(n int64)
	Cancel()
}

// Bounded is optional capacity introspection for publishers with a known
// buffering bound. Bridge uses it to size its initial upstream request
// instead of guessing.
type Bounded interface {
	Capacity() int64
}

// Timer schedules one-shot callbacks. Consumed by Batch for time-based
// window flushing.
type Timer interface {
	Submit(fn func(), delay time.Duration) TimerHandle
}

// TimerHandle cancels a scheduled callback. Cancel is safe to call
// redundantly or after the callback has fired.
type TimerHandle interface {
	Cancel()
}

// SystemTimer schedules on the runtime timer heap via time.AfterFunc.
type SystemTimer struct{}

// Submit implements Timer.
func (SystemTimer) Submit(fn func(), delay time.Duration) TimerHandle {
	return systemHandle{t: time.AfterFunc(delay, fn)}
}

type systemHandle struct{ t *time.Timer }

func (h systemHandle) Cancel() { h.t.Stop() }
