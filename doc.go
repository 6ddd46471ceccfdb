// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package strm provides the flow-control substrate of a reactive signal
// pipeline: a fixed-capacity ring of reused signal slots drained by
// demand-driven consumers, without per-signal allocation or unbounded
// queuing.
//
// # Architecture
//
//   - Transport: [Ring] is a power-of-two circular array of mutable
//     [Signal] slots with a single-writer cursor and registered consumer
//     gating sequences. The producer never overwrites a slot a consumer
//     has not passed.
//   - Coordination: [Sequence] counters on [code.hybscloud.com/atomix];
//     consumers wait through a [Barrier], parking with
//     [code.hybscloud.com/iox.Backoff]. An alert on the barrier is the
//     cooperative cancellation signal ([ErrAlerted]).
//   - Backpressure: consumers pre-authorize deliveries via
//     [Subscription.Request]; demand counters saturate at [Unbounded].
//     Non-blocking claim and poll variants return
//     [code.hybscloud.com/iox.ErrWouldBlock].
//   - Fan-in: [Fanin] serializes multiple producers into the
//     single-writer ring through a bounded lock-free MPSC queue from
//     [code.hybscloud.com/lfq].
//
// # API Topologies
//
//   - Producer side: [Ring.Next]/[Ring.Publish] with [PublishNext],
//     [PublishError], [PublishComplete]; [Bridge] adapts a
//     demand-signaling upstream [Publisher] into a ring; [Fanin] merges
//     concurrent producers.
//   - Consumer side: [Ring.NewReader] registers a gated consumer whose
//     [Reader.Run] loop dispatches signals to a [Subscriber] under its
//     requested demand; [Route]/[RouteOnce]/[AwaitDemandOrTerminal] are
//     the building blocks for custom consume loops.
//   - Operators: [Batch] groups signals into count/time windows; [Retry]
//     resubscribes a remembered root source after errors within a
//     budget/predicate.
//
// # Example
//
//	ring, _ := strm.NewRing[int](8)
//	reader := ring.NewReader()
//	go func() {
//		for i := range 3 {
//			strm.PublishNext(ring, i)
//		}
//		strm.PublishComplete(ring)
//	}()
//	reader.Run(sub) // sub requests demand via its Subscription
package strm
