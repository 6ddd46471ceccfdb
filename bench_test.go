// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm_test

import (
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/strm"
)

func BenchmarkPublishConsume(b *testing.B) {
	ring, _ := strm.NewRing[int](1024)
	gate := strm.NewSequence(strm.Initial)
	ring.AddGate(gate)
	b.ReportAllocs()
	for b.Loop() {
		seq := ring.Next()
		s := ring.Get(seq)
		s.Type, s.Value = strm.SignalNext, 1
		ring.Publish(seq)
		gate.Store(seq)
	}
}

func BenchmarkNextNBatch(b *testing.B) {
	const batch = 16
	ring, _ := strm.NewRing[int](1024)
	gate := strm.NewSequence(strm.Initial)
	ring.AddGate(gate)
	b.ReportAllocs()
	for b.Loop() {
		hi := ring.NextN(batch)
		for seq := hi - batch + 1; seq <= hi; seq++ {
			s := ring.Get(seq)
			s.Type, s.Value = strm.SignalNext, int(seq)
		}
		ring.PublishRange(hi-batch+1, hi)
		gate.Store(hi)
	}
}

func BenchmarkBatchOnNext(b *testing.B) {
	bt := strm.NewBatch(strm.BatchConfig[int]{
		Size:  1024,
		Each:  func(int) {},
		Flush: func() {},
	})
	b.ReportAllocs()
	for b.Loop() {
		bt.OnNext(1)
	}
}

func BenchmarkFaninPublish(b *testing.B) {
	ring, _ := strm.NewRing[int](4096)
	gate := strm.NewFanin(ring, 4096)
	b.ReportAllocs()
	for b.Loop() {
		for {
			if err := gate.Publish(1); err == nil {
				break
			} else if !iox.IsWouldBlock(err) {
				b.Fatalf("publish got %v", err)
			}
		}
	}
	if err := gate.Complete(); err != nil {
		b.Fatalf("complete got %v", err)
	}
}
