// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/strm"
)

func TestFaninSerializesProducers(t *testing.T) {
	skipRace(t)
	const producers, perProducer = 4, 64
	ring, _ := strm.NewRing[int](512)
	gate := strm.NewFanin(ring, 512)
	rd := ring.NewReader()
	rec := &recorder[int]{request: strm.Unbounded}

	done := make(chan struct{})
	go func() {
		rd.Run(rec)
		close(done)
	}()

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				v := p*perProducer + i
				for {
					if err := gate.Publish(v); err == nil {
						break
					} else if !iox.IsWouldBlock(err) {
						t.Errorf("publish got %v", err)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	if err := gate.Complete(); err != nil {
		t.Fatalf("complete got %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reader did not observe the terminal signal")
	}

	values, _, completes := rec.snapshot()
	if len(values) != producers*perProducer {
		t.Fatalf("values got %d, want %d", len(values), producers*perProducer)
	}
	if completes != 1 {
		t.Fatalf("completes got %d, want 1", completes)
	}
	// per-producer order is preserved through the gate
	last := make(map[int]int)
	for _, v := range values {
		p := v / perProducer
		if prev, ok := last[p]; ok && v <= prev {
			t.Fatalf("producer %d delivered %d after %d", p, v-p*perProducer, prev-p*perProducer)
		}
		last[p] = v
	}
}

func TestFaninErrorClosesGate(t *testing.T) {
	skipRace(t)
	ring, _ := strm.NewRing[int](8)
	gate := strm.NewFanin(ring, 8)
	rd := ring.NewReader()
	rec := &recorder[int]{request: strm.Unbounded}

	done := make(chan struct{})
	go func() {
		rd.Run(rec)
		close(done)
	}()

	if err := gate.Publish(1); err != nil {
		t.Fatalf("publish got %v", err)
	}
	cause := errors.New("producer fault")
	if err := gate.Error(cause); err != nil {
		t.Fatalf("error got %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not observe the error")
	}
	values, errs, _ := rec.snapshot()
	if len(values) != 1 || values[0] != 1 {
		t.Fatalf("values got %v, want [1]", values)
	}
	if len(errs) != 1 || errs[0] != cause {
		t.Fatalf("errs got %v, want [%v]", errs, cause)
	}
}

func TestFaninPublishAfterTerminalPanics(t *testing.T) {
	ring, _ := strm.NewRing[int](8)
	gate := strm.NewFanin(ring, 8)
	if err := gate.Complete(); err != nil {
		t.Fatalf("complete got %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("publish after terminal did not panic")
		}
	}()
	_ = gate.Publish(1)
}
