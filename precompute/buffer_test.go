///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package precompute

import (
	"context"
	"gitlab.com/elixxir/ballotcrypt/exception"
	"gitlab.com/elixxir/ballotcrypt/group"
	"gitlab.com/elixxir/ballotcrypt/internal/measure"
	"gitlab.com/elixxir/ballotcrypt/internal/state"
	"gitlab.com/elixxir/ballotcrypt/testUtil"
	"gitlab.com/elixxir/crypto/cyclic"
	"sync"
	"testing"
	"time"
)

func newTestBuffer() (*Buffer, *group.Group, *cyclic.Int) {
	grp := testUtil.NewSmallGroup()
	params := Params{
		TriplesPerQuadruple: 2,
		Workers:             2,
		BatchSize:           2,
		RetryDelay:          10 * time.Millisecond,
	}
	b := NewBuffer(grp, testUtil.NewStreamGenerator(), CPU{}, params)
	return b, grp, grp.ExpUint64(grp.Generator(), 77)
}

// waitFull polls until both queues are at target
func waitFull(t *testing.T, b *Buffer) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s := b.Snapshot()
		if s.Triples == s.TripleTarget && s.Quadruples == s.QuadrupleTarget {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Buffer did not fill: %s", b.Snapshot())
}

// checkSelection verifies every unit of the selection was produced with key
func checkSelection(t *testing.T, grp *group.Group, key *cyclic.Int,
	sel *Selection) {
	if !grp.Equal(sel.PublicKey, key) {
		t.Errorf("Selection bound to the wrong key")
	}

	triples := []*Triple{sel.Triple, sel.Quadruple.First(),
		sel.Quadruple.Second()}
	for i, tr := range triples {
		if !grp.Equal(tr.Pad(), grp.ExpG(tr.Secret())) {
			t.Errorf("Triple %d pad is not G^secret", i)
		}
		if !grp.Equal(tr.BlindingFactor(), grp.Exp(key, tr.Secret())) {
			t.Errorf("Triple %d blinding factor is not K^secret", i)
		}
	}

	q := sel.Quadruple
	if !grp.Equal(q.Blend(), grp.Mul(q.Second().Pad(),
		q.First().BlindingFactor())) {
		t.Errorf("Quadruple blend is not G^s2 * K^s1")
	}
}

// Error path: operations needing a key fail before Initialize
func TestBuffer_Uninitialized(t *testing.T) {
	b, _, _ := newTestBuffer()

	if _, _, err := b.GetSelection(); exception.CodeOf(err) != exception.Uninitialized {
		t.Errorf("GetSelection should fail uninitialized, received %v", err)
	}
	if err := b.Start(); exception.CodeOf(err) != exception.Uninitialized {
		t.Errorf("Start should fail uninitialized, received %v", err)
	}
	if err := b.Clear(); exception.CodeOf(err) != exception.Uninitialized {
		t.Errorf("Clear should fail uninitialized, received %v", err)
	}
	if err := b.Populate(context.Background()); exception.CodeOf(err) != exception.Uninitialized {
		t.Errorf("Populate should fail uninitialized, received %v", err)
	}
	if current, target := b.Status(); current != 0 || target != 0 {
		t.Errorf("Uninitialized status should be 0/0, is %d/%d", current,
			target)
	}
	if b.GetState() != state.UNINITIALIZED {
		t.Errorf("Unexpected state %s", b.GetState())
	}

	// stopping a buffer that never ran is harmless
	b.Stop()
}

// Error path: malformed arguments are rejected
func TestBuffer_Initialize_InvalidArgument(t *testing.T) {
	b, grp, pk := newTestBuffer()

	if err := b.Initialize(nil, 1); exception.CodeOf(err) != exception.InvalidArgument {
		t.Errorf("Nil key should be rejected, received %v", err)
	}
	if err := b.Initialize(pk, 0); exception.CodeOf(err) != exception.InvalidArgument {
		t.Errorf("Zero target should be rejected, received %v", err)
	}
	notMember := grp.GetCyclic().NewInt(testUtil.SmallPrime - 1)
	if err := b.Initialize(notMember, 1); exception.CodeOf(err) != exception.InvalidArgument {
		t.Errorf("Non member key should be rejected, received %v", err)
	}
	if err := b.StartWithKey(nil); exception.CodeOf(err) != exception.InvalidArgument {
		t.Errorf("Nil key should be rejected by StartWithKey, received %v",
			err)
	}
	if b.GetState() != state.UNINITIALIZED {
		t.Errorf("Rejected calls changed the state to %s", b.GetState())
	}
}

// Tests the single buffer scenario with deterministic production: a
// selection whose triple satisfies pad = G^s and blinding = K^s, and nothing
// available after a clear
func TestBuffer_Populate_SingleBuffer(t *testing.T) {
	b, grp, pk := newTestBuffer()

	if err := b.Initialize(pk, 1); err != nil {
		t.Fatalf("Initialize failed: %+v", err)
	}
	if err := b.Populate(context.Background()); err != nil {
		t.Fatalf("Populate failed: %+v", err)
	}

	current, target := b.Status()
	if current != 1 || target != 1 {
		t.Errorf("Expected status 1/1, received %d/%d", current, target)
	}
	s := b.Snapshot()
	if s.Triples != 2 || s.TripleTarget != 2 {
		t.Errorf("Expected 2/2 triples, received %d/%d", s.Triples,
			s.TripleTarget)
	}

	sel, ok, err := b.GetSelection()
	if err != nil || !ok || sel == nil {
		t.Fatalf("Expected a selection, received %v %v %v", sel, ok, err)
	}
	checkSelection(t, grp, pk, sel)

	if err = b.Clear(); err != nil {
		t.Fatalf("Clear failed: %+v", err)
	}
	sel, ok, err = b.GetSelection()
	if err != nil || ok || sel != nil {
		t.Errorf("Expected nothing after clear, received %v %v %v", sel, ok,
			err)
	}
	if s = b.Snapshot(); s.Triples != 0 || s.Quadruples != 0 {
		t.Errorf("Clear left units queued: %s", s)
	}
}

// Tests the same scenario with background production
func TestBuffer_StartStop_SingleBuffer(t *testing.T) {
	b, grp, pk := newTestBuffer()

	if err := b.Initialize(pk, 1); err != nil {
		t.Fatalf("Initialize failed: %+v", err)
	}
	if err := b.Start(); err != nil {
		t.Fatalf("Start failed: %+v", err)
	}
	if b.GetState() != state.RUNNING {
		t.Errorf("Expected state %s, received %s", state.RUNNING,
			b.GetState())
	}
	waitFull(t, b)
	b.Stop()

	sel, ok, err := b.GetSelection()
	if err != nil || !ok {
		t.Fatalf("Expected a selection, received %v %v", ok, err)
	}
	checkSelection(t, grp, pk, sel)

	_ = b.Clear()
	if _, ok, _ = b.GetSelection(); ok {
		t.Errorf("Selection available after clear")
	}
}

// Tests occupancy never exceeds target, the configured ratio, and that
// nothing is queued once Stop returns
func TestBuffer_Status(t *testing.T) {
	b, _, pk := newTestBuffer()

	if err := b.Initialize(pk, 5); err != nil {
		t.Fatalf("Initialize failed: %+v", err)
	}
	_ = b.Start()
	waitFull(t, b)
	b.Stop()

	current, target := b.Status()
	if target != 5 || current > target {
		t.Errorf("Unexpected status %d/%d", current, target)
	}
	s := b.Snapshot()
	if s.TripleTarget != 10 || s.Triples > s.TripleTarget {
		t.Errorf("Unexpected triple status %d/%d", s.Triples, s.TripleTarget)
	}
	if s.State != state.STOPPED {
		t.Errorf("Expected state %s, received %s", state.STOPPED, s.State)
	}

	// draining after stop is not refilled
	if _, ok, _ := b.GetSelection(); !ok {
		t.Fatalf("Expected a selection")
	}
	time.Sleep(50 * time.Millisecond)
	if current, _ = b.Status(); current != 4 {
		t.Errorf("Stopped buffer was refilled to %d", current)
	}

	// restarting refills
	_ = b.Start()
	waitFull(t, b)
	b.Stop()
	if current, _ = b.Status(); current != 5 {
		t.Errorf("Restarted buffer holds %d quadruples", current)
	}
}

// Tests that the triple ratio is configurable
func TestBuffer_TriplesPerQuadruple(t *testing.T) {
	grp := testUtil.NewSmallGroup()
	b := NewBuffer(grp, testUtil.NewStreamGenerator(), CPU{},
		Params{TriplesPerQuadruple: 3})
	_ = b.Initialize(grp.Generator(), 4)

	if s := b.Snapshot(); s.TripleTarget != 12 || s.QuadrupleTarget != 4 {
		t.Errorf("Unexpected targets %d and %d", s.TripleTarget,
			s.QuadrupleTarget)
	}
}

// Tests that a new key discards units of the old one and everything
// returned afterwards is bound to the new key
func TestBuffer_StartWithKey(t *testing.T) {
	b, grp, pk1 := newTestBuffer()
	pk2 := grp.ExpUint64(grp.Generator(), 500)

	_ = b.Initialize(pk1, 3)
	_ = b.Populate(context.Background())
	gen := b.Snapshot().Generation

	if err := b.StartWithKey(pk2); err != nil {
		t.Fatalf("StartWithKey failed: %+v", err)
	}
	if s := b.Snapshot(); s.Generation != gen+1 {
		t.Errorf("Generation did not advance: %d", s.Generation)
	}
	waitFull(t, b)
	b.Stop()

	for {
		sel, ok, err := b.GetSelection()
		if err != nil {
			t.Fatalf("GetSelection failed: %+v", err)
		}
		if !ok {
			break
		}
		checkSelection(t, grp, pk2, sel)
	}

	if s := b.Snapshot(); s.Counters.Discarded < 9 {
		t.Errorf("Expected the 9 old units to be discarded, counted %d",
			s.Counters.Discarded)
	}
}

// Tests that StartWithKey initializes an uninitialized buffer
func TestBuffer_StartWithKey_Uninitialized(t *testing.T) {
	b, _, pk := newTestBuffer()
	b.params.DefaultMaxBuffers = 2

	if err := b.StartWithKey(pk); err != nil {
		t.Fatalf("StartWithKey failed: %+v", err)
	}
	defer b.Stop()

	if _, target := b.Status(); target != 2 {
		t.Errorf("Expected the default target 2, received %d", target)
	}
}

// Tests that initializing with a different key resets like StartWithKey but
// keeps production stopped
func TestBuffer_Initialize_NewKey(t *testing.T) {
	b, grp, pk1 := newTestBuffer()
	pk2 := grp.ExpUint64(grp.Generator(), 3)

	_ = b.Initialize(pk1, 2)
	_ = b.Populate(context.Background())
	_ = b.Initialize(pk2, 2)

	if current, _ := b.Status(); current != 0 {
		t.Errorf("Units of the old key survived: %d", current)
	}
	if b.GetState() != state.STOPPED {
		t.Errorf("Initialize changed the running state to %s",
			b.GetState())
	}

	_ = b.Populate(context.Background())
	sel, ok, _ := b.GetSelection()
	if !ok {
		t.Fatalf("Expected a selection")
	}
	checkSelection(t, grp, pk2, sel)
}

// Tests that initializing with the same key only resizes
func TestBuffer_Initialize_Resize(t *testing.T) {
	b, _, pk := newTestBuffer()

	_ = b.Initialize(pk, 4)
	_ = b.Populate(context.Background())
	gen := b.Snapshot().Generation

	_ = b.Initialize(pk, 2)
	s := b.Snapshot()
	if s.Generation != gen {
		t.Errorf("Same key should not swap the unit set")
	}
	if s.Quadruples != 2 || s.QuadrupleTarget != 2 || s.Triples != 4 ||
		s.TripleTarget != 4 {
		t.Errorf("Unexpected status after shrinking: %s", s)
	}
	if s.Counters.Discarded != 6 {
		t.Errorf("Expected 6 discarded units, counted %d",
			s.Counters.Discarded)
	}

	_ = b.Initialize(pk, 3)
	_ = b.Populate(context.Background())
	if current, target := b.Status(); current != 3 || target != 3 {
		t.Errorf("Unexpected status after growing: %d/%d", current, target)
	}
}

// Tests that exactly one of two concurrent callers receives the last pair
func TestBuffer_GetSelection_ExactlyOnce(t *testing.T) {
	b, _, pk := newTestBuffer()
	_ = b.Initialize(pk, 1)

	for i := 0; i < 25; i++ {
		if err := b.Populate(context.Background()); err != nil {
			t.Fatalf("Populate failed: %+v", err)
		}

		var wg sync.WaitGroup
		results := make(chan bool, 2)
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok, _ := b.GetSelection()
				results <- ok
			}()
		}
		wg.Wait()
		close(results)

		successes := 0
		for ok := range results {
			if ok {
				successes++
			}
		}
		if successes != 1 {
			t.Fatalf("Round %d: %d callers received the pair", i, successes)
		}
	}
}

// Tests that units produced for a superseded key are never queued
func TestBuffer_KeyMismatch(t *testing.T) {
	b, grp, pk := newTestBuffer()
	_ = b.Initialize(pk, 1)

	w, _, err := b.reserve()
	if err != nil || w == nil {
		t.Fatalf("Expected a reservation, received %v %v", w, err)
	}

	_ = b.Initialize(grp.ExpUint64(grp.Generator(), 9), 1)

	stream := b.rngGen.GetStream()
	defer stream.Close()
	err = b.produce(stream, w, nil)
	if exception.CodeOf(err) != exception.KeyMismatch {
		t.Errorf("Expected a key mismatch, received %v", err)
	}

	s := b.Snapshot()
	if s.Triples != 0 || s.Quadruples != 0 {
		t.Errorf("Stale units were queued: %s", s)
	}
	if s.Counters.Discarded != uint64(w.triples+w.quadruples) {
		t.Errorf("Expected %d discarded units, counted %d",
			w.triples+w.quadruples, s.Counters.Discarded)
	}
}

// Tests that a failing random source releases the reservation
func TestBuffer_EntropyFailure(t *testing.T) {
	b, _, pk := newTestBuffer()
	_ = b.Initialize(pk, 1)

	w, _, _ := b.reserve()
	err := b.produce(failingReader{}, w, nil)
	if exception.CodeOf(err) != exception.EntropyFailure {
		t.Errorf("Expected an entropy failure, received %v", err)
	}
	if s := b.Snapshot(); s.Counters.EntropyFailures != 1 {
		t.Errorf("Entropy failure not counted")
	}

	w2, _, _ := b.reserve()
	if w2 == nil || w2.triples != w.triples || w2.quadruples != w.quadruples {
		t.Errorf("Reservation was not released: %+v", w2)
	}
}

// Tests that units finished after Stop are discarded
func TestBuffer_ProduceAfterStop(t *testing.T) {
	b, _, pk := newTestBuffer()
	_ = b.Initialize(pk, 1)

	r := &run{quit: make(chan struct{})}
	b.mux.Lock()
	b.run = r
	b.mux.Unlock()

	w, _, _ := b.reserve()

	b.mux.Lock()
	b.run = nil
	b.mux.Unlock()

	stream := b.rngGen.GetStream()
	defer stream.Close()
	if err := b.produce(stream, w, r); err != nil {
		t.Errorf("Producing after stop should be silent: %+v", err)
	}
	if current, _ := b.Status(); current != 0 {
		t.Errorf("Units were queued after stop")
	}
}

// Tests that a canceled context interrupts Populate
func TestBuffer_Populate_Canceled(t *testing.T) {
	b, _, pk := newTestBuffer()
	_ = b.Initialize(pk, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Populate(ctx); err == nil {
		t.Errorf("Populate should fail with a canceled context")
	}
}

// Tests that lifecycle changes are measured
func TestBuffer_GetEvents(t *testing.T) {
	b, grp, pk := newTestBuffer()

	_ = b.Initialize(pk, 1)
	_ = b.Start()
	_ = b.Start()
	b.Stop()
	b.Stop()
	_ = b.Clear()
	_ = b.Initialize(grp.Generator(), 1)

	expected := []string{measure.TagInitialize, measure.TagStart,
		measure.TagStop, measure.TagClear, measure.TagRetarget}
	events := b.GetEvents()
	if len(events) != len(expected) {
		t.Fatalf("Expected %d events, received %d: %+v", len(expected),
			len(events), events)
	}
	for i, e := range events {
		if e.Tag != expected[i] {
			t.Errorf("Event %d is %s, expected %s", i, e.Tag, expected[i])
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, exception.ErrEntropyFailure
}
