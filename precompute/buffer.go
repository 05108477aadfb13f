///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////


// Package precompute produces triples and quadruples in the background so
// that encrypting a ballot selection does not wait on exponentiations.
//
// A Buffer owns one unit set at a time: the public key its units are bound to
// and the queues holding them. Changing the key swaps in a new, empty unit
// set under the buffer lock, and production for a superseded set is thrown
// away before it can be queued, so a selection never mixes keys.
package precompute

import (
	"fmt"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/ballotcrypt/exception"
	"gitlab.com/elixxir/ballotcrypt/group"
	"gitlab.com/elixxir/ballotcrypt/internal/measure"
	"gitlab.com/elixxir/ballotcrypt/internal/state"
	"gitlab.com/elixxir/crypto/cyclic"
	"gitlab.com/elixxir/crypto/fastRNG"
	"sync"
)

// Buffer is a precompute buffer context. It is safe for concurrent use.
type Buffer struct {
	grp    *group.Group
	rngGen *fastRNG.StreamGenerator
	exp    Exponentiator
	params Params

	mux        sync.Mutex
	units      *unitSet
	generation uint64
	run        *run
	// closed and replaced whenever producers may have new work
	idle chan struct{}

	lifecycle state.Machine
	metrics   *measure.Metrics
	counters  *measure.Counters
}

// run is one Start to Stop span of background production
type run struct {
	quit chan struct{}
	wg   sync.WaitGroup
}

// unitSet holds every queued unit for one public key
type unitSet struct {
	generation  uint64
	publicKey   *cyclic.Int
	fingerprint []byte
	maxBuffers  uint32

	triples    *queue[*Triple]
	quadruples *queue[*Quadruple]

	// units being computed outside the lock
	reservedTriples    uint32
	reservedQuadruples uint32
}

// NewBuffer creates an uninitialized buffer. Nothing is produced until it is
// initialized and started.
func NewBuffer(grp *group.Group, rngGen *fastRNG.StreamGenerator,
	exp Exponentiator, params Params) *Buffer {
	if exp == nil {
		exp = CPU{}
	}
	return &Buffer{
		grp:       grp,
		rngGen:    rngGen,
		exp:       exp,
		params:    params.sanitize(),
		idle:      make(chan struct{}),
		lifecycle: state.NewMachine(),
		metrics:   measure.NewMetrics(measure.DefaultEventLimit),
		counters:  new(measure.Counters),
	}
}

// Initialize binds the buffer to publicKey with a target of maxBuffers
// quadruples and TriplesPerQuadruple*maxBuffers triples. A different key than
// the current one discards every queued unit, the same key only changes the
// targets. The running state is left as it is.
func (b *Buffer) Initialize(publicKey *cyclic.Int, maxBuffers uint32) error {
	if err := b.checkKey(publicKey); err != nil {
		return err
	}
	if maxBuffers == 0 {
		return errors.Wrap(exception.ErrInvalidArgument,
			"precompute buffer needs a target of at least one")
	}

	b.mux.Lock()
	defer b.mux.Unlock()

	switch {
	case b.units == nil:
		b.units = b.newUnits(publicKey, maxBuffers)
		if _, err := b.lifecycle.Update(state.STOPPED); err != nil {
			jww.FATAL.Panicf("Failed to initialize buffer: %+v", err)
		}
		b.metrics.Measure(measure.TagInitialize)
		jww.INFO.Printf("Precompute buffer initialized for key %s with "+
			"%d buffers", keyID(b.units.fingerprint), maxBuffers)
	case !b.grp.Equal(publicKey, b.units.publicKey):
		b.retarget(publicKey, maxBuffers)
	default:
		b.resize(maxBuffers)
	}

	b.wake()
	return nil
}

// Start resumes background production toward the current targets. It is a
// no-op if production is already running.
func (b *Buffer) Start() error {
	b.mux.Lock()
	defer b.mux.Unlock()

	if b.units == nil {
		return errors.Wrap(exception.ErrUninitialized,
			"cannot start precompute buffer")
	}
	b.startWorkers()
	return nil
}

// StartWithKey discards every queued unit, binds the buffer to publicKey and
// starts production. An uninitialized buffer is initialized with
// DefaultMaxBuffers.
func (b *Buffer) StartWithKey(publicKey *cyclic.Int) error {
	if err := b.checkKey(publicKey); err != nil {
		return err
	}

	b.mux.Lock()
	defer b.mux.Unlock()

	if b.units == nil {
		b.units = b.newUnits(publicKey, b.params.DefaultMaxBuffers)
		b.metrics.Measure(measure.TagInitialize)
		jww.INFO.Printf("Precompute buffer initialized for key %s with "+
			"%d buffers", keyID(b.units.fingerprint),
			b.params.DefaultMaxBuffers)
	} else {
		b.retarget(publicKey, b.units.maxBuffers)
	}

	b.startWorkers()
	b.wake()
	return nil
}

// Stop halts background production and waits for the producers to exit.
// Queued units are kept. Once Stop returns no further unit is queued by the
// background producers.
func (b *Buffer) Stop() {
	b.mux.Lock()
	r := b.run
	b.run = nil
	if r != nil {
		close(r.quit)
		if _, err := b.lifecycle.Update(state.STOPPED); err != nil {
			jww.FATAL.Panicf("Failed to stop buffer: %+v", err)
		}
		b.metrics.Measure(measure.TagStop)
	}
	b.mux.Unlock()

	if r != nil {
		r.wg.Wait()
		jww.INFO.Printf("Precompute production stopped: %s",
			b.counters.Snapshot())
	}
}

// Clear discards every queued unit without changing the key or the running
// state
func (b *Buffer) Clear() error {
	b.mux.Lock()
	defer b.mux.Unlock()

	if b.units == nil {
		return errors.Wrap(exception.ErrUninitialized,
			"cannot clear precompute buffer")
	}

	n := b.discard(b.units)
	b.metrics.Measure(measure.TagClear)
	jww.INFO.Printf("Cleared %d precomputed units", n)
	b.wake()
	return nil
}

// Status returns the number of queued quadruples and their target. Both are
// zero before initialization.
func (b *Buffer) Status() (current, target uint32) {
	b.mux.Lock()
	defer b.mux.Unlock()

	if b.units == nil {
		return 0, 0
	}
	return b.units.quadruples.Len(), b.units.quadruples.Cap()
}

// GetSelection removes one triple and one quadruple. When either queue is
// empty it returns false, and the caller should compute the exponentiations
// itself.
func (b *Buffer) GetSelection() (*Selection, bool, error) {
	b.mux.Lock()
	defer b.mux.Unlock()

	if b.units == nil {
		return nil, false, errors.Wrap(exception.ErrUninitialized,
			"cannot get a precomputed selection")
	}

	if b.units.triples.Len() == 0 || b.units.quadruples.Len() == 0 {
		return nil, false, nil
	}

	t, _ := b.units.triples.Receive()
	q, _ := b.units.quadruples.Receive()
	b.counters.AddConsumed(1)
	b.wake()

	return &Selection{
		PublicKey: b.grp.GetCyclic().NewIntFromBytes(b.units.publicKey.Bytes()),
		Triple:    t,
		Quadruple: q,
	}, true, nil
}

// GetEvents returns the lifecycle events of the buffer
func (b *Buffer) GetEvents() []measure.Metric {
	return b.metrics.GetEvents()
}

// GetState returns the lifecycle state of the buffer
func (b *Buffer) GetState() state.Status {
	return b.lifecycle.Get()
}

// checkKey rejects keys which are not members of the group
func (b *Buffer) checkKey(publicKey *cyclic.Int) error {
	if publicKey == nil {
		return errors.Wrap(exception.ErrInvalidArgument,
			"public key is nil")
	}
	if !b.grp.IsValidResidue(publicKey) {
		return errors.Wrap(exception.ErrInvalidArgument,
			"public key is not a member of the group")
	}
	return nil
}

// newUnits builds an empty unit set with the next generation. Must be called
// with the lock held.
func (b *Buffer) newUnits(publicKey *cyclic.Int, maxBuffers uint32) *unitSet {
	b.generation++
	key := b.grp.GetCyclic().NewIntFromBytes(publicKey.Bytes())
	return &unitSet{
		generation:  b.generation,
		publicKey:   key,
		fingerprint: group.Fingerprint(key),
		maxBuffers:  maxBuffers,
		triples: newQueue[*Triple](
			b.params.TriplesPerQuadruple * maxBuffers),
		quadruples: newQueue[*Quadruple](maxBuffers),
	}
}

// retarget swaps in an empty unit set for publicKey. Must be called with the
// lock held.
func (b *Buffer) retarget(publicKey *cyclic.Int, maxBuffers uint32) {
	old := b.units
	b.units = b.newUnits(publicKey, maxBuffers)
	n := b.discard(old)
	b.metrics.Measure(measure.TagRetarget)
	jww.INFO.Printf("Precompute buffer retargeted from key %s to %s, "+
		"discarded %d units", keyID(old.fingerprint),
		keyID(b.units.fingerprint), n)
}

// resize changes the targets of the current unit set, discarding the newest
// units above them. Must be called with the lock held.
func (b *Buffer) resize(maxBuffers uint32) {
	us := b.units
	if us.maxBuffers == maxBuffers {
		return
	}
	us.maxBuffers = maxBuffers

	evictedTriples := us.triples.Resize(b.params.TriplesPerQuadruple * maxBuffers)
	evictedQuadruples := us.quadruples.Resize(maxBuffers)
	for _, t := range evictedTriples {
		t.Erase()
	}
	for _, q := range evictedQuadruples {
		q.Erase()
	}
	n := uint64(len(evictedTriples) + len(evictedQuadruples))
	b.counters.AddDiscarded(n)

	b.metrics.Measure(measure.TagResize)
	jww.INFO.Printf("Precompute buffer for key %s resized to %d buffers, "+
		"discarded %d units", keyID(us.fingerprint), maxBuffers, n)
}

// discard erases every queued unit of the set and returns how many there
// were. Must be called with the lock held.
func (b *Buffer) discard(us *unitSet) uint64 {
	triples := us.triples.Drain()
	quadruples := us.quadruples.Drain()
	for _, t := range triples {
		t.Erase()
	}
	for _, q := range quadruples {
		q.Erase()
	}
	n := uint64(len(triples) + len(quadruples))
	b.counters.AddDiscarded(n)
	return n
}

// startWorkers launches the background producers if they are not running.
// Must be called with the lock held.
func (b *Buffer) startWorkers() {
	if b.run != nil {
		return
	}

	r := &run{quit: make(chan struct{})}
	r.wg.Add(int(b.params.Workers))
	for i := uint32(0); i < b.params.Workers; i++ {
		go b.produceLoop(i, r)
	}
	b.run = r

	if _, err := b.lifecycle.Update(state.RUNNING); err != nil {
		jww.FATAL.Panicf("Failed to start buffer: %+v", err)
	}
	b.metrics.Measure(measure.TagStart)
	jww.INFO.Printf("Precompute production started with %d %s workers",
		b.params.Workers, b.exp.Name())
}

// wake releases idle producers. Must be called with the lock held.
func (b *Buffer) wake() {
	close(b.idle)
	b.idle = make(chan struct{})
}

// keyID shortens a key fingerprint for logs
func keyID(fingerprint []byte) string {
	if len(fingerprint) > 8 {
		fingerprint = fingerprint[:8]
	}
	return fmt.Sprintf("%x", fingerprint)
}
