///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package measure

import (
	"fmt"
	"sync/atomic"
)

// Counters tracks what happened to produced units. It is safe for concurrent
// use.
type Counters struct {
	triples         uint64
	quadruples      uint64
	discarded       uint64
	consumed        uint64
	entropyFailures uint64
}

// CounterSnapshot is a point in time copy of Counters
type CounterSnapshot struct {
	Triples         uint64
	Quadruples      uint64
	Discarded       uint64
	Consumed        uint64
	EntropyFailures uint64
}

// AddProduced counts triples and quadruples which were queued
func (c *Counters) AddProduced(triples, quadruples uint64) {
	atomic.AddUint64(&c.triples, triples)
	atomic.AddUint64(&c.quadruples, quadruples)
}

// AddDiscarded counts units which were computed but never queued
func (c *Counters) AddDiscarded(n uint64) {
	atomic.AddUint64(&c.discarded, n)
}

// AddConsumed counts selections handed out
func (c *Counters) AddConsumed(n uint64) {
	atomic.AddUint64(&c.consumed, n)
}

// AddEntropyFailure counts failed reads from the random source
func (c *Counters) AddEntropyFailure() {
	atomic.AddUint64(&c.entropyFailures, 1)
}

// Snapshot returns the current values
func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Triples:         atomic.LoadUint64(&c.triples),
		Quadruples:      atomic.LoadUint64(&c.quadruples),
		Discarded:       atomic.LoadUint64(&c.discarded),
		Consumed:        atomic.LoadUint64(&c.consumed),
		EntropyFailures: atomic.LoadUint64(&c.entropyFailures),
	}
}

func (cs CounterSnapshot) String() string {
	return fmt.Sprintf("produced %d triples and %d quadruples, consumed %d, "+
		"discarded %d, %d entropy failures", cs.Triples, cs.Quadruples,
		cs.Consumed, cs.Discarded, cs.EntropyFailures)
}
