///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////


package precompute

import (
	"fmt"
	"gitlab.com/elixxir/ballotcrypt/internal/measure"
	"gitlab.com/elixxir/ballotcrypt/internal/state"
)

// Status is a detailed point in time view of a Buffer
type Status struct {
	State           state.Status
	Triples         uint32
	TripleTarget    uint32
	Quadruples      uint32
	QuadrupleTarget uint32
	KeyFingerprint  []byte
	Generation      uint64
	Counters        measure.CounterSnapshot
}

// Snapshot returns the detailed status of the buffer
func (b *Buffer) Snapshot() Status {
	b.mux.Lock()
	defer b.mux.Unlock()

	s := Status{
		State:    b.lifecycle.Get(),
		Counters: b.counters.Snapshot(),
	}
	if b.units != nil {
		s.Triples = b.units.triples.Len()
		s.TripleTarget = b.units.triples.Cap()
		s.Quadruples = b.units.quadruples.Len()
		s.QuadrupleTarget = b.units.quadruples.Cap()
		s.KeyFingerprint = append([]byte(nil), b.units.fingerprint...)
		s.Generation = b.units.generation
	}
	return s
}

func (s Status) String() string {
	return fmt.Sprintf("%s key %s: %d/%d triples, %d/%d quadruples, %s",
		s.State, keyID(s.KeyFingerprint), s.Triples, s.TripleTarget,
		s.Quadruples, s.QuadrupleTarget, s.Counters)
}
