///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////


package precompute

// producer.go contains the production of units, shared by the background
// workers and Populate

import (
	"context"
	"github.com/cznic/mathutil"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/ballotcrypt/exception"
	"gitlab.com/elixxir/crypto/cyclic"
	"io"
	"time"
)

// work is a reservation of units for one unit set
type work struct {
	units      *unitSet
	generation uint64
	publicKey  *cyclic.Int
	triples    uint32
	quadruples uint32
}

// Populate fills the queues in the calling goroutine until everything still
// needed is queued or reserved by a background producer, or ctx is done.
// Unlike background production, failures are returned.
func (b *Buffer) Populate(ctx context.Context) error {
	stream := b.rngGen.GetStream()
	defer stream.Close()

	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "precompute population interrupted")
		}

		w, _, err := b.reserve()
		if err != nil {
			return err
		}
		if w == nil {
			return nil
		}

		err = b.produce(stream, w, nil)
		if err != nil && !errors.Is(err, exception.ErrKeyMismatch) {
			return err
		}
	}
}

// produceLoop is the body of a background producer. Failures are logged and
// absorbed.
func (b *Buffer) produceLoop(id uint32, r *run) {
	defer r.wg.Done()

	stream := b.rngGen.GetStream()
	defer stream.Close()

	for {
		select {
		case <-r.quit:
			return
		default:
		}

		w, idle, err := b.reserve()
		if err != nil {
			jww.ERROR.Printf("Producer %d exiting: %+v", id, err)
			return
		}
		if w == nil {
			select {
			case <-r.quit:
				return
			case <-idle:
			}
			continue
		}

		err = b.produce(stream, w, r)
		switch {
		case err == nil:
			continue
		case errors.Is(err, exception.ErrKeyMismatch):
			jww.DEBUG.Printf("Producer %d: %s", id, err)
			continue
		case errors.Is(err, exception.ErrEntropyFailure):
			jww.WARN.Printf("Producer %d retrying in %s: %s", id,
				b.params.RetryDelay, err)
		default:
			jww.ERROR.Printf("Producer %d retrying in %s: %+v", id,
				b.params.RetryDelay, err)
		}

		select {
		case <-r.quit:
			return
		case <-time.After(b.params.RetryDelay):
		}
	}
}

// reserve claims up to BatchSize triples and BatchSize quadruples still
// needed by the current unit set. When nothing is needed it returns a nil
// work and a channel closed on the next change which may create work.
func (b *Buffer) reserve() (*work, <-chan struct{}, error) {
	b.mux.Lock()
	defer b.mux.Unlock()

	us := b.units
	if us == nil {
		return nil, nil, errors.Wrap(exception.ErrUninitialized,
			"cannot produce for an uninitialized buffer")
	}

	triples := needed(us.triples.Free(), us.reservedTriples, b.params.BatchSize)
	quadruples := needed(us.quadruples.Free(), us.reservedQuadruples,
		b.params.BatchSize)
	if triples == 0 && quadruples == 0 {
		return nil, b.idle, nil
	}

	us.reservedTriples += triples
	us.reservedQuadruples += quadruples
	return &work{
		units:      us,
		generation: us.generation,
		publicKey:  us.publicKey,
		triples:    triples,
		quadruples: quadruples,
	}, nil, nil
}

// needed returns how many units to reserve given the free space and the
// units already reserved
func needed(free, reserved, batch uint32) uint32 {
	if reserved >= free {
		return 0
	}
	return mathutil.MinUint32(free-reserved, batch)
}

// release returns a reservation. Must be called with the lock held.
func (w *work) release() {
	w.units.reservedTriples -= w.triples
	w.units.reservedQuadruples -= w.quadruples
}

// produce computes the reserved units and queues them. A nil owner marks
// foreground production, which is queued regardless of the running state.
func (b *Buffer) produce(stream io.Reader, w *work, owner *run) error {
	n := w.triples + 2*w.quadruples

	secrets := make([]*cyclic.Int, n)
	for i := range secrets {
		s, err := b.grp.RandomQ(stream)
		if err != nil {
			b.counters.AddEntropyFailure()
			b.abandon(w)
			return err
		}
		secrets[i] = b.grp.GetCyclic().NewIntFromBytes(s.Bytes())
	}

	triples, err := b.computeTriples(w.publicKey, secrets)
	if err != nil {
		b.abandon(w)
		return err
	}

	standalone := triples[:w.triples]
	pairs := triples[w.triples:]
	quadruples := make([]*Quadruple, w.quadruples)
	for i := range quadruples {
		first, second := pairs[2*i], pairs[2*i+1]
		quadruples[i] = &Quadruple{
			first:  first,
			second: second,
			blend:  b.grp.Mul(second.pad, first.blindingFactor),
		}
	}

	return b.enqueue(w, owner, standalone, quadruples)
}

// computeTriples exponentiates the generator and the public key by every
// secret in one batch
func (b *Buffer) computeTriples(publicKey *cyclic.Int,
	secrets []*cyclic.Int) ([]*Triple, error) {
	n := len(secrets)
	g := b.grp.Generator()

	bases := make([]*cyclic.Int, 2*n)
	exponents := make([]*cyclic.Int, 2*n)
	for i, s := range secrets {
		bases[i] = g
		bases[n+i] = publicKey
		exponents[i] = s
		exponents[n+i] = s
	}

	results, err := b.exp.Exp(b.grp.GetCyclic(), bases, exponents)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s exponentiation of %d "+
			"secrets failed", b.exp.Name(), n)
	}

	triples := make([]*Triple, n)
	for i := range triples {
		triples[i] = &Triple{
			secret:         secrets[i],
			pad:            results[i],
			blindingFactor: results[n+i],
		}
	}
	return triples, nil
}

// enqueue queues finished units if their unit set is still current and the
// producer is still allowed to run, and erases them otherwise
func (b *Buffer) enqueue(w *work, owner *run, triples []*Triple,
	quadruples []*Quadruple) error {
	b.mux.Lock()
	defer b.mux.Unlock()

	w.release()

	if b.units != w.units || b.units.generation != w.generation {
		erase(triples, quadruples)
		b.counters.AddDiscarded(uint64(len(triples) + len(quadruples)))
		return errors.Wrapf(exception.ErrKeyMismatch, "discarded %d "+
			"units produced for generation %d, current is %d",
			len(triples)+len(quadruples), w.generation, b.units.generation)
	}

	if owner != nil && b.run != owner {
		erase(triples, quadruples)
		b.counters.AddDiscarded(uint64(len(triples) + len(quadruples)))
		return nil
	}

	var sentTriples, sentQuadruples, dropped uint64
	for _, t := range triples {
		if w.units.triples.Send(t) {
			sentTriples++
		} else {
			t.Erase()
			dropped++
		}
	}
	for _, q := range quadruples {
		if w.units.quadruples.Send(q) {
			sentQuadruples++
		} else {
			q.Erase()
			dropped++
		}
	}
	b.counters.AddProduced(sentTriples, sentQuadruples)
	b.counters.AddDiscarded(dropped)

	jww.DEBUG.Printf("Queued %d triples and %d quadruples, now %d/%d and "+
		"%d/%d", sentTriples, sentQuadruples, w.units.triples.Len(),
		w.units.triples.Cap(), w.units.quadruples.Len(),
		w.units.quadruples.Cap())
	return nil
}

// abandon returns a reservation whose units could not be computed
func (b *Buffer) abandon(w *work) {
	b.mux.Lock()
	w.release()
	b.mux.Unlock()
}

func erase(triples []*Triple, quadruples []*Quadruple) {
	for _, t := range triples {
		t.Erase()
	}
	for _, q := range quadruples {
		q.Erase()
	}
}
