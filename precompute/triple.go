///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////


package precompute

// triple.go contains the units handed out by the buffer

import (
	"gitlab.com/elixxir/crypto/cyclic"
	"gitlab.com/xx_network/crypto/large"
)

// Triple is a secret exponent s together with G^s and K^s for the public key
// K it was produced under. A triple must only ever be used once. The
// elements returned by its accessors must not be modified.
type Triple struct {
	secret         *cyclic.Int
	pad            *cyclic.Int
	blindingFactor *cyclic.Int
}

// Secret returns a copy of the secret exponent
func (t *Triple) Secret() *large.Int {
	return large.NewIntFromBytes(t.secret.Bytes())
}

// Pad returns G^secret
func (t *Triple) Pad() *cyclic.Int {
	return t.pad
}

// BlindingFactor returns K^secret
func (t *Triple) BlindingFactor() *cyclic.Int {
	return t.blindingFactor
}

// Erase zeroes the secret and both exponentiations
func (t *Triple) Erase() {
	t.secret.Erase()
	t.pad.Erase()
	t.blindingFactor.Erase()
}

// Quadruple pairs two independent triples staging the two branches of a
// disjunctive proof, plus the shared blinding component
// G^second.secret * K^first.secret.
type Quadruple struct {
	first  *Triple
	second *Triple
	blend  *cyclic.Int
}

// First returns the triple of the first branch
func (q *Quadruple) First() *Triple {
	return q.first
}

// Second returns the triple of the second branch
func (q *Quadruple) Second() *Triple {
	return q.second
}

// Blend returns G^second.secret * K^first.secret
func (q *Quadruple) Blend() *cyclic.Int {
	return q.blend
}

// Erase zeroes both triples and the blend
func (q *Quadruple) Erase() {
	q.first.Erase()
	q.second.Erase()
	q.blend.Erase()
}

// Selection is what one encrypted ballot selection consumes: a triple for the
// encryption and a quadruple for its proof, both bound to PublicKey
type Selection struct {
	PublicKey *cyclic.Int
	Triple    *Triple
	Quadruple *Quadruple
}

// Erase zeroes the secrets of the selection once it has been used
func (s *Selection) Erase() {
	s.Triple.Erase()
	s.Quadruple.Erase()
}
