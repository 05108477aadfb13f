///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package group wraps a cyclic group of prime order Q inside Z_P^* with the
// operations the caching core needs: P-space multiplication and
// exponentiation, plus Q-space (exponent) reduction and sampling.
package group

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/ballotcrypt/exception"
	"gitlab.com/elixxir/crypto/cyclic"
	"gitlab.com/xx_network/crypto/large"
	"golang.org/x/crypto/blake2b"
	"io"
)

// Number of extra bytes drawn when sampling in Z_q to keep the modular bias
// negligible
const samplingOverhead = 8

// Group is the pad space (elements mod P) together with the order Q of the
// subgroup generated by G, which is the exponent space
type Group struct {
	cyc *cyclic.Group
	q   *large.Int
	one *large.Int
}

// NewGroup builds a group from the prime p, generator g and subgroup order q
func NewGroup(p, g, q *large.Int) *Group {
	return &Group{
		cyc: cyclic.NewGroup(p, g),
		q:   q,
		one: large.NewInt(1),
	}
}

// GetCyclic returns the underlying cyclic group
func (grp *Group) GetCyclic() *cyclic.Group {
	return grp.cyc
}

// GetP returns the modulus of the pad space
func (grp *Group) GetP() *large.Int {
	return grp.cyc.GetP()
}

// GetQ returns the order of the exponent space. It must not be modified.
func (grp *Group) GetQ() *large.Int {
	return grp.q
}

// Generator returns a new copy of G
func (grp *Group) Generator() *cyclic.Int {
	return grp.cyc.GetGCyclic()
}

// Identity returns a new copy of the multiplicative identity
func (grp *Group) Identity() *cyclic.Int {
	return grp.cyc.NewInt(1)
}

// Equal reports whether both elements hold the same value
func (grp *Group) Equal(a, b *cyclic.Int) bool {
	return a.Cmp(b) == 0
}

// Mul returns x*y mod P in a new element
func (grp *Group) Mul(x, y *cyclic.Int) *cyclic.Int {
	return grp.cyc.Mul(x, y, grp.cyc.NewInt(1))
}

// Exp returns base^exponent mod P in a new element. The exponent is reduced
// mod Q first, a zero exponent yields the identity.
func (grp *Group) Exp(base *cyclic.Int, exponent *large.Int) *cyclic.Int {
	e := grp.ModQ(exponent)
	if e.BitLen() == 0 {
		return grp.Identity()
	}
	return grp.cyc.Exp(base, grp.cyc.NewIntFromBytes(e.Bytes()),
		grp.cyc.NewInt(1))
}

// ExpG returns G^exponent mod P in a new element
func (grp *Group) ExpG(exponent *large.Int) *cyclic.Int {
	return grp.Exp(grp.Generator(), exponent)
}

// ExpUint64 returns base^k mod P in a new element
func (grp *Group) ExpUint64(base *cyclic.Int, k uint64) *cyclic.Int {
	return grp.Exp(base, large.NewIntFromUInt(k))
}

// ModQ returns x mod Q in a new integer
func (grp *Group) ModQ(x *large.Int) *large.Int {
	return large.NewInt(0).Mod(x, grp.q)
}

// RandomQ draws a uniformly distributed non-zero exponent in [1, Q) from rng
func (grp *Group) RandomQ(rng io.Reader) (*large.Int, error) {
	buf := make([]byte, (grp.q.BitLen()+7)/8+samplingOverhead)
	if _, err := io.ReadFull(rng, buf); err != nil {
		return nil, errors.Wrapf(exception.ErrEntropyFailure,
			"could not draw exponent: %+v", err)
	}

	qSub1 := large.NewInt(0).Sub(grp.q, grp.one)
	r := large.NewIntFromBytes(buf)
	r.Mod(r, qSub1)
	return r.Add(r, grp.one), nil
}

// NewElement decodes a big endian pad space element. Values outside of
// [1, P) are rejected.
func (grp *Group) NewElement(b []byte) (*cyclic.Int, error) {
	if len(b) == 0 || !grp.cyc.BytesInside(b) {
		return nil, errors.Wrapf(exception.ErrInvalidArgument,
			"%d bytes are not a group element", len(b))
	}
	return grp.cyc.NewIntFromBytes(b), nil
}

// IsValidResidue reports whether e is a member of the order Q subgroup
func (grp *Group) IsValidResidue(e *cyclic.Int) bool {
	if e == nil || !grp.cyc.BytesInside(e.Bytes()) {
		return false
	}
	check := grp.cyc.Exp(e, grp.cyc.NewIntFromBytes(grp.q.Bytes()),
		grp.cyc.NewInt(1))
	return check.Cmp(grp.Identity()) == 0
}

// Fingerprint returns the blake2b-256 digest of the element's bytes. It is
// used to key persisted tables and to identify public keys in logs.
func Fingerprint(e *cyclic.Int) []byte {
	digest := blake2b.Sum256(e.Bytes())
	return digest[:]
}
