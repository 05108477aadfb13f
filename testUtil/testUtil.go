///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package testUtil holds groups and helpers shared by the package tests
package testUtil

import (
	"gitlab.com/elixxir/ballotcrypt/group"
	"gitlab.com/elixxir/crypto/fastRNG"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/large"
	"runtime"
)

// Small safe prime group: P = 2*Q + 1, G = 4 is a quadratic residue and so
// generates the subgroup of order Q
const (
	SmallPrime     = 2039
	SmallOrder     = 1019
	SmallGenerator = 4
)

// RFC 3526 2048-bit MODP group. G = 2 generates the subgroup of order
// Q = (P-1)/2.
const ModpPrimeHex = "FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1" +
	"29024E088A67CC74020BBEA63B139B22514A08798E3404DD" +
	"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245" +
	"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3D" +
	"C2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F" +
	"83655D23DCA3AD961C62F356208552BB9ED529077096966D" +
	"670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B" +
	"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9" +
	"DE2BCBF6955817183995497CEA956AE515D2261898FA0510" +
	"15728E5A8AACAA68FFFFFFFFFFFFFFFF"

// NewSmallGroup returns the small test group. Every element of the subgroup
// has a discrete log below SmallOrder, which makes exhaustive tests cheap.
func NewSmallGroup() *group.Group {
	return group.NewGroup(large.NewInt(SmallPrime),
		large.NewInt(SmallGenerator), large.NewInt(SmallOrder))
}

// NewModpGroup returns the 2048-bit MODP group
func NewModpGroup() *group.Group {
	p := large.NewIntFromString(ModpPrimeHex, 16)

	// (P-1)/2 computed as (P-1) * 2^-1 mod P
	q := large.NewInt(0).Sub(p, large.NewInt(1))
	q.Mul(q, large.NewInt(0).ModInverse(large.NewInt(2), p))
	q.Mod(q, p)

	return group.NewGroup(p, large.NewInt(2), q)
}

// NewStreamGenerator returns a csprng backed stream generator sized for tests
func NewStreamGenerator() *fastRNG.StreamGenerator {
	return fastRNG.NewStreamGenerator(10000, uint(runtime.NumCPU()),
		csprng.NewSystemRNG)
}
