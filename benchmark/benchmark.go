///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package benchmark runs parameterized encryption and tally simulations
// against the precompute buffer and the discrete log cache
package benchmark

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/ballotcrypt/dlog"
	"gitlab.com/elixxir/ballotcrypt/elgamal"
	"gitlab.com/elixxir/ballotcrypt/group"
	"gitlab.com/elixxir/ballotcrypt/precompute"
	"gitlab.com/elixxir/crypto/fastRNG"
	"io"
	"time"
)

// Result holds the timings of one simulated election
type Result struct {
	Ballots uint32
	// Time to fill the buffer with one selection per ballot
	Precompute time.Duration
	// Time to encrypt every ballot with a selection
	Buffered time.Duration
	// Time to encrypt every ballot without the buffer
	Direct time.Duration
	// Time to sum and decrypt the tally of each set
	Tally time.Duration
}

func (r Result) String() string {
	return fmt.Sprintf("%d ballots: precompute %s, buffered encryption %s, "+
		"direct encryption %s, tally %s", r.Ballots, r.Precompute,
		r.Buffered, r.Direct, r.Tally)
}

// Run encrypts ballots votes of 0 or 1 twice, once from a precompute buffer
// holding a selection per ballot and once directly, and checks both tallies
// decrypt to the number of 1 votes
func Run(grp *group.Group, rngGen *fastRNG.StreamGenerator,
	exp precompute.Exponentiator, params precompute.Params,
	ballots uint32) (*Result, error) {
	if ballots == 0 {
		return nil, errors.New("benchmark needs at least one ballot")
	}

	stream := rngGen.GetStream()
	defer stream.Close()

	kp, err := elgamal.GenerateKeyPair(grp, stream)
	if err != nil {
		return nil, err
	}

	res := &Result{Ballots: ballots}

	buf := precompute.NewBuffer(grp, rngGen, exp, params)
	if err = buf.Initialize(kp.PublicKey, ballots); err != nil {
		return nil, err
	}
	start := time.Now()
	if err = buf.Populate(context.Background()); err != nil {
		return nil, err
	}
	res.Precompute = time.Since(start)

	start = time.Now()
	buffered, err := encryptAll(grp, kp, buf, stream, ballots)
	if err != nil {
		return nil, err
	}
	res.Buffered = time.Since(start)

	start = time.Now()
	direct, err := encryptAll(grp, kp, nil, stream, ballots)
	if err != nil {
		return nil, err
	}
	res.Direct = time.Since(start)

	expected := uint64(ballots / 2)
	cache := dlog.NewCache(grp, uint64(ballots))
	start = time.Now()
	for _, set := range [][]*elgamal.Ciphertext{buffered, direct} {
		sum, err := elgamal.Add(grp, set...)
		if err != nil {
			return nil, err
		}
		tally, err := elgamal.Decrypt(grp, sum, kp.SecretKey, cache)
		if err != nil {
			return nil, err
		}
		if tally != expected {
			return nil, errors.Errorf("tally decrypted to %d, expected %d",
				tally, expected)
		}
	}
	res.Tally = time.Since(start)

	jww.INFO.Printf("Benchmark: %s", res)
	return res, nil
}

// encryptAll encrypts ballots alternating 0 and 1 votes
func encryptAll(grp *group.Group, kp *elgamal.KeyPair, buf *precompute.Buffer,
	rng io.Reader, ballots uint32) ([]*elgamal.Ciphertext, error) {
	out := make([]*elgamal.Ciphertext, ballots)
	for i := uint32(0); i < ballots; i++ {
		c, _, err := elgamal.Encrypt(grp, uint64(i%2), kp.PublicKey, buf, rng)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
