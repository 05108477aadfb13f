///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////


//go:build linux && gpu

package precompute

import (
	"github.com/cznic/mathutil"
	"github.com/pkg/errors"
	"gitlab.com/elixxir/ballotcrypt/exception"
	"gitlab.com/elixxir/crypto/cyclic"
	gpumaths "gitlab.com/elixxir/gpumathsgo"
)

// GPU exponentiates in chunks on a CUDA stream pool
type GPU struct {
	pool     *gpumaths.StreamPool
	maxSlots uint32
}

// NewGPU allocates a stream pool with memSize bytes per stream
func NewGPU(memSize int) (*GPU, error) {
	pool, err := gpumaths.NewStreamPool(2, memSize)
	if err != nil {
		return nil, errors.Wrap(err, "Couldn't create stream pool")
	}

	// MaxSlotsExp is the same for all streams
	stream := pool.TakeStream()
	pool.ReturnStream(stream)
	if int(gpumaths.ExpChunk.GetInputSize()) > stream.MaxSlotsExp {
		return nil, errors.Errorf("stream too small, has %v slots",
			stream.MaxSlotsExp)
	}

	return &GPU{pool: pool, maxSlots: uint32(stream.MaxSlotsExp)}, nil
}

// Exp implements Exponentiator with gpumaths.ExpChunk
func (g *GPU) Exp(grp *cyclic.Group, bases, exponents []*cyclic.Int) ([]*cyclic.Int, error) {
	if len(bases) != len(exponents) {
		return nil, errors.Wrapf(exception.ErrInvalidArgument,
			"%d bases for %d exponents", len(bases), len(exponents))
	}

	n := uint32(len(bases))
	x := grp.NewIntBuffer(n, grp.NewInt(1))
	y := grp.NewIntBuffer(n, grp.NewInt(1))
	z := grp.NewIntBuffer(n, grp.NewInt(1))
	for i := uint32(0); i < n; i++ {
		grp.Set(x.Get(i), bases[i])
		grp.Set(y.Get(i), exponents[i])
	}

	for begin := uint32(0); begin < n; begin += g.maxSlots {
		end := mathutil.MinUint32(begin+g.maxSlots, n)
		_, err := gpumaths.ExpChunk(g.pool, grp, x.GetSubBuffer(begin, end),
			y.GetSubBuffer(begin, end), z.GetSubBuffer(begin, end))
		if err != nil {
			return nil, errors.Wrapf(err, "GPU exponentiation of slots "+
				"%d to %d failed", begin, end)
		}
	}

	results := make([]*cyclic.Int, n)
	for i := uint32(0); i < n; i++ {
		results[i] = grp.NewIntFromBytes(z.Get(i).Bytes())
	}
	x.Erase()
	y.Erase()
	return results, nil
}

// Name returns "GPU"
func (g *GPU) Name() string {
	return "GPU"
}
