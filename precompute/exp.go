///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////


package precompute

// exp.go contains the exponentiation backends used to produce units

import (
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/ballotcrypt/exception"
	"gitlab.com/elixxir/crypto/cryptops"
	"gitlab.com/elixxir/crypto/cyclic"
)

// GPU memory allocated in bytes when none is configured
const DefaultGPUMemSize = 268435456

// Exponentiator computes batches of modular exponentiations
type Exponentiator interface {
	// Exp returns bases[i]^exponents[i] mod P for every i in new elements
	Exp(grp *cyclic.Group, bases, exponents []*cyclic.Int) ([]*cyclic.Int, error)
	// Name identifies the backend in logs
	Name() string
}

// CPU exponentiates on the calling goroutine
type CPU struct{}

// Exp implements Exponentiator with cryptops.Exp
func (CPU) Exp(grp *cyclic.Group, bases, exponents []*cyclic.Int) ([]*cyclic.Int, error) {
	if len(bases) != len(exponents) {
		return nil, errors.Wrapf(exception.ErrInvalidArgument,
			"%d bases for %d exponents", len(bases), len(exponents))
	}

	results := make([]*cyclic.Int, len(bases))
	for i := range bases {
		results[i] = cryptops.Exp(grp, bases[i], exponents[i], grp.NewInt(1))
	}
	return results, nil
}

// Name returns "CPU"
func (CPU) Name() string {
	return "CPU"
}

// NewExponentiator returns the GPU backend when requested and available, and
// the CPU backend otherwise
func NewExponentiator(useGPU bool, memSize int) Exponentiator {
	if !useGPU {
		jww.INFO.Printf("Using CPU maths, rather than CUDA")
		return CPU{}
	}

	if memSize <= 0 {
		memSize = DefaultGPUMemSize
	}
	jww.INFO.Printf("Initializing GPU maths, CUDA backend, with memory "+
		"size %v", memSize)

	gpu, err := NewGPU(memSize)
	if err != nil {
		// a buffer without a GPU is still valid
		jww.ERROR.Printf("Couldn't initialize GPU. Falling back to CPU "+
			"math. Error: %v", err.Error())
		return CPU{}
	}
	return gpu
}
