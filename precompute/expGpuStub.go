///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////


//go:build !linux || !gpu

package precompute

import (
	"github.com/pkg/errors"
)

// NewGPU always fails in builds without the gpu tag
func NewGPU(int) (Exponentiator, error) {
	return nil, errors.New("GPU maths not compiled in, build with " +
		"-tags gpu on linux")
}
