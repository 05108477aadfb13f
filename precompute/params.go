///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////


package precompute

import (
	"runtime"
	"time"
)

// Params tune the production of a Buffer
type Params struct {
	// Quadruple target used by StartWithKey on an uninitialized buffer
	DefaultMaxBuffers uint32 `yaml:"maxBuffers"`
	// Triple target per quadruple of target
	TriplesPerQuadruple uint32 `yaml:"triplesPerQuadruple"`
	// Number of background producers
	Workers uint32 `yaml:"workers"`
	// Maximum number of triples and of quadruples reserved by one
	// production step
	BatchSize uint32 `yaml:"batchSize"`
	// Wait after a failed production step before trying again
	RetryDelay time.Duration `yaml:"retryDelay"`
}

// DefaultParams returns the production settings used when none are
// configured
func DefaultParams() Params {
	return Params{
		DefaultMaxBuffers:   100,
		TriplesPerQuadruple: 2,
		Workers:             uint32(runtime.NumCPU()),
		BatchSize:           16,
		RetryDelay:          time.Second,
	}
}

// sanitize replaces unusable zero values with defaults
func (p Params) sanitize() Params {
	def := DefaultParams()
	if p.DefaultMaxBuffers == 0 {
		p.DefaultMaxBuffers = def.DefaultMaxBuffers
	}
	if p.TriplesPerQuadruple == 0 {
		p.TriplesPerQuadruple = def.TriplesPerQuadruple
	}
	if p.Workers == 0 {
		p.Workers = def.Workers
	}
	if p.BatchSize == 0 {
		p.BatchSize = def.BatchSize
	}
	return p
}
