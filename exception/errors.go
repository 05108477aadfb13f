///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package exception holds the error taxonomy shared by the caching core and
// the last-error slot callers populate when a failure has to be reported
// across a foreign function boundary.
package exception

import (
	"fmt"
	"github.com/pkg/errors"
)

var (
	// ErrRangeExceeded is returned when a discrete log is not found within
	// the configured maximum exponent
	ErrRangeExceeded = errors.New("discrete log not found within search bound")

	// ErrUninitialized is returned when the precompute buffer is used before
	// a public key has been bound to it
	ErrUninitialized = errors.New("precompute buffer has not been initialized")

	// ErrInvalidArgument is returned for malformed inputs, before any
	// computation begins
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEntropyFailure is returned when the secure random source could not
	// supply bytes
	ErrEntropyFailure = errors.New("secure random source failed")

	// ErrKeyMismatch is returned when a unit was computed under a public key
	// which is no longer the target key
	ErrKeyMismatch = errors.New("public key mismatch")
)

// Code is the stable numeric code recorded alongside a failure
type Code int32

const (
	Ok = Code(iota)
	Unknown
	RangeExceeded
	Uninitialized
	InvalidArgument
	EntropyFailure
	KeyMismatch
)

// String returns the name of the code, primarily for error prints
func (c Code) String() string {
	switch c {
	case Ok:
		return "OK"
	case Unknown:
		return "UNKNOWN"
	case RangeExceeded:
		return "RANGE_EXCEEDED"
	case Uninitialized:
		return "UNINITIALIZED"
	case InvalidArgument:
		return "INVALID_ARGUMENT"
	case EntropyFailure:
		return "ENTROPY_FAILURE"
	case KeyMismatch:
		return "KEY_MISMATCH"
	default:
		return fmt.Sprintf("UNKNOWN CODE: %d", c)
	}
}

// CodeOf classifies an error, following wrapped causes
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return Ok
	case errors.Is(err, ErrRangeExceeded):
		return RangeExceeded
	case errors.Is(err, ErrUninitialized):
		return Uninitialized
	case errors.Is(err, ErrInvalidArgument):
		return InvalidArgument
	case errors.Is(err, ErrEntropyFailure):
		return EntropyFailure
	case errors.Is(err, ErrKeyMismatch):
		return KeyMismatch
	default:
		return Unknown
	}
}
