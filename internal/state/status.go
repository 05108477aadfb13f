///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package state holds the lifecycle of a precompute buffer: the states that
// exist and which transitions between them are valid.
package state

import (
	"fmt"
)

type Status uint32

const (
	UNINITIALIZED = Status(iota)
	STOPPED
	RUNNING
	NUM_STATUS
)

// Stringer to get the name of the state, primarily for error prints
func (s Status) String() string {
	switch s {
	case UNINITIALIZED:
		return "UNINITIALIZED"
	case STOPPED:
		return "STOPPED"
	case RUNNING:
		return "RUNNING"
	default:
		return fmt.Sprintf("UNKNOWN STATE: %d", s)
	}
}
