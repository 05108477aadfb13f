///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package measure

// measure_tags.go contains the string constants for our measure tags

// Constants for Tag strings used by Measure()
const (
	TagInitialize = "Initialize"
	TagRetarget   = "Retarget"
	TagResize     = "Resize"
	TagStart      = "Start"
	TagStop       = "Stop"
	TagClear      = "Clear"
)
