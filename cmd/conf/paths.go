///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package conf

// Paths contains the config params for
// file paths used by the system
type Paths struct {
	Log string `yaml:"log"`
	// Where the last recorded failure is kept across restarts
	ErrOutput string `yaml:"errOutput"`
}
