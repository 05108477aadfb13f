///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package benchmark

import (
	"gitlab.com/elixxir/ballotcrypt/precompute"
	"gitlab.com/elixxir/ballotcrypt/testUtil"
	"testing"
)

func testParams() precompute.Params {
	p := precompute.DefaultParams()
	p.Workers = 2
	p.BatchSize = 4
	return p
}

// Happy path
func TestRun(t *testing.T) {
	grp := testUtil.NewSmallGroup()

	res, err := Run(grp, testUtil.NewStreamGenerator(), precompute.CPU{},
		testParams(), 20)
	if err != nil {
		t.Fatalf("Run failed: %+v", err)
	}
	if res.Ballots != 20 {
		t.Errorf("Unexpected ballot count %d", res.Ballots)
	}
	if res.Precompute <= 0 || res.Buffered <= 0 || res.Direct <= 0 {
		t.Errorf("Timings were not recorded: %s", res)
	}
}

// Error path: no ballots
func TestRun_NoBallots(t *testing.T) {
	grp := testUtil.NewSmallGroup()

	_, err := Run(grp, testUtil.NewStreamGenerator(), precompute.CPU{},
		testParams(), 0)
	if err == nil {
		t.Errorf("Run should fail without ballots")
	}
}

func BenchmarkRun_Modp_100(b *testing.B) {
	grp := testUtil.NewModpGroup()
	rngGen := testUtil.NewStreamGenerator()
	for i := 0; i < b.N; i++ {
		if _, err := Run(grp, rngGen, precompute.CPU{}, testParams(),
			100); err != nil {
			b.Fatalf("Run failed: %+v", err)
		}
	}
}
