///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package conf

import (
	"testing"
)

// Happy path
func TestGroups_GetElection(t *testing.T) {
	grp, err := ExpectedGroups.GetElection()
	if err != nil {
		t.Fatalf("GetElection failed: %+v", err)
	}

	if grp.GetP().Int64() != 2039 {
		t.Errorf("Unexpected prime %s", grp.GetP().Text(10))
	}
	if grp.GetQ().Int64() != 1019 {
		t.Errorf("Unexpected small prime %s", grp.GetQ().Text(10))
	}
	if grp.Generator().GetLargeInt().Int64() != 4 {
		t.Errorf("Unexpected generator %s", grp.Generator().Text(10))
	}
}

// Tests that formatting characters in the hex strings are ignored
func TestToGroup_Formatting(t *testing.T) {
	grp, err := toGroup(map[string]string{
		"prime":      "0x07 F7\n",
		"smallprime": "03-FB",
		"generator":  "4",
	})
	if err != nil {
		t.Fatalf("toGroup failed: %+v", err)
	}
	if grp.GetP().Int64() != 2039 {
		t.Errorf("Unexpected prime %s", grp.GetP().Text(10))
	}
}

// Error path: missing and malformed values
func TestToGroup_Invalid(t *testing.T) {
	invalid := []map[string]string{
		{"prime": "7F7", "generator": "4"},
		{"prime": "7F7", "smallprime": "3FB", "generator": "XYZ"},
		{"prime": "", "smallprime": "3FB", "generator": "4"},
		{"prime": "7F7", "smallprime": "7F7", "generator": "4"},
	}

	for i, grp := range invalid {
		if _, err := toGroup(grp); err == nil {
			t.Errorf("Config %d should have been rejected", i)
		}
	}
}

func TestToLargeInt(t *testing.T) {
	for _, s := range []string{"0x3FB", "3FB", "3fb"} {
		i, err := toLargeInt(s)
		if err != nil {
			t.Fatalf("toLargeInt(%s) failed: %+v", s, err)
		}
		if i.Int64() != 1019 {
			t.Errorf("toLargeInt(%s) returned %s", s, i.Text(10))
		}
	}
}
