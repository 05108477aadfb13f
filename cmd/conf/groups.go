///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package conf

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/ballotcrypt/group"
	"gitlab.com/xx_network/crypto/large"
	"regexp"
)

var nonAlphaNumeric = regexp.MustCompile("[^a-zA-Z0-9]+")

// Contains the cyclic group config params
type Groups struct {
	Election map[string]string `yaml:"election"`
}

// GetElection returns the group the election is encrypted in
func (g Groups) GetElection() (*group.Group, error) {
	return toGroup(g.Election)
}

// toGroup takes a group represented by a map of string to string
// and uses the prime, small prime and generator to create
// and return a group object.
func toGroup(grp map[string]string) (*group.Group, error) {
	pStr, pOk := grp["prime"]
	qStr, qOk := grp["smallprime"]
	gStr, gOk := grp["generator"]

	if !gOk || !qOk || !pOk {
		return nil, errors.Errorf("Invalid Group Config "+
			"(prime: %v, smallPrime: %v, generator: %v)",
			pOk, qOk, gOk)
	}

	p, err := toLargeInt(removeNonAlphaNumeric(pStr))
	if err != nil {
		return nil, errors.WithMessage(err, "prime")
	}
	q, err := toLargeInt(removeNonAlphaNumeric(qStr))
	if err != nil {
		return nil, errors.WithMessage(err, "smallprime")
	}
	g, err := toLargeInt(removeNonAlphaNumeric(gStr))
	if err != nil {
		return nil, errors.WithMessage(err, "generator")
	}

	if q.Cmp(p) >= 0 || g.Cmp(p) >= 0 {
		return nil, errors.New("Invalid Group Config: smallprime and " +
			"generator must be smaller than prime")
	}

	return group.NewGroup(p, g, q), nil
}

// removeNonAlphaNumeric removes all non alpha-numeric
// characters from string and returns the result
func removeNonAlphaNumeric(s string) string {
	return nonAlphaNumeric.ReplaceAllString(s, "")
}

// toLargeInt takes in a string representation of a large int.
// The string representation must be in hex.  It can either
// be preceded by an 0x or not.
func toLargeInt(hexStr string) (*large.Int, error) {
	if len(hexStr) > 2 && "0x" == hexStr[:2] {
		hexStr = hexStr[2:]
	}
	i := large.NewIntFromString(hexStr, 16)
	if i == nil || hexStr == "" {
		return nil, errors.Errorf("%q is not a hex integer", hexStr)
	}
	return i, nil
}
