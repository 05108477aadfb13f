///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////


package elgamal

// threshold.go contains decryption with shares of the secret key

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/ballotcrypt/dlog"
	"gitlab.com/elixxir/ballotcrypt/exception"
	"gitlab.com/elixxir/ballotcrypt/group"
	"gitlab.com/elixxir/ballotcrypt/polynomial"
	"gitlab.com/elixxir/crypto/cyclic"
	"gitlab.com/xx_network/crypto/large"
)

// PartialDecrypt returns the share Pad^share of one key holder
func PartialDecrypt(grp *group.Group, c *Ciphertext, share *large.Int) *cyclic.Int {
	return grp.Exp(c.Pad, share)
}

// DecryptWithShares combines partial decryptions, keyed by the sequence
// order of their key holder, and recovers m. Any threshold sized subset of
// the key holders suffices.
func DecryptWithShares(grp *group.Group, c *Ciphertext,
	partials map[uint64]*cyclic.Int, cache *dlog.Cache) (uint64, error) {
	if len(partials) == 0 {
		return 0, errors.Wrap(exception.ErrInvalidArgument,
			"no partial decryptions")
	}

	orders := make([]uint64, 0, len(partials))
	for order := range partials {
		orders = append(orders, order)
	}

	blinding := grp.Identity()
	others := make([]uint64, 0, len(orders))
	for i, order := range orders {
		others = others[:0]
		others = append(others, orders[:i]...)
		others = append(others, orders[i+1:]...)

		var l *large.Int
		if len(others) == 0 {
			l = large.NewInt(1)
		} else {
			var err error
			l, err = polynomial.Coefficient(grp.GetQ(), order, others)
			if err != nil {
				return 0, errors.WithMessagef(err, "key holder %d", order)
			}
		}
		blinding = grp.Mul(blinding, grp.Exp(partials[order], l))
	}

	return unblind(grp, c, blinding, cache)
}
