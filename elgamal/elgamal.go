///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////


// Package elgamal implements exponential ElGamal over the group on top of the
// precompute buffer and the discrete log cache. Ciphertexts of m are
// (G^r, G^m * K^r), so multiplying ciphertexts adds their plaintexts.
package elgamal

import (
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/ballotcrypt/dlog"
	"gitlab.com/elixxir/ballotcrypt/exception"
	"gitlab.com/elixxir/ballotcrypt/group"
	"gitlab.com/elixxir/ballotcrypt/precompute"
	"gitlab.com/elixxir/crypto/cyclic"
	"gitlab.com/xx_network/crypto/large"
	"io"
)

// KeyPair is an election key pair, PublicKey = G^SecretKey
type KeyPair struct {
	SecretKey *large.Int
	PublicKey *cyclic.Int
}

// Ciphertext is an exponential ElGamal ciphertext
type Ciphertext struct {
	Pad  *cyclic.Int
	Data *cyclic.Int
}

// GenerateKeyPair draws a secret key from rng
func GenerateKeyPair(grp *group.Group, rng io.Reader) (*KeyPair, error) {
	sk, err := grp.RandomQ(rng)
	if err != nil {
		return nil, errors.WithMessage(err, "Failed to generate key pair")
	}
	return &KeyPair{SecretKey: sk, PublicKey: grp.ExpG(sk)}, nil
}

// EncryptWithSelection encrypts m with the triple of a precomputed selection.
// It returns the ciphertext and the nonce used. The selection must be bound
// to publicKey.
func EncryptWithSelection(grp *group.Group, m uint64, publicKey *cyclic.Int,
	sel *precompute.Selection) (*Ciphertext, *large.Int, error) {
	if sel == nil || publicKey == nil {
		return nil, nil, errors.Wrap(exception.ErrInvalidArgument,
			"encryption needs a selection and a public key")
	}
	if !grp.Equal(sel.PublicKey, publicKey) {
		return nil, nil, errors.Wrap(exception.ErrKeyMismatch,
			"selection was precomputed for another public key")
	}

	t := sel.Triple
	c := &Ciphertext{
		Pad:  grp.GetCyclic().NewIntFromBytes(t.Pad().Bytes()),
		Data: grp.Mul(grp.ExpUint64(grp.Generator(), m), t.BlindingFactor()),
	}
	return c, t.Secret(), nil
}

// Encrypt encrypts m under publicKey. A selection from buf is used when one
// is available, otherwise the exponentiations are computed with a nonce from
// rng. buf may be nil.
func Encrypt(grp *group.Group, m uint64, publicKey *cyclic.Int,
	buf *precompute.Buffer, rng io.Reader) (*Ciphertext, *large.Int, error) {
	if publicKey == nil {
		return nil, nil, errors.Wrap(exception.ErrInvalidArgument,
			"encryption needs a public key")
	}

	if buf != nil {
		sel, ok, err := buf.GetSelection()
		if err != nil {
			return nil, nil, err
		}
		if ok {
			c, nonce, err := EncryptWithSelection(grp, m, publicKey, sel)
			// the proof material is not used here
			sel.Quadruple.Erase()
			if err == nil {
				sel.Triple.Erase()
				return c, nonce, nil
			}
			sel.Triple.Erase()
			if !errors.Is(err, exception.ErrKeyMismatch) {
				return nil, nil, err
			}
			jww.WARN.Printf("Precompute buffer is bound to another key, "+
				"encrypting without it: %s", err)
		}
	}

	nonce, err := grp.RandomQ(rng)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "Failed to draw nonce")
	}
	return EncryptWithNonce(grp, m, publicKey, nonce), nonce, nil
}

// EncryptWithNonce encrypts m with the given nonce
func EncryptWithNonce(grp *group.Group, m uint64, publicKey *cyclic.Int,
	nonce *large.Int) *Ciphertext {
	return &Ciphertext{
		Pad: grp.ExpG(nonce),
		Data: grp.Mul(grp.ExpUint64(grp.Generator(), m),
			grp.Exp(publicKey, nonce)),
	}
}

// Add homomorphically sums ciphertexts
func Add(grp *group.Group, ciphertexts ...*Ciphertext) (*Ciphertext, error) {
	if len(ciphertexts) == 0 {
		return nil, errors.Wrap(exception.ErrInvalidArgument,
			"cannot add zero ciphertexts")
	}

	sum := &Ciphertext{Pad: grp.Identity(), Data: grp.Identity()}
	for _, c := range ciphertexts {
		sum.Pad = grp.Mul(sum.Pad, c.Pad)
		sum.Data = grp.Mul(sum.Data, c.Data)
	}
	return sum, nil
}

// Decrypt recovers m with the secret key
func Decrypt(grp *group.Group, c *Ciphertext, secretKey *large.Int,
	cache *dlog.Cache) (uint64, error) {
	return unblind(grp, c, grp.Exp(c.Pad, secretKey), cache)
}

// DecryptKnownNonce recovers m from the nonce used to encrypt it
func DecryptKnownNonce(grp *group.Group, c *Ciphertext, nonce *large.Int,
	publicKey *cyclic.Int, cache *dlog.Cache) (uint64, error) {
	return unblind(grp, c, grp.Exp(publicKey, nonce), cache)
}

// unblind divides the blinding factor out of the data and looks up the
// discrete log of what is left
func unblind(grp *group.Group, c *Ciphertext, blinding *cyclic.Int,
	cache *dlog.Cache) (uint64, error) {
	// x^(Q-1) is the inverse of x in the order Q subgroup
	qSub1 := large.NewInt(0).Sub(grp.GetQ(), large.NewInt(1))
	gm := grp.Mul(c.Data, grp.Exp(blinding, qSub1))

	m, err := cache.Get(gm)
	if err != nil {
		return 0, errors.WithMessage(err, "Failed to decrypt")
	}
	return m, nil
}
