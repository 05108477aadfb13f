///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////


package elgamal

import (
	"context"
	"gitlab.com/elixxir/ballotcrypt/dlog"
	"gitlab.com/elixxir/ballotcrypt/exception"
	"gitlab.com/elixxir/ballotcrypt/group"
	"gitlab.com/elixxir/ballotcrypt/polynomial"
	"gitlab.com/elixxir/ballotcrypt/precompute"
	"gitlab.com/elixxir/ballotcrypt/testUtil"
	"gitlab.com/elixxir/crypto/cyclic"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/large"
	"testing"
)

func setup(t *testing.T) (*group.Group, *KeyPair, *dlog.Cache) {
	grp := testUtil.NewSmallGroup()
	kp, err := GenerateKeyPair(grp, csprng.NewSystemRNG())
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %+v", err)
	}
	return grp, kp, dlog.NewCache(grp, 0)
}

// Happy path with fresh exponentiations
func TestEncrypt_NoBuffer(t *testing.T) {
	grp, kp, cache := setup(t)

	for _, m := range []uint64{0, 1, 42, 1000} {
		c, nonce, err := Encrypt(grp, m, kp.PublicKey, nil,
			csprng.NewSystemRNG())
		if err != nil {
			t.Fatalf("Encrypt failed: %+v", err)
		}

		received, err := Decrypt(grp, c, kp.SecretKey, cache)
		if err != nil || received != m {
			t.Errorf("Decrypt returned %d, %v, expected %d", received, err, m)
		}
		received, err = DecryptKnownNonce(grp, c, nonce, kp.PublicKey, cache)
		if err != nil || received != m {
			t.Errorf("DecryptKnownNonce returned %d, %v, expected %d",
				received, err, m)
		}
	}
}

// Tests that encryption consumes a selection when available and falls back
// once the buffer is empty
func TestEncrypt_Buffer(t *testing.T) {
	grp, kp, cache := setup(t)

	buf := precompute.NewBuffer(grp, testUtil.NewStreamGenerator(),
		precompute.CPU{}, precompute.Params{})
	if err := buf.Initialize(kp.PublicKey, 2); err != nil {
		t.Fatalf("Initialize failed: %+v", err)
	}
	if err := buf.Populate(context.Background()); err != nil {
		t.Fatalf("Populate failed: %+v", err)
	}

	for i := uint64(0); i < 3; i++ {
		c, _, err := Encrypt(grp, i, kp.PublicKey, buf, csprng.NewSystemRNG())
		if err != nil {
			t.Fatalf("Encrypt %d failed: %+v", i, err)
		}
		received, err := Decrypt(grp, c, kp.SecretKey, cache)
		if err != nil || received != i {
			t.Errorf("Decrypt returned %d, %v, expected %d", received, err, i)
		}
	}

	if s := buf.Snapshot(); s.Counters.Consumed != 2 || s.Quadruples != 0 {
		t.Errorf("Expected both selections consumed: %s", s)
	}
}

// Error path: the buffer was never initialized
func TestEncrypt_UninitializedBuffer(t *testing.T) {
	grp, kp, _ := setup(t)

	buf := precompute.NewBuffer(grp, testUtil.NewStreamGenerator(),
		precompute.CPU{}, precompute.Params{})
	_, _, err := Encrypt(grp, 1, kp.PublicKey, buf, csprng.NewSystemRNG())
	if exception.CodeOf(err) != exception.Uninitialized {
		t.Errorf("Expected an uninitialized error, received %v", err)
	}
}

// Tests that a selection for another key is rejected, and that Encrypt falls
// back when the buffer holds such selections
func TestEncryptWithSelection_KeyMismatch(t *testing.T) {
	grp, kp, cache := setup(t)
	other := grp.ExpUint64(grp.Generator(), 5)

	buf := precompute.NewBuffer(grp, testUtil.NewStreamGenerator(),
		precompute.CPU{}, precompute.Params{})
	_ = buf.Initialize(other, 2)
	_ = buf.Populate(context.Background())

	sel, ok, _ := buf.GetSelection()
	if !ok {
		t.Fatalf("Expected a selection")
	}
	_, _, err := EncryptWithSelection(grp, 1, kp.PublicKey, sel)
	if exception.CodeOf(err) != exception.KeyMismatch {
		t.Errorf("Expected a key mismatch, received %v", err)
	}

	c, _, err := Encrypt(grp, 7, kp.PublicKey, buf, csprng.NewSystemRNG())
	if err != nil {
		t.Fatalf("Encrypt should fall back: %+v", err)
	}
	if m, _ := Decrypt(grp, c, kp.SecretKey, cache); m != 7 {
		t.Errorf("Fallback encryption decrypted to %d", m)
	}
}

// Tests homomorphic tallying
func TestAdd(t *testing.T) {
	grp, kp, cache := setup(t)

	votes := []uint64{1, 0, 1, 1, 0, 1}
	ciphertexts := make([]*Ciphertext, len(votes))
	for i, v := range votes {
		ciphertexts[i], _, _ = Encrypt(grp, v, kp.PublicKey, nil,
			csprng.NewSystemRNG())
	}

	sum, err := Add(grp, ciphertexts...)
	if err != nil {
		t.Fatalf("Add failed: %+v", err)
	}
	tally, err := Decrypt(grp, sum, kp.SecretKey, cache)
	if err != nil || tally != 4 {
		t.Errorf("Tally is %d, %v, expected 4", tally, err)
	}

	if _, err = Add(grp); exception.CodeOf(err) != exception.InvalidArgument {
		t.Errorf("Expected an invalid argument error, received %v", err)
	}
}

// Tests that any three of five key holders decrypt a 3 of 5 shared key
func TestDecryptWithShares(t *testing.T) {
	grp := testUtil.NewSmallGroup()
	q := grp.GetQ()
	cache := dlog.NewCache(grp, 0)

	coefficients := []*large.Int{large.NewInt(123), large.NewInt(45),
		large.NewInt(678)}
	publicKey := grp.ExpG(coefficients[0])

	shares := make(map[uint64]*large.Int)
	for order := uint64(1); order <= 5; order++ {
		shares[order], _ = polynomial.Evaluate(q, coefficients, order)
	}

	c := EncryptWithNonce(grp, 17, publicKey, large.NewInt(99))

	for _, subset := range [][]uint64{{1, 2, 3}, {2, 4, 5}, {1, 3, 5}} {
		partials := make(map[uint64]*cyclic.Int)
		for _, order := range subset {
			partials[order] = PartialDecrypt(grp, c, shares[order])
		}
		m, err := DecryptWithShares(grp, c, partials, cache)
		if err != nil || m != 17 {
			t.Errorf("Subset %v decrypted to %d, %v", subset, m, err)
		}
	}

	if _, err := DecryptWithShares(grp, c, nil, cache); exception.CodeOf(err) != exception.InvalidArgument {
		t.Errorf("Expected an invalid argument error, received %v", err)
	}
}
