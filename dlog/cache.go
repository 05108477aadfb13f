///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package dlog implements the discrete log cache used to recover small
// integers (tallies) from group elements of the form base^k.
//
// The table only ever grows by walking the exponent one step at a time from
// the largest known entry, so every exponent in [0, k] is present once k is.
// A table is only valid for the base it was built with; looking up under a
// different base discards it.
package dlog

import (
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/ballotcrypt/exception"
	"gitlab.com/elixxir/ballotcrypt/group"
	"gitlab.com/elixxir/crypto/cyclic"
	"sync"
)

// DefaultMaxExponent is the search ceiling used when none is configured
const DefaultMaxExponent = uint64(5000000)

// Cache is a discrete log memo table shared by every caller in the process.
// It is safe for concurrent use.
type Cache struct {
	grp *group.Group

	mux         sync.Mutex
	maxExponent uint64
	base        *cyclic.Int
	baseKey     []byte
	identity    string
	table       map[string]uint64

	// cursor is the element with the largest known exponent
	cursor         *cyclic.Int
	cursorExponent uint64

	// entries with an exponent below persisted are known to be in the store
	persisted uint64
}

// NewCache creates a cache over grp using the group generator as base. A
// maxExponent of zero selects DefaultMaxExponent.
func NewCache(grp *group.Group, maxExponent uint64) *Cache {
	if maxExponent == 0 {
		maxExponent = DefaultMaxExponent
	}
	c := &Cache{
		grp:         grp,
		maxExponent: maxExponent,
		identity:    string(grp.Identity().Bytes()),
	}
	c.reset(grp.Generator())
	return c
}

// Get returns k such that element = G^k
func (c *Cache) Get(element *cyclic.Int) (uint64, error) {
	return c.GetWithBase(element, c.grp.Generator())
}

// GetWithBase returns k such that element = base^k. If base is not the base
// the table was built with, the table is cleared first.
func (c *Cache) GetWithBase(element, base *cyclic.Int) (uint64, error) {
	if element == nil || base == nil {
		return 0, errors.Wrap(exception.ErrInvalidArgument,
			"discrete log of a nil element or base")
	}

	c.mux.Lock()
	defer c.mux.Unlock()

	if !c.grp.Equal(base, c.base) {
		jww.INFO.Printf("Discrete log base changed, discarding %d entries",
			len(c.table))
		c.reset(base)
	}

	key := string(element.Bytes())
	if k, ok := c.table[key]; ok {
		return k, nil
	}

	for {
		found, err := c.step()
		if err != nil {
			return 0, err
		}
		if found == key {
			return c.cursorExponent, nil
		}
	}
}

// Precompute extends the table under the current base through exponent
// upTo. Reaching the order of the base ends the walk early without error.
func (c *Cache) Precompute(upTo uint64) error {
	if upTo > c.MaxExponent() {
		return errors.Wrapf(exception.ErrRangeExceeded,
			"cannot precompute to %d, maximum exponent is %d", upTo,
			c.MaxExponent())
	}

	c.mux.Lock()
	defer c.mux.Unlock()

	for c.cursorExponent < upTo {
		if _, err := c.step(); err != nil {
			if errors.Is(err, exception.ErrRangeExceeded) {
				jww.INFO.Printf("Discrete log table complete at %d entries",
					len(c.table))
				return nil
			}
			return err
		}
	}
	return nil
}

// Len returns the number of entries in the table
func (c *Cache) Len() int {
	c.mux.Lock()
	defer c.mux.Unlock()
	return len(c.table)
}

// Base returns a copy of the base the table is currently built with
func (c *Cache) Base() *cyclic.Int {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.grp.GetCyclic().NewIntFromBytes(c.base.Bytes())
}

// MaxExponent returns the search ceiling
func (c *Cache) MaxExponent() uint64 {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.maxExponent
}

// SetMaxExponent changes the search ceiling. Existing entries above the new
// ceiling are kept.
func (c *Cache) SetMaxExponent(maxExponent uint64) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.maxExponent = maxExponent
}

// step multiplies the cursor by the base once and records the result. It
// returns the key of the new entry. Must be called with the lock held.
func (c *Cache) step() (string, error) {
	if c.cursorExponent >= c.maxExponent {
		return "", errors.Wrapf(exception.ErrRangeExceeded,
			"element is not base^k for any k <= %d", c.maxExponent)
	}

	next := c.grp.Mul(c.base, c.cursor)
	key := string(next.Bytes())

	// back at the identity, every power of base is already in the table
	if key == c.identity {
		return "", errors.Wrapf(exception.ErrRangeExceeded,
			"element is not a power of a base of order %d",
			c.cursorExponent+1)
	}

	c.cursorExponent++
	c.cursor = next
	c.table[key] = c.cursorExponent
	return key, nil
}

// reset discards the table and seeds it for a new base. Must be called with
// the lock held.
func (c *Cache) reset(base *cyclic.Int) {
	c.base = c.grp.GetCyclic().NewIntFromBytes(base.Bytes())
	c.baseKey = group.Fingerprint(c.base)
	c.table = map[string]uint64{c.identity: 0}
	c.cursor = c.grp.Identity()
	c.cursorExponent = 0
	c.persisted = 0
}
