///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package dlog

// persist.go contains saving and restoring tables through the storage layer

import (
	"bytes"
	"github.com/cznic/mathutil"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/ballotcrypt/exception"
	"gitlab.com/elixxir/ballotcrypt/storage"
)

// Store is the persistence backend for discrete log tables.
// storage.Storage implements it.
type Store interface {
	GetDlogEntries(base []byte) ([]*storage.DlogEntry, error)
	InsertDlogEntries(entries []*storage.DlogEntry) error
}

// Load restores the table of the current base from the store, when the store
// holds more entries than the cache. The stored table must be the contiguous
// range 0..k and its last element must equal base^k. It returns the number
// of entries in the table afterwards.
func (c *Cache) Load(store Store) (int, error) {
	c.mux.Lock()
	baseKey := c.baseKey
	base := c.grp.GetCyclic().NewIntFromBytes(c.base.Bytes())
	c.mux.Unlock()

	entries, err := store.GetDlogEntries(baseKey)
	if err != nil {
		return 0, errors.WithMessage(err, "Failed to read discrete log table")
	}
	if len(entries) == 0 {
		return c.Len(), nil
	}

	table := make(map[string]uint64, len(entries))
	for i, e := range entries {
		if e.Exponent != uint64(i) {
			return 0, errors.Wrapf(exception.ErrInvalidArgument,
				"stored table is not contiguous at exponent %d", i)
		}
		table[string(e.Element)] = e.Exponent
	}

	if !bytes.Equal(entries[0].Element, []byte(c.identity)) {
		return 0, errors.Wrap(exception.ErrInvalidArgument,
			"stored table does not start at the identity")
	}

	last := entries[len(entries)-1]
	cursor, err := c.grp.NewElement(last.Element)
	if err != nil {
		return 0, errors.WithMessage(err, "stored table has an invalid element")
	}
	if !c.grp.Equal(cursor, c.grp.ExpUint64(base, last.Exponent)) {
		return 0, errors.Wrapf(exception.ErrInvalidArgument,
			"stored element for exponent %d is not a power of the base",
			last.Exponent)
	}

	c.mux.Lock()
	defer c.mux.Unlock()

	// the base may have changed, or another caller grown the table further,
	// while the store was read
	if !bytes.Equal(baseKey, c.baseKey) {
		return len(c.table), nil
	}
	if len(table) <= len(c.table) {
		c.persisted = mathutil.MaxUint64(c.persisted, uint64(len(entries)))
		return len(c.table), nil
	}

	c.table = table
	c.cursor = cursor
	c.cursorExponent = last.Exponent
	c.persisted = uint64(len(entries))

	jww.INFO.Printf("Loaded %d discrete log entries", len(table))
	return len(c.table), nil
}

// Save writes the entries of the current table which are not yet known to be
// in the store. It returns the number of entries written.
func (c *Cache) Save(store Store) (int, error) {
	c.mux.Lock()
	baseKey := c.baseKey
	from := c.persisted
	to := c.cursorExponent
	var entries []*storage.DlogEntry
	for element, exponent := range c.table {
		if exponent >= from {
			entries = append(entries, &storage.DlogEntry{
				Base:     baseKey,
				Exponent: exponent,
				Element:  []byte(element),
			})
		}
	}
	c.mux.Unlock()

	if len(entries) == 0 {
		return 0, nil
	}

	if err := store.InsertDlogEntries(entries); err != nil {
		return 0, errors.WithMessage(err, "Failed to write discrete log table")
	}

	c.mux.Lock()
	if bytes.Equal(baseKey, c.baseKey) {
		c.persisted = mathutil.MaxUint64(c.persisted, to+1)
	}
	c.mux.Unlock()

	jww.DEBUG.Printf("Saved %d discrete log entries", len(entries))
	return len(entries), nil
}
