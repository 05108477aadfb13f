///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Handles the Map backend for discrete log storage

package storage

import (
	"sort"
)

// GetDlogEntries returns every entry stored in the Map for the given base,
// ordered by exponent
func (m *MapImpl) GetDlogEntries(base []byte) ([]*DlogEntry, error) {
	m.Lock()
	defer m.Unlock()

	table := m.dlogs[string(base)]
	entries := make([]*DlogEntry, 0, len(table))
	for exponent, element := range table {
		entries = append(entries, &DlogEntry{
			Base:     copyBytes(base),
			Exponent: exponent,
			Element:  copyBytes(element),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Exponent < entries[j].Exponent
	})
	return entries, nil
}

// InsertDlogEntries inserts the given entries into the Map, leaving entries
// which already exist untouched
func (m *MapImpl) InsertDlogEntries(entries []*DlogEntry) error {
	m.Lock()
	defer m.Unlock()

	for _, e := range entries {
		table, ok := m.dlogs[string(e.Base)]
		if !ok {
			table = make(map[uint64][]byte)
			m.dlogs[string(e.Base)] = table
		}
		if _, exists := table[e.Exponent]; !exists {
			table[e.Exponent] = copyBytes(e.Element)
		}
	}
	return nil
}

// DeleteDlogEntries removes every entry stored in the Map for the given base
func (m *MapImpl) DeleteDlogEntries(base []byte) error {
	m.Lock()
	defer m.Unlock()

	delete(m.dlogs, string(base))
	return nil
}

func copyBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
