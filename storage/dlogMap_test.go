///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package storage

import (
	"bytes"
	"testing"
)

// Hidden function for one-time unit testing database implementation
// DROP TABLE dlog_entries;
//func TestDatabaseImpl(t *testing.T) {
//	jwalterweatherman.SetLogThreshold(jwalterweatherman.LevelTrace)
//	jwalterweatherman.SetStdoutThreshold(jwalterweatherman.LevelTrace)
//
//	db, err := newDatabase("cmix", "", "ballotcrypt", "0.0.0.0", "5432", false)
//	if err != nil {
//		t.Errorf(err.Error())
//		return
//	}
//
//	base := []byte("base")
//	err = db.InsertDlogEntries([]*DlogEntry{
//		{Base: base, Exponent: 0, Element: []byte{1}},
//		{Base: base, Exponent: 1, Element: []byte{4}},
//	})
//	if err != nil {
//		t.Errorf(err.Error())
//		return
//	}
//
//	entries, err := db.GetDlogEntries(base)
//	if err != nil {
//		t.Errorf(err.Error())
//		return
//	}
//	jwalterweatherman.INFO.Printf("Obtained entries %+v", entries)
//}

// Happy path
func TestMapImpl_InsertDlogEntries(t *testing.T) {
	m := NewMapStorage()
	base := []byte("base")

	err := m.InsertDlogEntries([]*DlogEntry{
		{Base: base, Exponent: 2, Element: []byte{16}},
		{Base: base, Exponent: 0, Element: []byte{1}},
		{Base: base, Exponent: 1, Element: []byte{4}},
	})
	if err != nil {
		t.Fatalf("Unable to insert entries: %+v", err)
	}

	entries, err := m.GetDlogEntries(base)
	if err != nil {
		t.Fatalf("Unable to get entries: %+v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, received %d", len(entries))
	}
	for i, e := range entries {
		if e.Exponent != uint64(i) {
			t.Errorf("Entries not ordered by exponent at %d: %d", i, e.Exponent)
		}
	}
	if !bytes.Equal(entries[2].Element, []byte{16}) {
		t.Errorf("Unexpected element %v", entries[2].Element)
	}
}

// Tests that existing entries are not overwritten
func TestMapImpl_InsertDlogEntries_Existing(t *testing.T) {
	m := NewMapStorage()
	base := []byte("base")

	_ = m.InsertDlogEntries([]*DlogEntry{{Base: base, Exponent: 1, Element: []byte{4}}})
	_ = m.InsertDlogEntries([]*DlogEntry{{Base: base, Exponent: 1, Element: []byte{9}}})

	entries, _ := m.GetDlogEntries(base)
	if len(entries) != 1 || !bytes.Equal(entries[0].Element, []byte{4}) {
		t.Errorf("Existing entry was modified: %+v", entries)
	}
}

// Tests that tables of different bases are separate and deletable
func TestMapImpl_DeleteDlogEntries(t *testing.T) {
	m := NewMapStorage()

	_ = m.InsertDlogEntries([]*DlogEntry{
		{Base: []byte("a"), Exponent: 0, Element: []byte{1}},
		{Base: []byte("b"), Exponent: 0, Element: []byte{1}},
	})

	if err := m.DeleteDlogEntries([]byte("a")); err != nil {
		t.Fatalf("Unable to delete: %+v", err)
	}

	a, _ := m.GetDlogEntries([]byte("a"))
	b, _ := m.GetDlogEntries([]byte("b"))
	if len(a) != 0 || len(b) != 1 {
		t.Errorf("Unexpected table sizes after delete: %d, %d", len(a), len(b))
	}
}

// Tests that missing connection info falls back to the map in dev mode and
// fails otherwise
func TestNewStorage_MapFallback(t *testing.T) {
	s, err := NewStorage("", "", "", "", "", true)
	if err != nil {
		t.Fatalf("Dev mode should fall back to map: %+v", err)
	}
	if _, ok := s.database.(*MapImpl); !ok {
		t.Errorf("Expected a map backend")
	}

	if _, err = NewStorage("", "", "", "", "", false); err == nil {
		t.Errorf("Production mode without a database should error")
	}
}
