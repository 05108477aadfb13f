///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Handles the database ORM for discrete log tables

package storage

import (
	"context"
	"errors"
	jww "github.com/spf13/jwalterweatherman"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"time"
)

// Helper for forcing panics in the event of a CDE, otherwise acts as a pass-through
func catchCde(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		jww.FATAL.Panicf("Database call timed out: %+v", err.Error())
	}
	return err
}

// GetDlogEntries returns every entry stored for the given base, ordered by
// exponent
func (d *DatabaseImpl) GetDlogEntries(base []byte) ([]*DlogEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	var entries []*DlogEntry
	err := d.db.WithContext(ctx).Where(&DlogEntry{Base: base}).
		Order("exponent asc").Find(&entries).Error
	return entries, catchCde(err)
}

// InsertDlogEntries inserts the given entries, leaving rows which already
// exist untouched
func (d *DatabaseImpl) InsertDlogEntries(entries []*DlogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(entries, insertBatchSize).Error
	})
	return catchCde(err)
}

// DeleteDlogEntries removes every entry stored for the given base
func (d *DatabaseImpl) DeleteDlogEntries(base []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	err := d.db.WithContext(ctx).Where("base = ?", base).
		Delete(&DlogEntry{}).Error
	return catchCde(err)
}
