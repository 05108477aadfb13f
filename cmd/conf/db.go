///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package conf

import (
	"gitlab.com/elixxir/ballotcrypt/storage"
)

// Contains Database config params
type Database struct {
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Address  string `yaml:"address"`
	Port     string
}

// NewStorage opens the storage layer described by the params. Without
// connection info it falls back to memory in dev mode.
func (p *Params) NewStorage() (*storage.Storage, error) {
	return storage.NewStorage(p.Database.Username, p.Database.Password,
		p.Database.Name, p.Database.Address, p.Database.Port, p.DevMode)
}
