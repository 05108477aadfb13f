///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/ballotcrypt/cmd/conf"
	"gitlab.com/elixxir/ballotcrypt/dlog"
	"gitlab.com/elixxir/ballotcrypt/elgamal"
	"gitlab.com/elixxir/ballotcrypt/exception"
	"gitlab.com/elixxir/ballotcrypt/group"
	"gitlab.com/elixxir/ballotcrypt/internal/state"
	"gitlab.com/elixxir/ballotcrypt/precompute"
	"gitlab.com/elixxir/ballotcrypt/storage"
	"gitlab.com/elixxir/crypto/cyclic"
	"gitlab.com/elixxir/crypto/fastRNG"
	"gitlab.com/xx_network/crypto/csprng"
	"runtime"
	"sync"
)

// Engine holds everything a running process shares: the group, the
// discrete log cache, the precompute buffer and the last-error slot
type Engine struct {
	Params    *conf.Params
	Group     *group.Group
	PublicKey *cyclic.Int
	Cache     *dlog.Cache
	Buffer    *precompute.Buffer
	Handler   *exception.Handler

	// nil when the discrete log table is not persisted
	storage *storage.Storage
	rngGen  *fastRNG.StreamGenerator

	quit     chan struct{}
	stopOnce sync.Once
}

// StartEngine builds and starts an engine from the viper config. Any
// failure is fatal.
func StartEngine(vip *viper.Viper) *Engine {
	params, err := conf.NewParams(vip)
	if err != nil {
		jww.FATAL.Panicf("Failed to load params: %+v", err)
	}

	e, err := NewEngine(params)
	if err != nil {
		jww.FATAL.Panicf("Failed to create engine: %+v", err)
	}

	if err = e.Start(); err != nil {
		e.Handler.Record("StartEngine", err)
		jww.FATAL.Panicf("Failed to start engine: %+v", err)
	}

	return e
}

// NewEngine builds the components described by params without starting
// any background work
func NewEngine(params *conf.Params) (*Engine, error) {
	handler, err := exception.Recover(params.Paths.ErrOutput)
	if err != nil {
		return nil, err
	}

	grp, err := params.Groups.GetElection()
	if err != nil {
		return nil, errors.WithMessage(err, "Failed to load election group")
	}

	pk, err := params.GetPublicKey(grp)
	if err != nil {
		return nil, err
	}
	if pk == nil {
		if !params.DevMode {
			return nil, errors.New("publicKey must be set outside of devMode")
		}
		kp, err := elgamal.GenerateKeyPair(grp, csprng.NewSystemRNG())
		if err != nil {
			return nil, errors.WithMessage(err,
				"Failed to generate development key pair")
		}
		jww.WARN.Printf("No publicKey configured, generated development "+
			"key pair with secret key %s", kp.SecretKey.Text(16))
		pk = kp.PublicKey
	}

	e := &Engine{
		Params:    params,
		Group:     grp,
		PublicKey: pk,
		Cache:     dlog.NewCache(grp, params.Dlog.MaxExponent),
		Handler:   handler,
		rngGen: fastRNG.NewStreamGenerator(params.RngScalingFactor,
			uint(runtime.NumCPU()), csprng.NewSystemRNG),
		quit: make(chan struct{}),
	}

	if params.Dlog.Persist {
		e.storage, err = params.NewStorage()
		if err != nil {
			return nil, errors.WithMessage(err, "Failed to open storage")
		}
	}

	exp := precompute.NewExponentiator(params.UseGPU, params.GPUMemSize)
	jww.INFO.Printf("Using %s exponentiation", exp.Name())
	e.Buffer = precompute.NewBuffer(grp, e.rngGen, exp, params.Precompute)

	return e, nil
}

// Start restores and warms the discrete log table, then binds the buffer to
// the election key and starts background production
func (e *Engine) Start() error {
	if e.storage != nil {
		if _, err := e.Cache.Load(e.storage); err != nil {
			return errors.WithMessage(err, "Failed to load discrete log table")
		}
	}

	if e.Params.Dlog.Warmup > 0 {
		jww.INFO.Printf("Warming discrete log table to %d",
			e.Params.Dlog.Warmup)
		if err := e.Cache.Precompute(e.Params.Dlog.Warmup); err != nil {
			return err
		}
		if err := e.saveTable(); err != nil {
			return err
		}
	}

	err := e.Buffer.Initialize(e.PublicKey,
		e.Params.Precompute.DefaultMaxBuffers)
	if err != nil {
		return err
	}
	if err = e.Buffer.Start(); err != nil {
		return err
	}

	go MonitorStatus(e.Buffer, e.Cache, e.Params.StatusInterval, e.quit)

	jww.INFO.Printf("Engine started: %s", e.Buffer.Snapshot())
	return nil
}

// Toggle pauses background production when it runs and resumes it
// otherwise
func (e *Engine) Toggle() {
	if e.Buffer.GetState() == state.RUNNING {
		e.Buffer.Stop()
		jww.INFO.Printf("Production paused: %s", e.Buffer.Snapshot())
		return
	}

	if err := e.Buffer.Start(); err != nil {
		e.Handler.Record("Toggle", err)
		return
	}
	jww.INFO.Printf("Production resumed")
}

// Shutdown stops production and persists the discrete log table. It may be
// called more than once.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		close(e.quit)
		e.Buffer.Stop()
		if err := e.saveTable(); err != nil {
			e.Handler.Record("Shutdown", err)
		}
		jww.INFO.Printf("Engine stopped: %s", e.Buffer.Snapshot())
	})
}

// saveTable writes new discrete log entries when persistence is enabled
func (e *Engine) saveTable() error {
	if e.storage == nil {
		return nil
	}
	n, err := e.Cache.Save(e.storage)
	if err != nil {
		return err
	}
	jww.INFO.Printf("Saved %d new discrete log entries", n)
	return nil
}
