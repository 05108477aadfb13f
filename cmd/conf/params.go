///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package conf

import (
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/ballotcrypt/dlog"
	"gitlab.com/elixxir/ballotcrypt/group"
	"gitlab.com/elixxir/ballotcrypt/precompute"
	"gitlab.com/elixxir/crypto/cyclic"
	"net"
	"time"
)

// This object is used by the engine.
// It should be constructed using a viper object
type Params struct {
	Groups    Groups `yaml:"groups"`
	PublicKey string `yaml:"publicKey"`

	Precompute       precompute.Params `yaml:"precompute"`
	UseGPU           bool              `yaml:"useGPU"`
	GPUMemSize       int               `yaml:"gpuMemSize"`
	RngScalingFactor uint              `yaml:"rngScalingFactor"`
	StatusInterval   time.Duration     `yaml:"statusInterval"`

	Dlog     Dlog     `yaml:"dlog"`
	Database Database `yaml:"database"`
	Paths    Paths    `yaml:"paths"`

	DevMode bool `yaml:"devMode"`
}

// Dlog contains the discrete log cache config params
type Dlog struct {
	MaxExponent uint64 `yaml:"maxExponent"`
	// Exponent the table is extended to on startup
	Warmup uint64 `yaml:"warmup"`
	// Load the table from and save it to the database
	Persist bool `yaml:"persist"`
}

// defaultParams are the values used for every key the config omits
func defaultParams() *Params {
	return &Params{
		Precompute:       precompute.DefaultParams(),
		GPUMemSize:       precompute.DefaultGPUMemSize,
		RngScalingFactor: 10000,
		StatusInterval:   time.Minute,
		Dlog: Dlog{
			MaxExponent: dlog.DefaultMaxExponent,
		},
		Paths: Paths{
			Log: "./ballotcrypt.log",
		},
	}
}

// NewParams gets elements of the viper object
// and updates the params object. It returns params
// unless it fails to parse in which it case returns error
func NewParams(vip *viper.Viper) (*Params, error) {

	params := Params{}
	if err := copier.Copy(&params, defaultParams()); err != nil {
		return nil, errors.WithMessage(err, "Failed to apply default params")
	}

	params.Groups.Election = vip.GetStringMapString("groups.election")
	if len(params.Groups.Election) == 0 {
		jww.FATAL.Panicf("groups.election must be set in params")
	}

	params.PublicKey = vip.GetString("publicKey")

	setUint32(vip, "precompute.maxBuffers", &params.Precompute.DefaultMaxBuffers)
	setUint32(vip, "precompute.triplesPerQuadruple",
		&params.Precompute.TriplesPerQuadruple)
	setUint32(vip, "precompute.workers", &params.Precompute.Workers)
	setUint32(vip, "precompute.batchSize", &params.Precompute.BatchSize)
	if vip.IsSet("precompute.retryDelay") {
		params.Precompute.RetryDelay = vip.GetDuration("precompute.retryDelay")
	}

	params.UseGPU = vip.GetBool("useGPU")
	if vip.IsSet("gpuMemSize") {
		params.GPUMemSize = vip.GetInt("gpuMemSize")
	}
	// If RngScalingFactor is not set, then keep the default value
	if s := vip.GetUint("rngScalingFactor"); s != 0 {
		params.RngScalingFactor = s
	}
	if d := vip.GetDuration("statusInterval"); d != 0 {
		params.StatusInterval = d
	}

	if m := vip.GetUint64("dlog.maxExponent"); m != 0 {
		params.Dlog.MaxExponent = m
	}
	params.Dlog.Warmup = vip.GetUint64("dlog.warmup")
	params.Dlog.Persist = vip.GetBool("dlog.persist")
	if params.Dlog.Warmup > params.Dlog.MaxExponent {
		return nil, errors.Errorf("dlog.warmup (%d) exceeds dlog.maxExponent "+
			"(%d)", params.Dlog.Warmup, params.Dlog.MaxExponent)
	}

	// Obtain database connection info
	rawAddr := vip.GetString("database.address")
	var addr, port string
	var err error
	if rawAddr != "" {
		addr, port, err = net.SplitHostPort(rawAddr)
		if err != nil {
			jww.FATAL.Panicf("Unable to get database port from %s: %+v",
				rawAddr, err)
		}
	}
	params.Database.Name = vip.GetString("database.name")
	params.Database.Username = vip.GetString("database.username")
	params.Database.Password = vip.GetString("database.password")
	params.Database.Address = addr
	params.Database.Port = port

	if l := vip.GetString("paths.log"); l != "" {
		params.Paths.Log = l
	}
	params.Paths.ErrOutput = vip.GetString("paths.errOutput")

	params.DevMode = vip.GetBool("devMode")

	return &params, nil
}

// GetPublicKey parses the configured election public key into an element
// of grp. No configured key returns nil without error.
func (p *Params) GetPublicKey(grp *group.Group) (*cyclic.Int, error) {
	if p.PublicKey == "" {
		return nil, nil
	}

	k, err := toLargeInt(removeNonAlphaNumeric(p.PublicKey))
	if err != nil {
		return nil, errors.WithMessage(err, "Failed to parse publicKey")
	}

	pk, err := grp.NewElement(k.Bytes())
	if err != nil {
		return nil, errors.WithMessage(err, "Invalid publicKey")
	}
	return pk, nil
}

// setUint32 overwrites dst when key is present in the config
func setUint32(vip *viper.Viper, key string, dst *uint32) {
	if vip.IsSet(key) {
		*dst = vip.GetUint32(key)
	}
}
