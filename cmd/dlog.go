///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"fmt"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/ballotcrypt/cmd/conf"
	"gitlab.com/elixxir/ballotcrypt/dlog"
	"gitlab.com/xx_network/crypto/large"
)

var dlogUpTo uint64
var dlogLookup string

func init() {
	dlogCmd.Flags().Uint64VarP(&dlogUpTo, "upTo", "u", 0,
		"Extend the stored table through this exponent "+
			"(default is dlog.warmup)")
	dlogCmd.Flags().StringVarP(&dlogLookup, "lookup", "l", "",
		"Hex encoded element to find the discrete log of")

	rootCmd.AddCommand(dlogCmd)
}

var dlogCmd = &cobra.Command{
	Use:   "dlog",
	Short: "Builds the stored discrete log table",
	Long: `Loads the discrete log table of the election generator from the
database, extends it and writes the new entries back. Optionally looks up the
discrete log of a single element.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !validConfig {
			return errors.New("Invalid Config File")
		}
		params, err := conf.NewParams(viper.GetViper())
		if err != nil {
			return err
		}
		return runDlog(params, dlogUpTo, dlogLookup)
	},
}

// runDlog loads, extends and saves the table, then answers the lookup
func runDlog(params *conf.Params, upTo uint64, lookup string) error {
	grp, err := params.Groups.GetElection()
	if err != nil {
		return err
	}

	store, err := params.NewStorage()
	if err != nil {
		return err
	}

	cache := dlog.NewCache(grp, params.Dlog.MaxExponent)
	loaded, err := cache.Load(store)
	if err != nil {
		return err
	}
	jww.INFO.Printf("Loaded table holds %d entries", loaded)

	if upTo == 0 {
		upTo = params.Dlog.Warmup
	}
	if err = cache.Precompute(upTo); err != nil {
		return err
	}
	written, err := cache.Save(store)
	if err != nil {
		return err
	}
	fmt.Printf("Discrete log table: %d entries, %d written\n", cache.Len(),
		written)

	if lookup == "" {
		return nil
	}

	val := large.NewIntFromString(removeHexPrefix(lookup), 16)
	if val == nil {
		return errors.Errorf("%q is not a hex element", lookup)
	}
	element, err := grp.NewElement(val.Bytes())
	if err != nil {
		return err
	}
	k, err := cache.Get(element)
	if err != nil {
		return err
	}
	if _, err = cache.Save(store); err != nil {
		return err
	}
	fmt.Printf("log(%s) = %d\n", lookup, k)
	return nil
}

func removeHexPrefix(s string) string {
	if len(s) > 2 && s[:2] == "0x" {
		return s[2:]
	}
	return s
}
