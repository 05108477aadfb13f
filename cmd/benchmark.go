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
	"github.com/spf13/viper"
	"gitlab.com/elixxir/ballotcrypt/benchmark"
	"gitlab.com/elixxir/ballotcrypt/cmd/conf"
	"gitlab.com/elixxir/ballotcrypt/precompute"
	"gitlab.com/elixxir/crypto/fastRNG"
	"gitlab.com/xx_network/crypto/csprng"
	"runtime"
)

var ballots uint32
var iterations int

func init() {
	benchmarkCmd.Flags().Uint32VarP(&ballots, "ballots", "b", 1000,
		"Number of ballots encrypted per iteration")
	benchmarkCmd.Flags().IntVarP(&iterations, "iterations", "i", 1,
		"Number of times to iterate the benchmark")

	rootCmd.AddCommand(benchmarkCmd)
}

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Encryption benchmarking tests",
	Long: `Encrypts ballots in the configured group with and without the
precompute buffer and decrypts the tallies`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !validConfig {
			return errors.New("Invalid Config File")
		}
		params, err := conf.NewParams(viper.GetViper())
		if err != nil {
			return err
		}
		return runBenchmark(params, ballots, iterations)
	},
}

func runBenchmark(params *conf.Params, ballots uint32, iterations int) error {
	grp, err := params.Groups.GetElection()
	if err != nil {
		return err
	}

	rngGen := fastRNG.NewStreamGenerator(params.RngScalingFactor,
		uint(runtime.NumCPU()), csprng.NewSystemRNG)
	exp := precompute.NewExponentiator(params.UseGPU, params.GPUMemSize)

	for i := 0; i < iterations; i++ {
		res, err := benchmark.Run(grp, rngGen, exp, params.Precompute, ballots)
		if err != nil {
			return err
		}
		fmt.Printf("Iteration %d (%s): %s\n", i, exp.Name(), res)
	}
	return nil
}
