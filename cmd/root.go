///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package cmd initializes the CLI and config parsers as well as the logger.
package cmd

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	// net/http must be imported before net/http/pprof for the pprof import
	// to automatically initialize its http handlers
	"net/http"
	_ "net/http/pprof"
)

var cfgFile string
var verbose bool
var validConfig bool
var showVer bool

// If true, runs pprof http server
var profile bool

// rootCmd represents the base command when called without any sub-commands
var rootCmd = &cobra.Command{
	Use:   "ballotcrypt",
	Short: "Runs the ballot encryption precompute engine",
	Long: `ballotcrypt keeps a buffer of precomputed ElGamal exponentiations
for the election public key and a discrete log table for tally decryption.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if showVer {
			printVersion()
			return
		}
		if !validConfig {
			jww.FATAL.Panic("Invalid Config File")
		}
		if profile {
			go func() {
				// Do not expose this port over the network. Profile
				// production engines over SSH with go tool pprof.
				jww.FATAL.Println(http.ListenAndServe(
					"127.0.0.1:8087", nil))
			}()
		}

		engine := StartEngine(viper.GetViper())

		// Toggle production on SIGUSR1, shut down on SIGINT/SIGTERM
		ReceiveUSR1Signal(engine.Toggle)
		<-ReceiveExitSignal()
		engine.Shutdown()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.  This is called by main.main(). It only needs to
// happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		jww.ERROR.Printf("Engine exiting with error: %s", err.Error())
		os.Exit(1)
	}
	jww.INFO.Printf("Engine exiting without error...")
}

// init is the initialization function for Cobra which defines commands
// and flags.
func init() {
	// NOTE: The point of init() is to be declarative.  There
	// is one init in each sub command. Do not put variable
	// declarations here, and ensure all the Flags are of the *P
	// variety, unless there's a very good reason not to have them
	// as local params to sub command."
	cobra.OnInitialize(initConfig, initLog)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default is $HOME/.elixxir/ballotcrypt.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Verbose mode for debugging")
	rootCmd.Flags().BoolVarP(&showVer, "version", "V", false,
		"Show the ballotcrypt version information.")
	rootCmd.Flags().BoolVar(&profile, "profile", false,
		"Runs a pprof server at 127.0.0.1:8087 for profiling")
	rootCmd.Flags().Bool("useGPU", false,
		"Use the GPU for exponentiation when built with the gpu tag")
	rootCmd.Flags().Bool("devMode", false,
		"Allow running without a database or a configured public key")

	err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup(
		"verbose"))
	handleBindingError(err, "verbose")

	err = viper.BindPFlag("profile", rootCmd.Flags().Lookup("profile"))
	handleBindingError(err, "profile")

	err = viper.BindPFlag("useGPU", rootCmd.Flags().Lookup("useGPU"))
	handleBindingError(err, "useGPU")

	err = viper.BindPFlag("devMode", rootCmd.Flags().Lookup("devMode"))
	handleBindingError(err, "devMode")
}

func handleBindingError(err error, flag string) {
	if err != nil {
		jww.FATAL.Panicf("Error on binding flag \"%s\":%+v", flag, err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	//Use default config location if none is passed
	if cfgFile == "" {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			jww.ERROR.Println(err)
			os.Exit(1)
		}

		cfgFile = home + "/.elixxir/ballotcrypt.yaml"
	}

	validConfig = true

	f, err := os.Open(cfgFile)
	if err != nil {
		jww.ERROR.Printf("Invalid config file (%s): %s", cfgFile,
			err.Error())
		validConfig = false
	} else if err = f.Close(); err != nil {
		jww.ERROR.Printf("Could not close config file: %+v", err)
	}

	viper.SetConfigFile(cfgFile)

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err = viper.ReadInConfig(); err != nil {
		jww.ERROR.Printf("Unable to read config file (%s): %s", cfgFile,
			err.Error())
		validConfig = false
	}
}

// initLog initializes logging thresholds and the log path.
func initLog() {
	// If verbose flag set then log more info for debugging
	if viper.GetBool("verbose") {
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetStdoutThreshold(jww.LevelDebug)
	} else {
		jww.SetLogThreshold(jww.LevelInfo)
		jww.SetStdoutThreshold(jww.LevelInfo)
	}

	if viper.Get("paths.log") != nil {
		// Create log file, overwrites if existing
		logPath := viper.GetString("paths.log")
		logFile, err := os.Create(logPath)
		if err != nil {
			fmt.Printf("Invalid or missing log path %s, "+
				"default path used.\n", logPath)
		} else {
			jww.SetLogOutput(logFile)
		}
	}
}
