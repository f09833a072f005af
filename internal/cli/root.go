// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

// Package cli implements the dagsim command-line interface using Cobra.
// Each subcommand drives the simulator outside a training loop: run one
// episode, bench policies against each other, generate workload manifests,
// and inspect recorded runs.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "dagsim",
	Short: "dagsim — simulate DAG job scheduling on a shared worker pool",
	Long: `dagsim simulates scheduling DAG-structured jobs onto a shared worker pool.

Jobs arrive over virtual time, each a DAG of stages with parallel tasks. A
scheduling policy commits workers to stages round by round; the simulator
dispatches the commitments, advances time, and scores the schedule by the
time-weighted number of unfinished jobs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console|json)")
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// setDefaults registers the baseline configuration. Flags and DAGSIM_*
// environment variables override these.
func setDefaults() {
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

func initConfig() {
	setDefaults()
	viper.SetEnvPrefix("DAGSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
