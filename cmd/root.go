// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Minetec

package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	directIP string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "bowser",
	Short: "FAS CB refill-cycle test harness",
	Long: `Bowser - a test harness that simulates a refill vehicle against a FAS
control box.

The harness discovers a control box on the local network (or is pointed at
one with --ip), authenticates against its HTTP API, and drives it through
repeated refill cycles while feeding it mock RFID and flow-meter readings
over the websocket command channel.

The API password is read from the FASCB_PASSWORD environment variable, or
prompted interactively if not set. The --password flag is intentionally not
provided to avoid leaking credentials in shell history.`,
	Version: "1.3.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			log.Warn().Str("level", logLevel).Msg("invalid log level, using info")
			level = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(level)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "settings.json", "Settings file")
	rootCmd.PersistentFlags().StringVar(&directIP, "ip", "", "Control box address, skips discovery")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace..error)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
