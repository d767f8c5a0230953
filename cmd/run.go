// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Minetec

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/minetec/bowser/internal/config"
	"github.com/minetec/bowser/internal/discovery"
	"github.com/minetec/bowser/internal/runner"
	"github.com/minetec/bowser/pkg/fascb"
)

var runCount int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run refill-cycle simulations against a control box",
	Long: `Run the full harness: resolve a control box, open the websocket command
channel, and execute the configured number of refill cycles.

Each cycle logs in, requests a refill, waits for vehicle identification
(feeding mock RFID reads), uploads the refill image, starts the metered
fill, and polls it to completion while emitting mock meter readings. A
failed or rejected cycle is abandoned and the next one starts after a
backoff; only Ctrl+C stops the run early.

Examples:
  # Discover the box named in settings.json and run
  bowser run

  # Point at a known address, ten cycles
  bowser run --ip 10.0.0.43/api --count 10`,
	RunE: runHarness,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runCount, "count", 0, "Number of refill cycles (0 = settings value)")
}

func runHarness(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := loadSettings()
	if runCount > 0 {
		settings.RefillCount = runCount
	}

	addr, err := resolveAddress(ctx, settings)
	if err != nil {
		return err
	}
	log.Info().Str("addr", addr).Msg("target control box")

	password, err := devicePassword()
	if err != nil {
		return err
	}

	client := fascb.NewClient(addr, settings.Username, password)
	box := &fascb.Mailbox{}
	tel := fascb.NewTelemetry(addr, box)
	go tel.Run()

	r := runner.New(client, box, runner.Config{
		NozzleID:       settings.NozzleID,
		VehicleTag:     settings.VehicleTag,
		WorkingHours:   settings.WorkingHours,
		RefillLiters:   settings.RefillLiters,
		LiterIncrement: settings.LiterIncrement,
		RefillCount:    settings.RefillCount,
		ImagePath:      settings.ImagePath,
	})

	err = r.Run(ctx)
	tel.Stop()

	if ctx.Err() != nil {
		log.Info().Msg("interrupted, shutting down")
		return nil
	}
	return err
}

// loadSettings reads the settings file, falling back to defaults so a
// fresh checkout still runs.
func loadSettings() config.Settings {
	settings, err := config.Load(cfgPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfgPath).Msg("using default settings")
	}
	return settings
}

// resolveAddress picks the control box address: a direct override wins,
// otherwise mDNS discovery matched against the configured device name.
func resolveAddress(ctx context.Context, settings config.Settings) (string, error) {
	if directIP != "" {
		return directIP, nil
	}
	if settings.DirectIP != "" {
		return settings.DirectIP, nil
	}

	log.Info().Msg("searching for control boxes")
	devices, err := discovery.Browse(ctx, 2*time.Second)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}
	if len(devices) == 0 {
		return "", fmt.Errorf("no control boxes found")
	}

	for i, d := range devices {
		fmt.Printf("%d %s - %s\n", i, d.ShortName(), d.Addr)
	}

	idx, ok := discovery.Select(devices, settings.TargetDeviceName)
	if ok {
		log.Info().Str("name", devices[idx].Name).Msg("selected control box")
		return devices[idx].Addr, nil
	}

	fmt.Println("Choose FAS device:")
	if _, err := fmt.Scanln(&idx); err != nil {
		return "", fmt.Errorf("read device choice: %w", err)
	}
	if idx < 0 || idx >= len(devices) {
		return "", fmt.Errorf("device index %d out of range", idx)
	}
	return devices[idx].Addr, nil
}
