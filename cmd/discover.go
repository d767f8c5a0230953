// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Minetec

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/minetec/bowser/internal/discovery"
)

var discoverTimeout int

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover control boxes on the local network",
	Long: `Browse mDNS for control boxes advertising ` + discovery.ServiceType + ` and list
what answers.

Discovery waits for the first announcement, then keeps listening for a
short grace period so slower boxes are listed as well.

Exit codes:
  0 - At least one control box found
  1 - No control boxes within the timeout
  2 - Browse error`,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().IntVar(&discoverTimeout, "timeout", 10, "Timeout in seconds for discovery")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	fmt.Printf("Bowser - Control Box Discovery\n")
	fmt.Printf("Service: %s.%s\n", discovery.ServiceType, discovery.Domain)
	fmt.Printf("Timeout: %d seconds\n\n", discoverTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(discoverTimeout)*time.Second)
	defer cancel()

	devices, err := discovery.Browse(ctx, 2*time.Second)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintf(os.Stderr, "Browse error: %v\n", err)
		os.Exit(2)
	}

	for i, d := range devices {
		fmt.Printf("%d %s - %s\n", i, d.ShortName(), d.Addr)
	}

	fmt.Printf("\n--- Discovery summary ---\n")
	fmt.Printf("Control boxes found: %d\n", len(devices))

	if len(devices) == 0 {
		fmt.Printf("No control boxes discovered. Check network and device power.\n")
		os.Exit(1)
	}
	return nil
}
