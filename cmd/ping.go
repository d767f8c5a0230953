// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Minetec

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/minetec/bowser/pkg/fascb"
)

var (
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Probe a control box over its HTTP liveness endpoint",
	Long: `Send liveness probes to a control box and report the results.

The control box answers GET /ping with a body starting with "pong". This is
the same probe every refill cycle starts with, so a clean ping run means
the harness can at least reach the login stage.

Exit codes:
  0 - All probes answered
  1 - One or more probes failed/timed out
  2 - Address resolution error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each probe")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of probes to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	addr, err := resolveAddress(ctx, loadSettings())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Resolution error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Bowser - Control Box Ping\n")
	fmt.Printf("Target: %s\n", addr)
	fmt.Printf("Timeout: %d seconds per probe\n", pingTimeout)
	fmt.Printf("Count: %d probes\n\n", pingCount)

	client := fascb.NewClient(addr, "", "")
	failCount := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		probeCtx, cancel := context.WithTimeout(ctx, time.Duration(pingTimeout)*time.Second)
		start := time.Now()
		err := client.Ping(probeCtx)
		cancel()

		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
			failCount++
		} else {
			fmt.Printf("pong, rtt=%v\n", time.Since(start).Round(time.Millisecond))
		}

		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d probes sent, %d answered, %.0f%% loss\n",
		pingCount, pingCount-failCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
