// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Minetec
//
// Bowser - FAS CB refill-cycle test harness
//
// Simulates a refill vehicle against a FAS control box: authenticated
// refill cycles over HTTP, mock sensor commands over websocket.

package main

import (
	"os"

	"github.com/minetec/bowser/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
