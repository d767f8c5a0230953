// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Minetec

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// Password every control box ships with. Field units rarely change it.
const defaultPassword = "Minetec123#"

// devicePassword retrieves the API password from the environment, an
// interactive prompt, or the firmware default when neither is available.
func devicePassword() (string, error) {
	if pw := os.Getenv("FASCB_PASSWORD"); pw != "" {
		return pw, nil
	}

	if !term.IsTerminal(int(syscall.Stdin)) {
		return defaultPassword, nil
	}

	fmt.Fprint(os.Stderr, "Password (empty for default): ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		if pw := strings.TrimSpace(password); pw != "" {
			return pw, nil
		}
		return defaultPassword, nil
	}

	fmt.Fprintln(os.Stderr)
	if len(passwordBytes) == 0 {
		return defaultPassword, nil
	}
	return string(passwordBytes), nil
}
