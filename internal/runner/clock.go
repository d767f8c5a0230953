// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Minetec

package runner

import (
	"context"
	"time"
)

// Clock abstracts the fixed delays that pace the cycle state machine, so
// tests can run the whole loop against a fake without waiting.
type Clock interface {
	// Sleep blocks for d or until ctx is cancelled, returning ctx.Err()
	// in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
