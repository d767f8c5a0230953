// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Minetec

package fascb

import "sync/atomic"

// Mailbox is a single-slot overwrite register for the latest outgoing mock
// command. A Put replaces whatever is pending; a Take empties the slot. The
// orchestrator writes, the telemetry channel drains, and neither waits for
// the other: an unsent command that gets overwritten is simply lost.
// Delivery is at-most-once by design.
type Mailbox struct {
	slot atomic.Pointer[string]
}

// Put stores cmd as the pending command, discarding any unsent prior one.
func (b *Mailbox) Put(cmd string) {
	b.slot.Store(&cmd)
}

// Take removes and returns the pending command, if any.
func (b *Mailbox) Take() (string, bool) {
	p := b.slot.Swap(nil)
	if p == nil {
		return "", false
	}
	return *p, true
}
