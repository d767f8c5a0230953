// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Minetec

package fascb

import "testing"

func TestMailboxLastWriteWins(t *testing.T) {
	var box Mailbox

	box.Put("first")
	box.Put("second")

	got, ok := box.Take()
	if !ok {
		t.Fatal("Take() = empty, want pending command")
	}
	if got != "second" {
		t.Errorf("Take() = %q, want %q (last write wins)", got, "second")
	}
}

func TestMailboxTakeClears(t *testing.T) {
	var box Mailbox

	box.Put("cmd")
	if _, ok := box.Take(); !ok {
		t.Fatal("first Take() = empty, want command")
	}
	if got, ok := box.Take(); ok {
		t.Errorf("second Take() = %q, want empty slot", got)
	}
}

func TestMailboxEmpty(t *testing.T) {
	var box Mailbox

	if got, ok := box.Take(); ok {
		t.Errorf("Take() on empty mailbox = %q, want nothing", got)
	}
}
