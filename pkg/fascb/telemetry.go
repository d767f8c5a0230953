// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Minetec

package fascb

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Telemetry keeps a long-lived websocket to the control box and forwards
// whatever mock command is pending in the mailbox. Commands are
// fire-and-forget: there is no acknowledgment, and a command overwritten
// while the channel is mid-reconnect is lost.
type Telemetry struct {
	addr   string
	box    *Mailbox
	dialer *websocket.Dialer
	done   chan struct{}

	// Idle is how long the send loop waits when the mailbox is empty.
	Idle time.Duration
	// RedialDelay is the pause before reconnecting after a failure.
	RedialDelay time.Duration
}

// NewTelemetry creates a command channel for the control box at addr,
// draining box.
func NewTelemetry(addr string, box *Mailbox) *Telemetry {
	return &Telemetry{
		addr: addr,
		box:  box,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		done:        make(chan struct{}),
		Idle:        time.Second,
		RedialDelay: time.Second,
	}
}

// Stop ends the channel. Safe to call once; Run returns shortly after.
func (t *Telemetry) Stop() {
	close(t.done)
}

func (t *Telemetry) stopped() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Run dials the command endpoint and forwards pending commands until Stop.
// Connection faults drop back to the outer loop and redial; a typical run
// outlives several device restarts.
func (t *Telemetry) Run() {
	url := "ws://" + t.addr + "/ws"

	for !t.stopped() {
		conn, _, err := t.dialer.Dial(url, nil)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("command channel dial failed")
			select {
			case <-t.done:
				return
			case <-time.After(t.RedialDelay):
			}
			continue
		}

		log.Info().Str("url", url).Msg("command channel connected")
		t.sendLoop(conn)
		conn.Close()
	}
}

// sendLoop drains the mailbox over one connection until a write fails or
// the channel is stopped.
func (t *Telemetry) sendLoop(conn *websocket.Conn) {
	for {
		select {
		case <-t.done:
			return
		default:
		}

		cmd, ok := t.box.Take()
		if !ok {
			select {
			case <-t.done:
				return
			case <-time.After(t.Idle):
			}
			continue
		}

		log.Debug().Str("command", cmd).Msg("sending mock command")
		if err := conn.WriteMessage(websocket.TextMessage, []byte(cmd)); err != nil {
			// The command that failed is gone; the next Put supplies a
			// fresh one after reconnect.
			log.Warn().Err(err).Msg("command channel write failed")
			return
		}
	}
}
