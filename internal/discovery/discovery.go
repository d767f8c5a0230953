// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Minetec

// Package discovery resolves FAS control boxes advertised over mDNS.
package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog/log"
)

// Control boxes advertise under this service type.
const (
	ServiceType = "_fas._tcp"
	Domain      = "local."
)

// Device is one advertised control box.
type Device struct {
	Name string // advertised host name, e.g. "FAS_CB57.local."
	Addr string // IPv4 address
}

// ShortName strips the domain suffix for display.
func (d Device) ShortName() string {
	if i := strings.Index(d.Name, "."); i >= 0 {
		return d.Name[:i]
	}
	return d.Name
}

// Browse scans for control boxes. It blocks until at least one device has
// announced itself (or ctx expires), then keeps collecting for a grace
// period so slower devices make the list too.
func Browse(ctx context.Context, grace time.Duration) ([]Device, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}

	browseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 8)
	if err := resolver.Browse(browseCtx, ServiceType, Domain, entries); err != nil {
		return nil, err
	}

	var devices []Device
	var graceUp <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if len(devices) > 0 {
				return devices, nil
			}
			return nil, ctx.Err()

		case entry, ok := <-entries:
			if !ok {
				return devices, nil
			}
			if entry == nil || len(entry.AddrIPv4) == 0 {
				continue
			}
			d := Device{Name: entry.HostName, Addr: entry.AddrIPv4[0].String()}
			devices = append(devices, d)
			log.Info().Str("name", d.Name).Str("addr", d.Addr).Msg("control box found")
			if graceUp == nil {
				graceUp = time.After(grace)
			}

		case <-graceUp:
			return devices, nil
		}
	}
}

// Select picks the device matching target (without domain suffix). The
// second return is false when the operator has to choose by hand: more than
// one device was found and none of them match. A lone device is always
// taken as-is.
func Select(devices []Device, target string) (int, bool) {
	qualified := target + "." + Domain
	for i, d := range devices {
		if d.Name == qualified {
			return i, true
		}
	}
	if len(devices) <= 1 {
		return 0, true
	}
	return 0, false
}
