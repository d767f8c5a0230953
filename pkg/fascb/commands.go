// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Minetec

package fascb

import "fmt"

// Literals embedded in the STM command grammar. The control box firmware
// expects these verbatim.
const (
	rfidGetMarker   = "1212"
	rfidMatchMarker = "2.3"
)

// echo wraps a subcommand in the stm_command envelope. Commands are
// line-oriented; the trailing newline is part of the wire format.
func echo(sub string) string {
	return fmt.Sprintf("stm_command(echo(%s))\n", sub)
}

// RFIDGetCommand builds a mock RFID tag read for the given nozzle and
// vehicle tag.
func RFIDGetCommand(nozzleID, vehicleTag string) string {
	return echo(fmt.Sprintf("rfid_get(%s,%s,%s)", nozzleID, vehicleTag, rfidGetMarker))
}

// MeterReadCommand builds a mock flow-meter reading in raw pulse units.
func MeterReadCommand(value int) string {
	return echo(fmt.Sprintf("meter_read(%d)", value))
}

// RFIDMatchCommand builds a mock RFID match confirmation for the nozzle.
func RFIDMatchCommand(nozzleID string) string {
	return echo(fmt.Sprintf("rfid_match(%s,%s)", nozzleID, rfidMatchMarker))
}
