// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Minetec

package fascb

// PulsesPerLiter maps simulated liters to raw meter pulse units.
const PulsesPerLiter = 20

// meterBase is the pulse count reported before any fuel has flowed.
const meterBase = 10

// Meter simulates a flow meter for one refill cycle. The value climbs by a
// fixed step per advance until it would reach the target, then clamps and
// flags the last reading.
type Meter struct {
	value int
	max   int
	step  int
	last  bool
}

// NewMeter creates a meter for a cycle of refillLiters, advancing
// literIncrement liters per reading. extraPulses is a random offset added to
// the target so consecutive cycles do not all report the same total; pass 0
// for a deterministic run.
func NewMeter(refillLiters, literIncrement, extraPulses int) *Meter {
	step := literIncrement * PulsesPerLiter
	if step < 1 {
		step = PulsesPerLiter
	}
	return &Meter{
		value: meterBase,
		max:   meterBase + refillLiters*PulsesPerLiter + extraPulses,
		step:  step,
	}
}

// Value returns the current simulated pulse count.
func (m *Meter) Value() int { return m.value }

// Max returns the pulse count at which the refill completes.
func (m *Meter) Max() int { return m.max }

// Last reports whether the meter has reached its target. Once true the
// caller should finish the refill; the meter does not advance further.
func (m *Meter) Last() bool { return m.last }

// Advance moves the meter one reading forward. When the next step would
// reach or pass the target, the value clamps to the target and the last
// reading is flagged in the same step.
func (m *Meter) Advance() {
	if m.last {
		return
	}
	next := m.value + m.step
	if next >= m.max {
		m.value = m.max
		m.last = true
		return
	}
	m.value = next
}

// RandomPulseBound returns the exclusive upper bound for the extra pulse
// offset of a cycle: twice the per-reading increment, in pulse units.
func RandomPulseBound(literIncrement int) int {
	return 2*literIncrement*PulsesPerLiter + 1
}
