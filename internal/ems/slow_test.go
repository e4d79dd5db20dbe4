package ems

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// slowPayload builds an 11-byte record with recognizable per-slot values.
func slowPayload(fill byte) []byte {
	s := make([]byte, 11)
	for i := range s {
		s[i] = fill + byte(i)
	}
	return s
}

func TestSlowSelectorCyclingPopulatesAllGroups(t *testing.T) {
	d := New()
	for sel := uint8(0); sel < 10; sel++ {
		d.FeedBytes(testFrame(5000, 50, sel, slowPayload(sel*16)))
	}

	snap := d.Snapshot()
	require.Equal(t, uint32(10), snap.PacketCount)

	// One representative channel per group proves each decoder ran.
	require.Equal(t, int8(0), snap.CorrAngle)                          // slow 0: s[0]=0
	require.True(t, snap.Voltage.Valid())                              // slow 0
	require.Equal(t, uint8(16), snap.FlagMajor)                        // slow 1: s[0]=16
	require.Equal(t, uint8(32+2), snap.InjDuty)                        // slow 2: s[2]
	require.Equal(t, uint8(48+8), snap.TCSCorr)                        // slow 3: s[8]
	require.True(t, snap.TripFuelL.Valid())                            // slow 4
	require.Equal(t, uint8(80), snap.ADCTps)                           // slow 5: s[0]
	require.Equal(t, [10]uint8{96, 97, 98, 99, 100, 101, 102, 103, 104, 105}, snap.ADCAn) // slow 6
	require.Equal(t, uint8(112), snap.InputState)                      // slow 7: s[0]
	require.True(t, snap.CLT.Valid())                                  // slow 8
	require.True(t, snap.PWMDuty[0].Valid())                           // slow 9
}

func TestSlowRepeatedSelectorLeavesOthersUntouched(t *testing.T) {
	d := New()
	for sel := uint8(0); sel < 10; sel++ {
		d.FeedBytes(testFrame(5000, 50, sel, slowPayload(sel*16)))
	}
	before := d.Snapshot()

	// Selector 9 twice in a row: groups 0-8 keep their prior values.
	d.FeedBytes(testFrame(5000, 50, 9, slowPayload(200)))
	d.FeedBytes(testFrame(5000, 50, 9, slowPayload(200)))

	after := d.Snapshot()
	require.Equal(t, before.CorrAngle, after.CorrAngle)
	require.Equal(t, float64(before.Voltage), float64(after.Voltage))
	require.Equal(t, before.FlagMajor, after.FlagMajor)
	require.Equal(t, before.InjDuty, after.InjDuty)
	require.Equal(t, before.ADCAn, after.ADCAn)
	require.Equal(t, before.InputState, after.InputState)
	require.Equal(t, float64(before.CLT), float64(after.CLT))
	// Group 9 itself did update
	require.InDelta(t, 200.0*100.0/256.0, float64(after.PWMDuty[0]), 1e-9)
	require.Equal(t, uint32(12), after.PacketCount)
}

func TestSlowCorrectionsAndElectrical(t *testing.T) {
	// slot 0: corr angle, lambda target, trims, fuel pressure, dwell,
	// voltage, gear, DBW command, second lambda
	s := []byte{0xFB, 121, 0xFE, 3, 0x2C, 0x01, 4, 138, 0xFF, 200, 140}
	d := New()
	d.FeedBytes(testFrame(5000, 50, 0, s))

	snap := d.Snapshot()
	require.Equal(t, int8(-5), snap.CorrAngle)
	require.InDelta(t, 121.0/128.0, float64(snap.LambdaTarget), 1e-9)
	require.Equal(t, int8(-2), snap.LambdaCorrFast)
	require.Equal(t, int8(3), snap.LambdaCorrSlow)
	require.InDelta(t, 300.0, float64(snap.FuelPressureKpa), 1e-9)
	require.InDelta(t, 4.0, float64(snap.DwellMs), 1e-9)
	require.InDelta(t, 13.8, float64(snap.Voltage), 1e-9)
	require.Equal(t, int8(-1), snap.Gear)
	require.InDelta(t, 200.0, float64(snap.DBWCmd), 1e-9)
	require.InDelta(t, 140.0/128.0, float64(snap.Lambda2), 1e-9)
}

func TestSlowTemperaturesAndPressures(t *testing.T) {
	// slot 8: signed one-byte temps, 16-bit EGTs, oil pressure in 0.1 bar
	s := []byte{0xA6, 0xE2, 110, 0xF6, 0, 0x26, 0x02, 0x08, 0x02, 35, 0}
	d := New()
	d.FeedBytes(testFrame(5000, 50, 8, s))

	snap := d.Snapshot()
	require.InDelta(t, -90.0, float64(snap.CLT), 1e-9)  // int8(0xA6)
	require.InDelta(t, -30.0, float64(snap.IAT), 1e-9)  // int8(0xE2)
	require.InDelta(t, 110.0, float64(snap.OilTemp), 1e-9) // unsigned
	require.InDelta(t, -10.0, float64(snap.FuelTemp), 1e-9)
	require.InDelta(t, 550.0, float64(snap.EGT1), 1e-9)
	require.InDelta(t, 520.0, float64(snap.EGT2), 1e-9)
	require.InDelta(t, 3.5, float64(snap.OilPressure), 1e-9)
}

func TestSlowTripComputer(t *testing.T) {
	s := make([]byte, 11)
	putU16(s, 0, 1234) // 12.34 L
	putU16(s, 2, 567)  // 56.7 km
	putU16(s, 4, 85)   // 8.5 L/100km
	putU16(s, 6, 92)   // 9.2 L/100km
	s[8] = 64          // 25 % ethanol
	d := New()
	d.FeedBytes(testFrame(5000, 50, 4, s))

	snap := d.Snapshot()
	require.InDelta(t, 12.34, float64(snap.TripFuelL), 1e-9)
	require.InDelta(t, 56.7, float64(snap.TripPathKm), 1e-9)
	require.InDelta(t, 8.5, float64(snap.CurrFuelCons), 1e-9)
	require.InDelta(t, 9.2, float64(snap.TripFuelCons), 1e-9)
	require.InDelta(t, 25.0, float64(snap.FuelComposition), 1e-9)
}

func TestSlowSelectorOutOfRangeIgnored(t *testing.T) {
	d := New()
	for _, sel := range []uint8{10, 11, 255} {
		d.FeedBytes(testFrame(5000, 50, sel, slowPayload(99)))
	}

	snap := d.Snapshot()
	// The selector is informational, not a validity gate: frames count.
	require.Equal(t, uint32(3), snap.PacketCount)
	require.Zero(t, snap.ErrorCount)
	require.True(t, snap.Connected)
	// No slow group was touched.
	requireNaN(t, snap.Voltage)
	requireNaN(t, snap.CLT)
	require.Zero(t, snap.FlagMajor)
	// Fast fields still decoded.
	require.InDelta(t, 2000.0, float64(snap.RPM), 1e-9)
}
