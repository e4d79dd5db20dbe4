package ems

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func canPayload(vals ...int16) []byte {
	p := make([]byte, 8)
	for i, v := range vals {
		putI16(p, i*2, v)
	}
	return p
}

func TestCANDecodeEngineBasics(t *testing.T) {
	d := New()
	// 0x300: RPM, TPS*0.1, MAP*0.01, IAT*0.1
	ok := d.FeedCANFrame(0x300, canPayload(3000, 455, 10130, 225), 8)
	require.True(t, ok)

	snap := d.Snapshot()
	require.True(t, snap.Connected)
	require.InDelta(t, 3000.0, float64(snap.RPM), 1e-9)
	require.InDelta(t, 45.5, float64(snap.TPS), 1e-9)
	require.InDelta(t, 101.3, float64(snap.MAPKpa), 1e-9)
	require.InDelta(t, 22.5, float64(snap.IAT), 1e-9)
	require.True(t, d.HasNewData())
	require.False(t, d.HasNewData())
}

func TestCANDecodeOilAndElectrical(t *testing.T) {
	d := New()
	// 0x304: OilT*0.1, OilP*0.1/100 (raw is kPa*10), CLT*0.1, VBAT*0.1
	ok := d.FeedCANFrame(0x304, canPayload(850, 3500, 820, 138), 8)
	require.True(t, ok)

	snap := d.Snapshot()
	require.InDelta(t, 85.0, float64(snap.OilTemp), 1e-9)
	require.InDelta(t, 3.5, float64(snap.OilPressure), 1e-9)
	require.InDelta(t, 82.0, float64(snap.CLT), 1e-9)
	require.InDelta(t, 13.8, float64(snap.Voltage), 1e-9)
}

func TestCANDecodeIgnitionAndInjection(t *testing.T) {
	d := New()
	// 0x302: IgnAngle*0.1, Dwell*0.1, (inj angle, not stored), InjPW*0.001
	ok := d.FeedCANFrame(0x302, canPayload(-55, 32, 1800, 2500), 8)
	require.True(t, ok)

	snap := d.Snapshot()
	require.InDelta(t, -5.5, float64(snap.IgnAngle), 1e-9)
	require.InDelta(t, 3.2, float64(snap.DwellMs), 1e-9)
	require.InDelta(t, 2.5, float64(snap.InjTimeMs), 1e-9)
}

func TestCANDecodeGearAndSpeed(t *testing.T) {
	d := New()
	// 0x305: Gear (signed), MapTarget (not stored), Speed*0.1
	require.True(t, d.FeedCANFrame(0x305, canPayload(-1, 0, 1234, 0), 8))
	snap := d.Snapshot()
	require.Equal(t, int8(-1), snap.Gear)
	require.InDelta(t, 123.4, float64(snap.Speed), 1e-9)

	// 0x340 overrides speed from the dedicated vehicle-speed frame
	require.True(t, d.FeedCANFrame(0x340, canPayload(885), 8))
	require.InDelta(t, 88.5, float64(d.Snapshot().Speed), 1e-9)
}

func TestCANDecodeKnockFuelEGT(t *testing.T) {
	d := New()
	require.True(t, d.FeedCANFrame(0x306, canPayload(12, 12, 3000, -50), 8))
	require.True(t, d.FeedCANFrame(0x307, canPayload(7250, 7100, 0, 0), 8))

	snap := d.Snapshot()
	require.InDelta(t, 1.2, float64(snap.KnockV), 1e-9)
	require.InDelta(t, 300.0, float64(snap.FuelPressureKpa), 1e-9)
	require.InDelta(t, -5.0, float64(snap.FuelTemp), 1e-9)
	require.InDelta(t, 725.0, float64(snap.EGT1), 1e-9)
	require.InDelta(t, 710.0, float64(snap.EGT2), 1e-9)
}

func TestCANUnrecognizedIdentifier(t *testing.T) {
	d := New()
	for _, id := range []uint32{0x999, 0x100, 0x7FF, 0x301, 0x303} {
		ok := d.FeedCANFrame(id, canPayload(1111, 2222, 3333, 4444), 8)
		require.False(t, ok, "id 0x%X must not be recognized", id)
	}

	// Not an error, and no field was touched.
	snap := d.Snapshot()
	require.False(t, snap.Connected)
	require.Zero(t, snap.ErrorCount)
	require.Zero(t, snap.PacketCount)
	requireNaN(t, snap.RPM)
	requireNaN(t, snap.OilTemp)
	require.False(t, d.HasNewData())
}

func TestCANShortPayloadZeroPadded(t *testing.T) {
	d := New()
	// Only the first field present; the layout reads the rest as zero.
	require.True(t, d.FeedCANFrame(0x340, []byte{0x85, 0x03}, 2))
	require.InDelta(t, 90.1, float64(d.Snapshot().Speed), 1e-9)
}

func TestCANAndFrameSharedSnapshot(t *testing.T) {
	// Both decode paths land in the same snapshot; the frame path owns
	// the packet counter, the CAN path does not touch it.
	d := New()
	d.FeedBytes(testFrame(5000, 128, 10, make([]byte, 11)))
	require.True(t, d.FeedCANFrame(0x304, canPayload(850, 3500, 820, 138), 8))

	snap := d.Snapshot()
	require.Equal(t, uint32(1), snap.PacketCount)
	require.InDelta(t, 2000.0, float64(snap.RPM), 1e-9)
	require.InDelta(t, 85.0, float64(snap.OilTemp), 1e-9)
}
