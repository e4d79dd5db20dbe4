package ems

// Fast fields are present in every frame at fixed offsets. Layout of the
// framed buffer (packed, little-endian):
//
//	[0]  Length        uint8
//	[1]  Type          uint8
//	[2]  Runlevel      uint8
//	[3]  IgnAngle      int16   (*0.25 deg)
//	[5]  FuelFlow      uint8   (*1/16)
//	[6]  Period        uint16  (RPM = 10000000/Period)
//	[8]  InjTime       uint16  (*0.004 ms)
//	[10] KnockVoltage  uint8   (*5/256 V)
//	[11] Tps           uint8   (*100/255 %)
//	[12] DbwCurrPos    uint8   (*100/255 %)
//	[13] MapKpa        uint8   (*2 kPa)
//	[14] Lambda        uint8   (*1/128)
//	[15] CylNo         uint8
//	[16] TransientCorr int8
//	[17] Speed         uint8   (km/h)
//	[18..23]           per-cylinder diagnostics (not decoded)
//	[24] SlowRecordId  uint8   (0-9)
//	[25] SlowRecord    [11]uint8

// decodeFast applies the always-present fields whose bytes lie below lim,
// the index of the first CRC byte. Every transform is a fixed linear or
// reciprocal mapping, bit-reproducible for a given input byte.
func (d *Decoder) decodeFast(buf []byte, lim int) {
	u8 := func(off int) (uint8, bool) {
		if off < lim {
			return buf[off], true
		}
		return 0, false
	}
	u16 := func(off int) (uint16, bool) {
		if off+1 < lim {
			return uint16(buf[off]) | uint16(buf[off+1])<<8, true
		}
		return 0, false
	}
	i16 := func(off int) (int16, bool) {
		v, ok := u16(off)
		return int16(v), ok
	}

	if v, ok := u8(2); ok {
		d.data.Runlevel = v
	}
	if v, ok := i16(3); ok {
		d.data.IgnAngle = Float(v) * 0.25
	}
	if v, ok := u8(5); ok {
		d.data.FuelFlow = Float(v) * (1.0 / 16.0)
	}
	if period, ok := u16(6); ok {
		if period > 0 {
			d.data.RPM = Float(10000000.0 / float64(period))
		} else {
			d.data.RPM = 0
		}
	}
	if v, ok := u16(8); ok {
		d.data.InjTimeMs = Float(v) * 0.004
	}
	if v, ok := u8(10); ok {
		d.data.KnockV = Float(v) * (5.0 / 256.0)
	}
	if v, ok := u8(11); ok {
		d.data.TPS = Float(v) * (100.0 / 255.0)
	}
	if v, ok := u8(12); ok {
		d.data.DBWPos = Float(v) * (100.0 / 255.0)
	}
	if v, ok := u8(13); ok {
		d.data.MAPKpa = Float(v) * 2.0
	}
	if v, ok := u8(14); ok {
		d.data.Lambda = Float(v) * (1.0 / 128.0)
	}
	if v, ok := u8(15); ok {
		d.data.CylNo = v
	}
	if v, ok := u8(16); ok {
		d.data.TransientCorr = int8(v)
	}
	if v, ok := u8(17); ok {
		d.data.Speed = Float(v)
	}
}
