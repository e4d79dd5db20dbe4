package ems

// CAN decode path. Unlike the UART path there is no framing, CRC, or
// reassembly: each recognized identifier carries a complete update in one
// message. Identifiers match the InventEmu ME1_4 DBC; 0x301 and 0x303 are
// transmitted on the bus but carry nothing the dashboard shows, so they
// fall through as unrecognized like any other foreign identifier.

// FeedCANFrame decodes one received CAN message into the snapshot and
// reports whether the identifier was recognized. Unrecognized identifiers
// are a normal outcome on a shared bus and cause no mutation. dlc is
// accepted for driver parity; the fixed layouts always read the full
// 8-byte payload, with missing trailing bytes decoding as zero.
func (d *Decoder) FeedCANFrame(id uint32, data []byte, dlc uint8) bool {
	_ = dlc
	var p [8]byte
	copy(p[:], data)

	d.mu.Lock()
	defer d.mu.Unlock()

	s := p[:]
	switch id {
	case 0x300: // RPM, TPS, MAP, IAT
		d.data.RPM = Float(readU16(s, 0))
		d.data.TPS = Float(readI16(s, 2)) * 0.1
		d.data.MAPKpa = Float(readU16(s, 4)) * 0.01
		d.data.IAT = Float(readI16(s, 6)) * 0.1
	case 0x302: // IgnAngle, Dwell, InjAngle, InjPW
		d.data.IgnAngle = Float(readI16(s, 0)) * 0.1
		d.data.DwellMs = Float(readU16(s, 2)) * 0.1
		d.data.InjTimeMs = Float(readU16(s, 6)) * 0.001
	case 0x304: // OilT, OilP, CLT, VBAT
		d.data.OilTemp = Float(readI16(s, 0)) * 0.1
		d.data.OilPressure = Float(readI16(s, 2)) * 0.1 / 100.0
		d.data.CLT = Float(readI16(s, 4)) * 0.1
		d.data.Voltage = Float(readI16(s, 6)) * 0.1
	case 0x305: // Gear, MapTarget, Speed, EvtMask
		d.data.Gear = int8(readI16(s, 0))
		d.data.Speed = Float(readU16(s, 4)) * 0.1
	case 0x306: // Knock1, Knock2, FuelP, FuelT
		d.data.KnockV = Float(readI16(s, 0)) * 0.1
		d.data.FuelPressureKpa = Float(readU16(s, 4)) * 0.1
		d.data.FuelTemp = Float(readI16(s, 6)) * 0.1
	case 0x307: // EGT1, EGT2
		d.data.EGT1 = Float(readI16(s, 0)) * 0.1
		d.data.EGT2 = Float(readI16(s, 2)) * 0.1
	case 0x340: // vehicle speed
		d.data.Speed = Float(readU16(s, 0)) * 0.1
	default:
		return false
	}

	d.data.Connected = true
	d.newData = true
	return true
}
