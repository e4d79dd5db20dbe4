package ems

// Slow records rotate one per frame: the selector byte picks one of ten
// fixed 11-byte layouts, each updating a disjoint channel group. The other
// nine groups keep their last decoded values until their selector recurs,
// so full coverage takes ten consecutive valid frames.

func readU16(s []byte, off int) uint16 {
	return uint16(s[off]) | uint16(s[off+1])<<8
}

func readI16(s []byte, off int) int16 {
	return int16(readU16(s, off))
}

// decodeSlow applies one slow record. s is exactly slowRecordSize bytes;
// callers have already range-checked id against slowRecordCount.
func (d *Decoder) decodeSlow(id uint8, s []byte) {
	switch id {
	case 0: // corrections & electrical
		d.data.CorrAngle = int8(s[0])
		d.data.LambdaTarget = Float(s[1]) * (1.0 / 128.0)
		d.data.LambdaCorrFast = int8(s[2])
		d.data.LambdaCorrSlow = int8(s[3])
		d.data.FuelPressureKpa = Float(readU16(s, 4))
		d.data.DwellMs = Float(s[6])
		d.data.Voltage = Float(s[7]) * 0.1
		d.data.Gear = int8(s[8])
		d.data.DBWCmd = Float(s[9])
		d.data.Lambda2 = Float(s[10]) * (1.0 / 128.0)

	case 1: // flags & boost
		d.data.FlagMajor = s[0]
		d.data.FlagMinor = s[1]
		d.data.FlagNotify = s[2]
		d.data.FlagNotify2 = s[3]
		d.data.FlagProtection = s[4]
		d.data.IdlePos = Float(s[5]) * (100.0 / 256.0)
		d.data.Airflow = readU16(s, 6)
		d.data.BoostDuty = s[8]
		d.data.BoostTarget = s[9]

	case 2: // injection details
		d.data.EGRPos = s[0]
		d.data.EGRTarget = s[1]
		d.data.InjDuty = s[2]
		d.data.InjLagTime = readI16(s, 3)
		d.data.InjEndAngle = int8(s[5])
		d.data.FuelPressCoef = s[6]
		d.data.AirChargeT = int8(s[7])
		d.data.InjAirChargeCorr = int8(s[8])
		d.data.Speed2 = s[9]
		d.data.BackPressureKpa = Float(s[10]) * 2.0

	case 3: // VVT & traction
		d.data.IgnAccelCorr = readI16(s, 0)
		d.data.VVT1Curr = int8(s[2])
		d.data.VVT1Target = int8(s[3])
		d.data.VVT2Curr = int8(s[4])
		d.data.VVT2Target = int8(s[5])
		d.data.VVT1BCurr = int8(s[6])
		d.data.VVT2BCurr = int8(s[7])
		d.data.TCSCorr = s[8]
		d.data.PWM3DTarget = Float(s[9]) * (100.0 / 256.0)
		d.data.PWM3DCurr = Float(s[10]) * (100.0 / 256.0)

	case 4: // trip computer
		d.data.TripFuelL = Float(readU16(s, 0)) * 0.01
		d.data.TripPathKm = Float(readU16(s, 2)) * 0.1
		d.data.CurrFuelCons = Float(readU16(s, 4)) * 0.1
		d.data.TripFuelCons = Float(readU16(s, 6)) * 0.1
		d.data.FuelComposition = Float(s[8]) * (100.0 / 256.0)

	case 5: // raw ADC
		d.data.ADCTps = s[0]
		d.data.ADCClt = s[1]
		d.data.ADCIat = s[2]
		d.data.ADCDbw1 = s[3]
		d.data.ADCDbw2 = s[4]
		d.data.ADCMap = s[5]
		d.data.ADCLambda = s[6]

	case 6: // analog inputs ADC
		copy(d.data.ADCAn[:], s[:10])

	case 7: // I/O state
		d.data.InputState = s[0]
		d.data.OutputState = readU16(s, 1)
		d.data.DBWDriverStatus = s[3]
		d.data.DBWSystemStatus = s[4]
		d.data.GasState = s[5]
		d.data.ATTemp = int8(s[6])
		d.data.ATState = s[7]
		d.data.FuelLevel = s[8]

	case 8: // temperatures & pressures
		d.data.CLT = Float(int8(s[0]))
		d.data.IAT = Float(int8(s[1]))
		d.data.OilTemp = Float(s[2])
		d.data.FuelTemp = Float(int8(s[3]))
		// s[4] reserved
		d.data.EGT1 = Float(readU16(s, 5))
		d.data.EGT2 = Float(readU16(s, 7))
		d.data.OilPressure = Float(s[9]) * 0.1

	case 9: // PWM duties
		for i := 0; i < len(d.data.PWMDuty); i++ {
			d.data.PWMDuty[i] = Float(s[i]) * (100.0 / 256.0)
		}
	}
}
