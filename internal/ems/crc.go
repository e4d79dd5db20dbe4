package ems

// CRC16 as implemented by the Invent EMS firmware: CCITT variant, initial
// value 0xFFFF, reversed-polynomial byte update. The exact XOR/shift
// sequence below defines protocol compatibility — the peer computes this,
// not a catalog CRC16/CCITT-FALSE — so it is replicated rather than
// replaced with a table-driven library routine.

const crc16Init = 0xFFFF

func crc16Update(crc uint16, b byte) uint16 {
	d := b ^ byte(crc)
	d ^= d << 4
	t := uint16(d)<<8 | crc>>8
	t ^= uint16(d >> 4)
	t ^= uint16(d) << 3
	return t
}

// crc16 folds a whole buffer starting from the initial value.
func crc16(buf []byte) uint16 {
	crc := uint16(crc16Init)
	for _, b := range buf {
		crc = crc16Update(crc, b)
	}
	return crc
}
