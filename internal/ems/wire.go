package ems

// Wire protocol constants. The header/version preamble precedes every frame;
// the length byte that follows is the index of the low CRC byte within the
// framed buffer, so a frame body is length+1 bytes ending in a little-endian
// CRC16 computed over bytes [0, length-2].
const (
	header0 = 0x55
	header1 = 0x00
	header2 = 0xAA
	header3 = 0x00

	// ProtocolVersion is the exact version byte required after the header
	// (protocol v5.4).
	ProtocolVersion = 0x54

	// BaudRate is the fixed UART rate for the byte-stream transport.
	BaudRate = 19200

	maxRxBuf     = 64
	minPacketLen = 4  // type + at least 1 data byte + CRC16
	maxPacketLen = 48 // largest plausible length field

	slowRecordOffset = 25
	slowRecordSize   = 11
	slowRecordCount  = 10
)

// appendFrame appends one complete wire frame to dst: header, version,
// length byte, body, CRC16-LE. body is the frame content between the length
// byte and the CRC (type byte first); the length byte and CRC are derived.
//
// Used by the demo provider and by tests; the dashboard itself never
// transmits.
func appendFrame(dst, body []byte) []byte {
	length := byte(len(body) + 2)
	dst = append(dst, header0, header1, header2, header3, ProtocolVersion)

	crc := uint16(crc16Init)
	crc = crc16Update(crc, length)
	for _, b := range body {
		crc = crc16Update(crc, b)
	}

	dst = append(dst, length)
	dst = append(dst, body...)
	dst = append(dst, byte(crc), byte(crc>>8))
	return dst
}
