package ems

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC16KnownVector(t *testing.T) {
	// Reversed-polynomial CCITT with init 0xFFFF and no final XOR
	// (the MCRF4XX construction): check value for "123456789".
	require.Equal(t, uint16(0x6F91), crc16([]byte("123456789")))
}

func TestCRC16Empty(t *testing.T) {
	require.Equal(t, uint16(crc16Init), crc16(nil))
}

func TestCRC16SingleBitSensitivity(t *testing.T) {
	buf := []byte{0x25, 0x01, 0x04, 0x88, 0x13, 0x00, 0xFF, 0x80, 0x40}
	want := crc16(buf)
	for i := range buf {
		for bit := 0; bit < 8; bit++ {
			mod := make([]byte, len(buf))
			copy(mod, buf)
			mod[i] ^= 1 << bit
			require.NotEqual(t, want, crc16(mod),
				"flip of byte %d bit %d went undetected", i, bit)
		}
	}
}

func TestCRC16Deterministic(t *testing.T) {
	buf := []byte{0x55, 0x00, 0xAA, 0x00, 0x54}
	require.Equal(t, crc16(buf), crc16(buf))
}
