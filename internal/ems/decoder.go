// Package ems decodes the Invent Labs EMS dashboard telemetry protocol.
//
// Two independent transports carry the same engine data:
//
//   - UART (19200 bps 8N1): a framed byte stream
//     [0x55 0x00 0xAA 0x00] [version] [length] [payload...] [CRC16-LE],
//     where the payload carries ~16 fast fields in every frame plus one of
//     ten rotating 11-byte slow records selected by a discriminator byte.
//   - CAN (500 kbps 2.0B): discrete identifiers in 0x300-0x340, each
//     carrying up to four little-endian 16-bit scaled fields.
//
// Both paths write into a single Data snapshot owned by a Decoder. The
// package performs no I/O of its own; transports feed it raw bytes or raw
// CAN frames (see Provider).
package ems

import "sync"

// Decoder accumulates decoded telemetry from either transport.
//
// Producers call FeedByte/FeedBytes (UART path) or FeedCANFrame (CAN path);
// a consumer on another goroutine polls HasNewData and reads Snapshot. All
// entry points are safe for that producer/consumer pairing: the snapshot is
// mutated and copied out under one mutex, so a reader never observes a
// partially updated record.
type Decoder struct {
	mu      sync.Mutex
	data    Data
	newData bool

	// Frame reassembler state (UART path only)
	state rxState
	buf   [maxRxBuf]byte
	ptr   int
}

// New returns a Decoder in the initial state: parser idle, counters zero,
// every float channel NaN.
func New() *Decoder {
	d := &Decoder{}
	d.data.reset()
	return d
}

// Reset discards all parser state and decoded data, as if freshly created.
func (d *Decoder) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data.reset()
	d.newData = false
	d.state = seekHdr0
	d.ptr = 0
}

// Snapshot returns a consistent copy of the latest decoded telemetry.
// The copy is always valid; before any traffic arrives it reads as
// disconnected with all float channels NaN.
func (d *Decoder) Snapshot() Data {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data
}

// HasNewData reports whether a frame or CAN message has been decoded since
// the last call, and clears the flag. Successive decodes between two calls
// coalesce into one true result.
func (d *Decoder) HasNewData() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.newData {
		d.newData = false
		return true
	}
	return false
}
