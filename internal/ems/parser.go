package ems

// Frame reassembler: a resynchronizing state machine fed one byte at a
// time. Header and version mismatches re-evaluate the offending byte
// against the start of the header in the same call, so a 0x55 that breaks
// one match attempt can still open the next one and no byte is ever
// silently dropped during resync.

type rxState uint8

const (
	seekHdr0 rxState = iota
	seekHdr1
	seekHdr2
	seekHdr3
	seekVersion
	readLength
	readBody
)

// FeedByte advances the frame reassembler by one received byte. When the
// byte completes a frame whose CRC verifies, the fast fields and the
// selected slow record are decoded into the snapshot, the packet counter
// increments and the new-data flag is raised; on CRC mismatch only the
// error counter increments. Either way the machine returns to header
// search. FeedByte never blocks and never fails.
func (d *Decoder) FeedByte(b byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.feedByte(b)
}

// FeedBytes feeds a chunk of received bytes in order. Convenience for
// transport drain loops that read more than one byte per wakeup.
func (d *Decoder) FeedBytes(p []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range p {
		d.feedByte(b)
	}
}

func (d *Decoder) feedByte(b byte) {
	for retry := true; retry; {
		retry = false
		switch d.state {
		case seekHdr0:
			if b == header0 {
				d.state = seekHdr1
			}
		case seekHdr1:
			if b == header1 {
				d.state = seekHdr2
			} else {
				d.state = seekHdr0
				retry = true
			}
		case seekHdr2:
			if b == header2 {
				d.state = seekHdr3
			} else {
				d.state = seekHdr0
				retry = true
			}
		case seekHdr3:
			if b == header3 {
				d.state = seekVersion
			} else {
				d.state = seekHdr0
				retry = true
			}
		case seekVersion:
			if b == ProtocolVersion {
				d.state = readLength
			} else {
				d.state = seekHdr0
				retry = true
			}
		case readLength:
			// A rejected length byte is not re-evaluated: it was
			// consumed as part of a plausible preamble.
			if b >= minPacketLen && b <= maxPacketLen {
				d.buf[0] = b
				d.ptr = 1
				d.state = readBody
			} else {
				d.state = seekHdr0
			}
		case readBody:
			// Bytes past buffer capacity are discarded positionally
			// but still count toward the declared length.
			if d.ptr < maxRxBuf {
				d.buf[d.ptr] = b
			}
			d.ptr++
			if d.ptr > int(d.buf[0]) {
				d.finishFrame()
				d.state = seekHdr0
			}
		default:
			d.state = seekHdr0
		}
	}
}

// finishFrame verifies the CRC of a fully accumulated frame and decodes it.
func (d *Decoder) finishFrame() {
	length := int(d.buf[0])
	rxCRC := uint16(d.buf[length-1]) | uint16(d.buf[length])<<8
	if crc16(d.buf[:length-1]) != rxCRC {
		d.data.ErrorCount++
		return
	}

	// lim is the index of the low CRC byte: payload fields are valid only
	// below it. Fields the declared length did not cover keep their prior
	// values.
	lim := length - 1
	d.decodeFast(d.buf[:], lim)

	if lim > 24 && slowRecordOffset+slowRecordSize <= lim {
		if id := d.buf[24]; id < slowRecordCount {
			d.decodeSlow(id, d.buf[slowRecordOffset:slowRecordOffset+slowRecordSize])
		}
	}

	d.data.Connected = true
	d.data.PacketCount++
	d.newData = true
}
