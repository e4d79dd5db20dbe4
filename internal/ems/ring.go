package ems

import "sync/atomic"

// ByteRing is a bounded single-producer/single-consumer byte queue, the
// software stand-in for the interrupt-fed receive ring the firmware drains
// from its polling loop. The reader goroutine of a transport pushes, the
// parse drain loop pops. When full, incoming bytes are dropped (drop-newest,
// matching the reference behavior) and counted.
//
// Exactly one goroutine may call Push and exactly one may call Pop.
type ByteRing struct {
	buf  []byte
	mask uint32
	head atomic.Uint32 // next write index (producer-owned)
	tail atomic.Uint32 // next read index (consumer-owned)
	drop atomic.Uint32
}

// NewByteRing returns a ring holding at least size bytes (rounded up to a
// power of two, minimum 64).
func NewByteRing(size int) *ByteRing {
	n := 64
	for n < size {
		n <<= 1
	}
	return &ByteRing{buf: make([]byte, n), mask: uint32(n - 1)}
}

// Push appends one byte, or drops it if the ring is full.
func (r *ByteRing) Push(b byte) {
	head := r.head.Load()
	if head-r.tail.Load() >= uint32(len(r.buf)) {
		r.drop.Add(1)
		return
	}
	r.buf[head&r.mask] = b
	r.head.Store(head + 1)
}

// PushSlice pushes each byte of p in order, dropping those that do not fit.
func (r *ByteRing) PushSlice(p []byte) {
	for _, b := range p {
		r.Push(b)
	}
}

// Pop removes and returns the oldest byte, if any.
func (r *ByteRing) Pop() (byte, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return 0, false
	}
	b := r.buf[tail&r.mask]
	r.tail.Store(tail + 1)
	return b, true
}

// Len reports the number of buffered bytes.
func (r *ByteRing) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Dropped reports how many bytes were discarded on overflow.
func (r *ByteRing) Dropped() uint32 {
	return r.drop.Load()
}
