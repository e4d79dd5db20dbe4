package ems

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteRingOrder(t *testing.T) {
	r := NewByteRing(64)
	for i := 0; i < 10; i++ {
		r.Push(byte(i))
	}
	require.Equal(t, 10, r.Len())
	for i := 0; i < 10; i++ {
		b, ok := r.Pop()
		require.True(t, ok)
		require.Equal(t, byte(i), b)
	}
	_, ok := r.Pop()
	require.False(t, ok)
	require.Zero(t, r.Len())
}

func TestByteRingOverflowDropsNewest(t *testing.T) {
	r := NewByteRing(64)
	for i := 0; i < 70; i++ {
		r.Push(byte(i))
	}
	require.Equal(t, 64, r.Len())
	require.Equal(t, uint32(6), r.Dropped())

	// The oldest bytes survive; the overflow bytes were discarded.
	b, ok := r.Pop()
	require.True(t, ok)
	require.Equal(t, byte(0), b)
}

func TestByteRingWrapAround(t *testing.T) {
	r := NewByteRing(64)
	for round := 0; round < 5; round++ {
		r.PushSlice([]byte{1, 2, 3})
		for _, want := range []byte{1, 2, 3} {
			b, ok := r.Pop()
			require.True(t, ok)
			require.Equal(t, want, b)
		}
	}
	require.Zero(t, r.Dropped())
}

func TestByteRingConcurrentTransfer(t *testing.T) {
	r := NewByteRing(256)
	const n = 10000

	done := make(chan struct{})
	go func() {
		defer close(done)
		next := byte(0)
		got := 0
		for got < n {
			b, ok := r.Pop()
			if !ok {
				continue
			}
			if b != next {
				t.Errorf("out of order: got %d want %d", b, next)
				return
			}
			next++
			got++
		}
	}()

	for i := 0; i < n; {
		before := r.Len()
		if before < 256 {
			r.Push(byte(i))
			i++
		}
	}
	<-done
	require.Zero(t, r.Dropped())
}
