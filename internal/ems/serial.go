package ems

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.bug.st/serial"
)

// SerialConfig holds connection settings for the UART transport.
type SerialConfig struct {
	PortPath string `yaml:"port_path" json:"portPath"` // e.g. /dev/ttyUSB0
	BaudRate int    `yaml:"baud_rate" json:"baudRate"` // protocol default 19200
}

// Serial is the UART byte-stream provider. A reader goroutine drains the OS
// port into a ByteRing; Run's loop pops the ring and feeds the decoder one
// byte at a time, mirroring the firmware's interrupt-ring/polling split.
type Serial struct {
	cfg  SerialConfig
	dec  *Decoder
	port serial.Port
	ring *ByteRing
}

// NewSerial creates the UART provider targeting dec.
func NewSerial(cfg SerialConfig, dec *Decoder) *Serial {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = BaudRate
	}
	return &Serial{
		cfg:  cfg,
		dec:  dec,
		ring: NewByteRing(1024),
	}
}

func (s *Serial) Name() string { return "UART" }

// Connect opens the port at the protocol's fixed 8N1 framing.
func (s *Serial) Connect() error {
	mode := &serial.Mode{
		BaudRate: s.cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(s.cfg.PortPath, mode)
	if err != nil {
		return fmt.Errorf("serial: failed to open %s: %w", s.cfg.PortPath, err)
	}
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		port.Close()
		return fmt.Errorf("serial: failed to set timeout: %w", err)
	}
	s.port = port
	log.Printf("[serial] opened %s at %d baud 8N1", s.cfg.PortPath, s.cfg.BaudRate)
	return nil
}

// Run pumps bytes until ctx is done or the port dies.
func (s *Serial) Run(ctx context.Context) error {
	readErr := make(chan error, 1)
	go s.readLoop(ctx, readErr)

	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()

	for {
		// Drain everything buffered before sleeping again; at 19200 baud
		// a 1 ms tick stays far ahead of the line rate.
		for {
			b, ok := s.ring.Pop()
			if !ok {
				break
			}
			s.dec.FeedByte(b)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case <-tick.C:
		}
	}
}

func (s *Serial) readLoop(ctx context.Context, readErr chan<- error) {
	buf := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := s.port.Read(buf)
		if err != nil {
			readErr <- fmt.Errorf("serial: read failed: %w", err)
			return
		}
		if n > 0 {
			s.ring.PushSlice(buf[:n])
		}
	}
}

// Dropped reports bytes discarded because the parse loop fell behind.
func (s *Serial) Dropped() uint32 { return s.ring.Dropped() }

func (s *Serial) Close() error {
	if s.port != nil {
		err := s.port.Close()
		s.port = nil
		return err
	}
	return nil
}
