//go:build linux

package ems

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"net"
	"syscall"
	"unsafe"
)

// SocketCAN provider: reads raw can_frame records from a Linux CAN_RAW
// socket and hands each one to the decoder. The CAN interface itself must
// already be configured for the bus rate (500 kbps, CAN 2.0B) via the
// usual `ip link` bring-up; that is the collaborator's job.

const (
	afCAN      = 29
	canRaw     = 1
	canEffFlag = 0x80000000
	canRtrFlag = 0x40000000
	canErrFlag = 0x20000000
	canSffMask = 0x000007FF

	canFrameSize = 16 // sizeof(struct can_frame)
)

// CANConfig holds connection settings for the CAN transport.
type CANConfig struct {
	Interface string `yaml:"interface" json:"interface"` // e.g. can0
}

// CANBus is the SocketCAN provider.
type CANBus struct {
	cfg CANConfig
	dec *Decoder
	fd  int
}

// NewCANBus creates the SocketCAN provider targeting dec.
func NewCANBus(cfg CANConfig, dec *Decoder) *CANBus {
	if cfg.Interface == "" {
		cfg.Interface = "can0"
	}
	return &CANBus{cfg: cfg, dec: dec, fd: -1}
}

func (c *CANBus) Name() string { return "CAN" }

// Connect opens a raw CAN socket bound to the configured interface.
func (c *CANBus) Connect() error {
	fd, err := syscall.Socket(afCAN, syscall.SOCK_RAW, canRaw)
	if err != nil {
		return fmt.Errorf("can: socket: %w", err)
	}

	netIf, err := net.InterfaceByName(c.cfg.Interface)
	if err != nil {
		syscall.Close(fd)
		return fmt.Errorf("can: interface %s: %w", c.cfg.Interface, err)
	}

	// struct sockaddr_can laid out manually; bind(2) called directly.
	type sockaddrCAN struct {
		Family  uint16
		_       uint16
		Ifindex int32
		Addr    [8]byte
	}
	sa := sockaddrCAN{Family: afCAN, Ifindex: int32(netIf.Index)}
	_, _, e := syscall.Syscall(syscall.SYS_BIND, uintptr(fd),
		uintptr(unsafe.Pointer(&sa)), unsafe.Sizeof(sa))
	if e != 0 {
		syscall.Close(fd)
		return fmt.Errorf("can: bind %s: %w", c.cfg.Interface, e)
	}

	// Receive timeout so Run wakes to observe context cancellation even on
	// a silent bus.
	tv := syscall.Timeval{Usec: 100_000}
	if err := syscall.SetsockoptTimeval(fd, syscall.SOL_SOCKET, syscall.SO_RCVTIMEO, &tv); err != nil {
		syscall.Close(fd)
		return fmt.Errorf("can: set receive timeout: %w", err)
	}

	c.fd = fd
	log.Printf("[can] bound to %s", c.cfg.Interface)
	return nil
}

// Run reads frames until ctx is done or the socket fails. The receive
// timeout set in Connect bounds how long a cancelled context can go
// unnoticed on a silent bus.
func (c *CANBus) Run(ctx context.Context) error {
	buf := make([]byte, canFrameSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := syscall.Read(c.fd, buf)
		if err != nil {
			if err == syscall.EINTR || err == syscall.EAGAIN {
				// Timeout or signal: loop around and re-check ctx.
				continue
			}
			return fmt.Errorf("can: read: %w", err)
		}
		if n < canFrameSize {
			continue
		}
		c.feedRawFrame(buf)
	}
}

// feedRawFrame decodes one 16-byte struct can_frame record and hands it to
// the decoder. Error frames and remote requests are skipped; extended
// identifiers are masked before the lookup, which only recognizes the fixed
// 11-bit 0x300-0x340 set.
func (c *CANBus) feedRawFrame(rec []byte) {
	rawID := binary.LittleEndian.Uint32(rec[0:4])
	if rawID&(canErrFlag|canRtrFlag) != 0 {
		return
	}
	id := rawID & canSffMask
	if rawID&canEffFlag != 0 {
		// Extended frames never match the fixed table; keep the full
		// masked ID so they fall through as unrecognized.
		id = rawID &^ canEffFlag
	}
	dlc := rec[4]
	if dlc > 8 {
		dlc = 8
	}
	c.dec.FeedCANFrame(id, rec[8:8+int(dlc)], dlc)
}

func (c *CANBus) Close() error {
	if c.fd >= 0 {
		err := syscall.Close(c.fd)
		c.fd = -1
		return err
	}
	return nil
}
