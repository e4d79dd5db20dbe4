//go:build !linux

package ems

import (
	"context"
	"fmt"
	"runtime"
)

// CANConfig holds connection settings for the CAN transport.
type CANConfig struct {
	Interface string `yaml:"interface" json:"interface"`
}

// CANBus is only available on Linux (SocketCAN).
type CANBus struct{}

// NewCANBus returns a stub provider on non-Linux platforms.
func NewCANBus(cfg CANConfig, dec *Decoder) *CANBus { return &CANBus{} }

func (c *CANBus) Name() string { return "CAN" }

func (c *CANBus) Connect() error {
	return fmt.Errorf("can: SocketCAN is not supported on %s", runtime.GOOS)
}

func (c *CANBus) Run(ctx context.Context) error {
	return fmt.Errorf("can: SocketCAN is not supported on %s", runtime.GOOS)
}

func (c *CANBus) Close() error { return nil }
