package ems

import "context"

// Provider is a telemetry transport that pumps raw traffic into a Decoder.
// Exactly one provider runs per process — the protocol selects a single
// transport at configuration time — while the dashboard consumer polls the
// Decoder from its own goroutine.
type Provider interface {
	// Name returns the human-readable name of this transport.
	Name() string
	// Connect opens the underlying device.
	Connect() error
	// Run pumps received traffic into the decoder until ctx is done or the
	// transport fails. It must only be called after a successful Connect.
	Run(ctx context.Context) error
	// Close shuts the transport down.
	Close() error
}
