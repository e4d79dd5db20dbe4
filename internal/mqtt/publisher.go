// Package mqtt publishes telemetry snapshots to an MQTT broker so external
// consumers (data loggers, pit displays) can subscribe without touching the
// dashboard's WebSocket feed.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/inventlabs/invent-dash/internal/ems"
)

// Config holds publisher settings.
type Config struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Topic    string
	Username string
	Password string
	Interval time.Duration
}

// Publisher periodically publishes the decoder snapshot as JSON.
type Publisher struct {
	cfg    Config
	dec    *ems.Decoder
	client paho.Client
}

// New creates a Publisher targeting dec.
func New(cfg Config, dec *ems.Decoder) *Publisher {
	if cfg.ClientID == "" {
		cfg.ClientID = "invent-dash"
	}
	if cfg.Topic == "" {
		cfg.Topic = "vehicle/ems"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	return &Publisher{cfg: cfg, dec: dec}
}

// Connect establishes the broker session.
func (p *Publisher) Connect() error {
	opts := paho.NewClientOptions().
		AddBroker(p.cfg.Broker).
		SetClientID(p.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt: connect %s: %w", p.cfg.Broker, token.Error())
	}
	p.client = client
	log.Printf("[mqtt] connected to %s, publishing %s", p.cfg.Broker, p.cfg.Topic)
	return nil
}

// Run publishes at the configured interval until ctx is done. Snapshots with
// no accepted packets are skipped so a dead link stays silent on the bus.
func (p *Publisher) Run(ctx context.Context) error {
	tick := time.NewTicker(p.cfg.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			snap := p.dec.Snapshot()
			if !snap.Connected {
				continue
			}
			payload, err := json.Marshal(&snap)
			if err != nil {
				log.Printf("[mqtt] marshal failed: %v", err)
				continue
			}
			if token := p.client.Publish(p.cfg.Topic, 0, false, payload); token.Wait() && token.Error() != nil {
				log.Printf("[mqtt] publish failed: %v", token.Error())
			}
		}
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
