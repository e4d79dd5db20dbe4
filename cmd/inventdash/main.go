package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inventlabs/invent-dash/internal/ems"
	"github.com/inventlabs/invent-dash/internal/mqtt"
	"github.com/inventlabs/invent-dash/internal/server"
)

func main() {
	configPath := flag.String("config", "/etc/invent-dash/config.yaml", "Path to config file")
	demo := flag.Bool("demo", false, "Run with a simulated ECU")
	listenAddr := flag.String("listen", "", "Override listen address (e.g. :8080)")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] invent-dash starting")

	// Load config
	cfg := server.LoadConfig(*configPath)

	if *demo {
		cfg.Source.Type = "demo"
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}

	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[main] received %v, shutting down", sig)
		cancel()
	}()

	// One decoder shared by whichever provider is active
	dec := ems.New()

	var prov ems.Provider
	switch cfg.Source.Type {
	case "uart":
		prov = ems.NewSerial(cfg.Source.Serial, dec)
	case "can":
		prov = ems.NewCANBus(cfg.Source.CAN, dec)
	default:
		prov = ems.NewDemo(dec)
	}

	// Run the provider with reconnect — non-blocking, the dashboard starts
	// regardless and shows the link as down until frames decode.
	go runWithRetry(ctx, prov)

	// Optional MQTT publisher
	if cfg.MQTT.Enabled {
		pub := mqtt.New(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Interval: time.Duration(cfg.MQTT.Interval) * time.Millisecond,
		}, dec)
		go func() {
			if err := pub.Connect(); err != nil {
				log.Printf("[mqtt] %v", err)
				return
			}
			defer pub.Close()
			pub.Run(ctx)
		}()
	}

	// Start server — works immediately even if the ECU is still connecting
	srv := server.New(cfg, dec, prov)
	if err := srv.Run(ctx); err != nil {
		log.Printf("[main] server exited: %v", err)
	}
}

// runWithRetry connects the provider with exponential backoff, runs it, and
// starts over if the link dies. Backoff starts at 1s and doubles up to 60s,
// resetting after a successful session.
func runWithRetry(ctx context.Context, p ems.Provider) {
	delay := 1 * time.Second
	maxDelay := 60 * time.Second
	attempt := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := p.Connect(); err != nil {
			attempt++
			log.Printf("[%s] connect attempt %d failed: %v (retry in %v)",
				p.Name(), attempt, err, delay)

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}

			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
			continue
		}

		log.Printf("[%s] connected (attempt %d)", p.Name(), attempt+1)
		delay = 1 * time.Second
		attempt = 0

		err := p.Run(ctx)
		p.Close()
		if ctx.Err() != nil {
			return
		}
		log.Printf("[%s] link lost: %v (reconnecting)", p.Name(), err)
	}
}
