package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/inventlabs/invent-dash/internal/ems"
	"github.com/inventlabs/invent-dash/internal/logger"
)

// Server polls the decoder snapshot and broadcasts it to WebSocket clients.
// The telemetry providers feed the decoder on their own goroutines; the
// server only ever reads, via Snapshot, so a stuck client can never stall
// the decode path.
type Server struct {
	cfg      *Config
	dec      *ems.Decoder
	provider ems.Provider
	logger   *logger.Logger

	clients   map[*wsClient]struct{}
	clientsMu sync.RWMutex

	upgrader websocket.Upgrader
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Frame is the JSON structure sent to all WebSocket clients.
type Frame struct {
	EMS    *ems.Data      `json:"ems,omitempty"`
	Config *DisplayConfig `json:"config,omitempty"`
	Stamp  int64          `json:"stamp"` // Unix ms
}

// New creates a new Server.
func New(cfg *Config, dec *ems.Decoder, provider ems.Provider) *Server {
	return &Server{
		cfg:      cfg,
		dec:      dec,
		provider: provider,
		logger: logger.New(logger.Config{
			Enabled:    cfg.Logging.Enabled,
			Path:       cfg.Logging.Path,
			IntervalMs: cfg.Logging.Interval,
		}),
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run starts the HTTP server and the broadcast loop.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWS)

	// Config API
	mux.HandleFunc("/api/config", s.handleConfig)

	// Status API
	mux.HandleFunc("/api/status", s.handleStatus)

	go s.broadcastLoop(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Server.ListenAddr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Printf("[server] listening on %s", s.cfg.Server.ListenAddr)
	return srv.ListenAndServe()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}

	s.clientsMu.Lock()
	s.clients[client] = struct{}{}
	nClients := len(s.clients)
	s.clientsMu.Unlock()

	log.Printf("[ws] client connected (%d total)", nClients)

	// Send initial config + current snapshot so the dashboard renders
	// immediately instead of waiting for the next broadcast tick.
	snap := s.dec.Snapshot()
	first := Frame{
		EMS:    &snap,
		Config: &s.cfg.Display,
		Stamp:  time.Now().UnixMilli(),
	}
	if data, err := json.Marshal(first); err == nil {
		client.send <- data
	}

	// Writer goroutine
	go func() {
		defer conn.Close()
		for msg := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader goroutine (handle incoming messages / keep-alive)
	go func() {
		defer func() {
			s.clientsMu.Lock()
			delete(s.clients, client)
			remaining := len(s.clients)
			s.clientsMu.Unlock()
			close(client.send)
			log.Printf("[ws] client disconnected (%d total)", remaining)
		}()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data, err := s.cfg.ToJSON()
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)

	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", 400)
			return
		}
		if err := s.cfg.UpdateFromJSON(body); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		if err := s.cfg.Save(); err != nil {
			log.Printf("[config] save failed: %v", err)
		}
		// Broadcast updated config
		s.broadcast(Frame{Config: &s.cfg.Display, Stamp: time.Now().UnixMilli()})

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))

	default:
		http.Error(w, "method not allowed", 405)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.dec.Snapshot()

	s.clientsMu.RLock()
	nClients := len(s.clients)
	s.clientsMu.RUnlock()

	status := map[string]interface{}{
		"provider":    s.provider.Name(),
		"connected":   snap.Connected,
		"packetCount": snap.PacketCount,
		"errorCount":  snap.ErrorCount,
		"clients":     nClients,
	}
	if sp, ok := s.provider.(*ems.Serial); ok {
		status["droppedBytes"] = sp.Dropped()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// broadcastLoop sends a snapshot frame to all clients whenever the decoder
// has accepted new data since the last tick. A quiet link produces no
// traffic beyond the initial frame.
func (s *Server) broadcastLoop(ctx context.Context) {
	hz := s.cfg.Source.PollHz
	if hz <= 0 {
		hz = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Close()
			return
		case <-ticker.C:
			if !s.dec.HasNewData() {
				continue
			}
			snap := s.dec.Snapshot()
			s.broadcast(Frame{EMS: &snap, Stamp: time.Now().UnixMilli()})
			s.logger.Record(&snap)
		}
	}
}

func (s *Server) broadcast(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for client := range s.clients {
		select {
		case client.send <- data:
		default:
			// Client too slow, skip
		}
	}
}
