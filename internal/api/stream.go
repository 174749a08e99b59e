// Live epoch feed over websocket.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/worldforge/internal/engine"
	"github.com/talgya/worldforge/internal/social"
)

const (
	streamBuffer     = 16
	streamWriteWait  = 5 * time.Second
	streamReadWindow = 60 * time.Second
	streamPingEvery  = streamReadWindow / 2
)

// EpochReport is one message on /api/v1/stream.
type EpochReport struct {
	Generation int                 `json:"generation"`
	Seed       int64               `json:"seed"`
	Epoch      int                 `json:"epoch"`
	Age        string              `json:"age"`
	Stats      engine.SimStats     `json:"stats"`
	Events     []social.EpochEvent `json:"events"`
}

// hub fans reports out to stream subscribers. Slow subscribers drop messages.
type hub struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func (h *hub) subscribe() chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[chan []byte]struct{})
	}
	ch := make(chan []byte, streamBuffer)
	h.subs[ch] = struct{}{}
	return ch
}

func (h *hub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, ch)
}

func (h *hub) publish(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- b:
		default:
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func report(sim *engine.Simulation, generation int) []byte {
	b, err := json.Marshal(EpochReport{
		Generation: generation,
		Seed:       sim.World.Params.Seed,
		Epoch:      sim.Knobs.Epoch,
		Age:        engine.EpochLabel(sim.Knobs.Epoch),
		Stats:      sim.Stats,
		Events:     sim.Events,
	})
	if err != nil {
		slog.Warn("encode epoch report", "error", err)
		return nil
	}
	return b
}

// broadcast sends the current snapshot to every subscriber.
func (s *Server) broadcast() {
	s.mu.RLock()
	sim, gens := s.sim, s.generations
	s.mu.RUnlock()
	if sim == nil || s.streams.count() == 0 {
		return
	}
	if b := report(sim, gens); b != nil {
		s.streams.publish(b)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := s.streams.subscribe()
	defer s.streams.unsubscribe(ch)

	// The current snapshot goes out first so a new client never waits an epoch.
	s.mu.RLock()
	sim, gens := s.sim, s.generations
	s.mu.RUnlock()
	if sim != nil {
		if b := report(sim, gens); b != nil {
			ch <- b
		}
	}

	// Reader: clients send nothing useful; a read error means they left.
	_ = conn.SetReadDeadline(time.Now().Add(streamReadWindow))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamReadWindow))
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case b := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}
