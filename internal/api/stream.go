package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/owe/internal/engine"
)

const (
	catchUpEvents = 50
	heartbeat     = 15 * time.Second
	writeWait     = 5 * time.Second
)

// handleStream pushes events as server-sent events.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !s.checkRelay(w, r) {
		return
	}

	// Connection limit.
	current := atomic.AddInt32(&s.sseConns, 1)
	if current > maxSSEConns {
		atomic.AddInt32(&s.sseConns, -1)
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// SSE headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Subscribe before the catch-up so nothing falls between the two.
	subID, ch := s.Sim.Subscribe()
	defer s.Sim.Unsubscribe(subID)

	recent, replayed := catchUp(s.Sim)
	for _, e := range recent {
		writeSSEEvent(w, e)
	}
	flusher.Flush()

	slog.Info("SSE client connected", "sub_id", subID)

	// Stream loop with heartbeat.
	beat := time.NewTicker(heartbeat)
	defer beat.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			if e.Seq <= replayed {
				continue
			}
			writeSSEEvent(w, e)
			flusher.Flush()
		case <-beat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			slog.Info("SSE client disconnected", "sub_id", subID)
			return
		}
	}
}

// catchUp returns the recent events a new stream replays and the sequence
// number of the newest one. Live events at or below it were already sent.
func catchUp(sim *engine.Simulation) ([]engine.Event, uint64) {
	recent := sim.RecentEvents(catchUpEvents)
	if len(recent) == 0 {
		return recent, 0
	}
	return recent, recent[len(recent)-1].Seq
}

// writeSSEEvent writes a single event in SSE format.
func writeSSEEvent(w http.ResponseWriter, e engine.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Category, data)
}

// handleWS pushes events over a websocket as JSON text messages. The
// client sends nothing; any read error or close ends the session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.checkRelay(w, r) {
		return
	}

	current := atomic.AddInt32(&s.wsConns, 1)
	defer atomic.AddInt32(&s.wsConns, -1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if current > maxWSConns {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
		return
	}

	subID, ch := s.Sim.Subscribe()
	defer s.Sim.Unsubscribe(subID)
	slog.Info("websocket client connected", "sub_id", subID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader: only control frames are expected; it notices the client leaving.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(v any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(v)
	}

	recent, replayed := catchUp(s.Sim)
	for _, e := range recent {
		if err := send(e); err != nil {
			return
		}
	}

	beat := time.NewTicker(heartbeat)
	defer beat.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			if e.Seq <= replayed {
				continue
			}
			if err := send(e); err != nil {
				return
			}
		case <-beat.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-ctx.Done():
			slog.Info("websocket client disconnected", "sub_id", subID)
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
			return
		}
	}
}
