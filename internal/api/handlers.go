package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/owe/internal/economy"
	"github.com/talgya/owe/internal/engine"
	"github.com/talgya/owe/internal/world"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Status()
	status := map[string]any{
		"name":      "owe",
		"tick":      st.Tick,
		"tick_text": humanize.Comma(int64(st.Tick)),
		"cursor":    st.Cursor,
		"direction": st.Direction,
		"range":     st.Range,
		"sweeps":    st.Sweeps,
		"width":     st.Width,
		"height":    st.Height,
		"entities":  st.Entities,
		"started":   humanize.Time(s.started),
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	writeJSON(w, status)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Stats())
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Grid())
}

// handleCell returns one cell: GET /api/v1/cell/:x/:y.
func (s *Server) handleCell(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// api/v1/cell/:x/:y → parts[3]=x parts[4]=y
	if len(parts) != 5 {
		http.Error(w, "usage: /api/v1/cell/:x/:y", http.StatusBadRequest)
		return
	}
	x, err1 := strconv.Atoi(parts[3])
	y, err2 := strconv.Atoi(parts[4])
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid coordinates", http.StatusBadRequest)
		return
	}

	cell, ok := s.Sim.Cell(world.C(x, y))
	if !ok {
		http.Error(w, "cell not found", http.StatusNotFound)
		return
	}
	writeJSON(w, cell)
}

type balanceEntry struct {
	economy.Balance
	Pressure      float64 `json:"pressure"`
	Shortfall     uint64  `json:"shortfall"`
	AvailableText string  `json:"available_text"`
	UsedText      string  `json:"used_text"`
}

func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	balances := s.Sim.Balances()
	entries := make([]balanceEntry, 0, len(balances))
	for _, b := range balances {
		entries = append(entries, balanceEntry{
			Balance:       b,
			Pressure:      b.Pressure(),
			Shortfall:     b.Shortfall(),
			AvailableText: humanize.Comma(int64(b.Available)),
			UsedText:      humanize.Comma(int64(b.Used)),
		})
	}
	writeJSON(w, entries)
}

// handleExchangeHistory returns journaled balances of one commodity:
// GET /api/v1/exchange/history?commodity=bricks&limit=30.
func (s *Server) handleExchangeHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	commodity := r.URL.Query().Get("commodity")
	if commodity == "" {
		http.Error(w, "commodity is required", http.StatusBadRequest)
		return
	}
	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}

	type historyRow struct {
		Tick uint64 `json:"tick"`
		economy.Balance
	}

	balances, ticks, err := s.DB.BalanceHistory(commodity, limit)
	if err != nil {
		slog.Error("balance history query failed", "error", err)
		// Empty array instead of an error; the table may not have data yet.
		writeJSON(w, []historyRow{})
		return
	}
	rows := make([]historyRow, len(balances))
	for i := range balances {
		rows[i] = historyRow{Tick: ticks[i], Balance: balances[i]}
	}
	writeJSON(w, rows)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Sim.RecentEvents(0)

	// Optional category filter.
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := []engine.Event{}
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}

	writeJSON(w, events[start:])
}

// handlePath finds a walking route: GET /api/v1/path?from=x,y&to=x,y.
func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	from, err := world.ParseCoord(r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "invalid from: "+err.Error(), http.StatusBadRequest)
		return
	}
	to, err := world.ParseCoord(r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "invalid to: "+err.Error(), http.StatusBadRequest)
		return
	}

	path, cost, ok := s.Sim.Path(from, to)
	if !ok {
		writeJSON(w, map[string]any{"found": false})
		return
	}
	writeJSON(w, map[string]any{
		"found": true,
		"cost":  cost,
		"path":  path,
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not running", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}
