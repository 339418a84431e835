package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/owe/internal/economy"
	"github.com/talgya/owe/internal/engine"
	"github.com/talgya/owe/internal/entities"
	"github.com/talgya/owe/internal/persistence"
	"github.com/talgya/owe/internal/world"
)

// kilnProducer makes bricks on every visit.
type kilnProducer struct{}

func (kilnProducer) ProduceCommodity(entities.Entity) (entities.ProductionStage, bool) {
	return entities.ProductionStage{
		Commodity: entities.Commodity{Name: "bricks", Amount: 1200},
		Required:  []entities.Commodity{{Name: "clay", Amount: 4}},
	}, true
}

func (kilnProducer) ProduceWalker(entities.Entity) (entities.WalkerProperties, bool) {
	return entities.WalkerProperties{}, false
}

func (p kilnProducer) Clone() entities.Producer { return p }

// testServer runs one sweep over a 3×3 world:
//
//	K . .
//	. # .
//	. . .
func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	g := world.New(3)
	kiln := &entities.Structure{Props: entities.StructureProperties{Name: "kiln"}, Producer: kilnProducer{}}
	id, _, err := g.AddEntity(world.C(0, 0), kiln)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := g.AddEntity(world.C(1, 1), &entities.Doodad{Props: entities.DoodadProperties{Name: "rock"}}); err != nil {
		t.Fatal(err)
	}
	x := economy.NewExchange(g)
	if err := x.AddProducer(kiln, id, "bricks"); err != nil {
		t.Fatal(err)
	}

	sim := engine.NewSimulation(g, x, engine.NewCursor(1, engine.Right, world.C(0, 0)))
	for tick := uint64(1); tick <= 9; tick++ {
		if err := sim.TickCell(tick); err != nil {
			t.Fatal(err)
		}
	}
	sim.TickSweep(9)

	s := &Server{
		Sim:      sim,
		Eng:      engine.NewEngine(),
		AdminKey: "admin",
		RelayKey: "relay",
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestStatus(t *testing.T) {
	_, ts := testServer(t)

	var status map[string]any
	resp := getJSON(t, ts.URL+"/api/v1/status", &status)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	if status["tick"] != 9.0 || status["sweeps"] != 1.0 || status["width"] != 3.0 || status["speed"] != 1.0 {
		t.Errorf("status = %v", status)
	}
}

func TestGridAndCell(t *testing.T) {
	_, ts := testServer(t)

	var grid engine.GridView
	getJSON(t, ts.URL+"/api/v1/grid", &grid)
	want := []string{"@..", ".d.", "..."}
	if strings.Join(grid.Rows, "|") != strings.Join(want, "|") {
		t.Errorf("rows = %q, want %q", grid.Rows, want)
	}

	tests := []struct {
		path string
		code int
	}{
		{"/api/v1/cell/1/1", http.StatusOK},
		{"/api/v1/cell/3/0", http.StatusNotFound},
		{"/api/v1/cell/a/0", http.StatusBadRequest},
		{"/api/v1/cell/1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		var cell engine.CellView
		resp := getJSON(t, ts.URL+tt.path, &cell)
		if resp.StatusCode != tt.code {
			t.Errorf("GET %s = %d, want %d", tt.path, resp.StatusCode, tt.code)
		}
		if tt.code == http.StatusOK && (len(cell.Entities) != 1 || cell.Entities[0].Name != "rock") {
			t.Errorf("cell = %+v", cell)
		}
	}
}

func TestExchange(t *testing.T) {
	_, ts := testServer(t)

	var entries []struct {
		Commodity     string  `json:"commodity"`
		Available     uint64  `json:"available"`
		Required      uint64  `json:"required"`
		Pressure      float64 `json:"pressure"`
		AvailableText string  `json:"available_text"`
	}
	getJSON(t, ts.URL+"/api/v1/exchange", &entries)
	if len(entries) != 2 {
		t.Fatalf("entries = %+v, want bricks and clay", entries)
	}
	if entries[0].Commodity != "bricks" || entries[0].Available != 1200 || entries[0].AvailableText != "1,200" {
		t.Errorf("bricks = %+v", entries[0])
	}
	if entries[1].Commodity != "clay" || entries[1].Required != 4 || entries[1].Pressure != 4 {
		t.Errorf("clay = %+v", entries[1])
	}
}

func TestExchangeHistory(t *testing.T) {
	s, ts := testServer(t)

	resp := getJSON(t, ts.URL+"/api/v1/exchange/history?commodity=bricks", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("without a DB: code = %d, want 503", resp.StatusCode)
	}

	db, err := persistence.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := db.SaveSweep(s.Sim); err != nil {
		t.Fatal(err)
	}
	s.DB = db

	resp = getJSON(t, ts.URL+"/api/v1/exchange/history", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("without commodity: code = %d, want 400", resp.StatusCode)
	}

	var rows []struct {
		Tick      uint64 `json:"tick"`
		Available uint64 `json:"available"`
	}
	getJSON(t, ts.URL+"/api/v1/exchange/history?commodity=bricks", &rows)
	if len(rows) != 1 || rows[0].Tick != 9 || rows[0].Available != 1200 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestEvents(t *testing.T) {
	_, ts := testServer(t)

	var events []engine.Event
	getJSON(t, ts.URL+"/api/v1/events?limit=10", &events)
	if len(events) != 1 || events[0].Category != engine.CategorySweep {
		t.Errorf("events = %+v", events)
	}

	events = nil
	getJSON(t, ts.URL+"/api/v1/events?category=walker", &events)
	if len(events) != 0 {
		t.Errorf("walker events = %+v, want none", events)
	}
}

func TestPath(t *testing.T) {
	s, ts := testServer(t)
	s.PathLimiter = NewRateLimiter(2, time.Minute)
	defer s.PathLimiter.Close()
	ts.Config.Handler = s.Handler()

	var result struct {
		Found bool          `json:"found"`
		Cost  int           `json:"cost"`
		Path  []world.Coord `json:"path"`
	}
	getJSON(t, ts.URL+"/api/v1/path?from=0,1&to=2,1", &result)
	if !result.Found || result.Cost != 2 || len(result.Path) != 3 {
		t.Errorf("path = %+v", result)
	}

	resp := getJSON(t, ts.URL+"/api/v1/path?from=0&to=2,1", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad from: code = %d, want 400", resp.StatusCode)
	}

	resp = getJSON(t, ts.URL+"/api/v1/path?from=0,1&to=2,1", nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("third request: code = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("429 without Retry-After")
	}
}

func TestSpeed(t *testing.T) {
	s, ts := testServer(t)

	post := func(token, body string) int {
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/speed", strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	tests := []struct {
		name  string
		token string
		body  string
		code  int
	}{
		{"no token", "", `{"speed": 2}`, http.StatusUnauthorized},
		{"wrong token", "nope", `{"speed": 2}`, http.StatusUnauthorized},
		{"bad json", "admin", `{`, http.StatusBadRequest},
		{"out of range", "admin", `{"speed": 5000}`, http.StatusBadRequest},
		{"ok", "admin", `{"speed": 4}`, http.StatusOK},
	}
	for _, tt := range tests {
		if got := post(tt.token, tt.body); got != tt.code {
			t.Errorf("%s: code = %d, want %d", tt.name, got, tt.code)
		}
	}
	if s.Eng.Speed() != 4 {
		t.Errorf("Speed() = %v, want 4", s.Eng.Speed())
	}

	var speed map[string]float64
	getJSON(t, ts.URL+"/api/v1/speed", &speed)
	if speed["speed"] != 4 {
		t.Errorf("GET speed = %v", speed)
	}

	s.AdminKey = ""
	if got := post("admin", `{"speed": 1}`); got != http.StatusForbidden {
		t.Errorf("admin disabled: code = %d, want 403", got)
	}
}

func TestStreamCatchUp(t *testing.T) {
	_, ts := testServer(t)

	resp := getJSON(t, ts.URL+"/api/v1/stream", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("without token: code = %d, want 401", resp.StatusCode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/stream", nil)
	req.Header.Set("Authorization", "Bearer relay")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Fatalf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if line != "event: sweep\n" {
		t.Errorf("first line = %q, want the sweep event", line)
	}
}

func TestWebsocketCatchUp(t *testing.T) {
	_, ts := testServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("dial without token: err = %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=relay", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var e engine.Event
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if e.Category != engine.CategorySweep || e.Tick != 9 || e.Seq != 1 {
		t.Errorf("event = %+v, want the tick 9 sweep", e)
	}
}

func TestStreamDisabled(t *testing.T) {
	s, ts := testServer(t)
	s.RelayKey = ""
	resp := getJSON(t, ts.URL+"/api/v1/stream", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("code = %d, want 403", resp.StatusCode)
	}
}

func TestCORS(t *testing.T) {
	_, ts := testServer(t)
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight code = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}

func TestCatchUpSkipsReplayedEvents(t *testing.T) {
	s, _ := testServer(t)

	id, ch := s.Sim.Subscribe()
	defer s.Sim.Unsubscribe(id)

	// Logged after the subscription and before the replay: both paths see it.
	s.Sim.TickSweep(10)
	recent, replayed := catchUp(s.Sim)
	if len(recent) != 2 || recent[1].Tick != 10 || replayed != recent[1].Seq {
		t.Fatalf("catch-up = %+v, replayed = %d", recent, replayed)
	}
	s.Sim.TickSweep(11)

	var live []engine.Event
	for i := 0; i < 2; i++ {
		select {
		case e := <-ch:
			if e.Seq > replayed {
				live = append(live, e)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber missed an event")
		}
	}
	if len(live) != 1 || live[0].Tick != 11 {
		t.Errorf("live events after catch-up = %+v, want only the tick 11 sweep", live)
	}
}
