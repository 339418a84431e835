// Package persistence provides the SQLite tick journal: events, per-sweep
// commodity balances and world metadata. The journal is append-only and is
// never read back into a running simulation.
package persistence

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/owe/internal/economy"
	"github.com/talgya/owe/internal/engine"
	"github.com/talgya/owe/internal/world"
)

// DB wraps a SQLite connection for the journal.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		at_x INTEGER NOT NULL,
		at_y INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS balances (
		tick INTEGER NOT NULL,
		commodity TEXT NOT NULL,
		required INTEGER NOT NULL,
		available INTEGER NOT NULL,
		in_transit INTEGER NOT NULL,
		used INTEGER NOT NULL,
		lost INTEGER NOT NULL,
		producers INTEGER NOT NULL,
		consumers INTEGER NOT NULL,
		PRIMARY KEY (tick, commodity)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_balances_commodity ON balances(commodity);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type eventRow struct {
	Tick        uint64 `db:"tick"`
	AtX         int    `db:"at_x"`
	AtY         int    `db:"at_y"`
	Description string `db:"description"`
	Category    string `db:"category"`
}

type balanceRow struct {
	Tick      uint64 `db:"tick"`
	Commodity string `db:"commodity"`
	Required  uint64 `db:"required"`
	Available uint64 `db:"available"`
	InTransit uint64 `db:"in_transit"`
	Used      uint64 `db:"used"`
	Lost      uint64 `db:"lost"`
	Producers int    `db:"producers"`
	Consumers int    `db:"consumers"`
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.NamedExec(
			"INSERT INTO events (tick, at_x, at_y, description, category) VALUES (:tick, :at_x, :at_y, :description, :category)",
			eventRow{Tick: e.Tick, AtX: e.At.X, AtY: e.At.Y, Description: e.Description, Category: e.Category},
		)
		if err != nil {
			return fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
		}
	}

	return tx.Commit()
}

// SaveEvent appends one event. Failures are logged, not returned, so it can
// be used directly as a Simulation.OnEvent hook.
func (db *DB) SaveEvent(e engine.Event) {
	if err := db.SaveEvents([]engine.Event{e}); err != nil {
		slog.Warn("journal event failed", "tick", e.Tick, "error", err)
	}
}

// SaveBalances records the exchange balances as of tick. Saving the same
// tick twice replaces the earlier rows.
func (db *DB) SaveBalances(tick uint64, balances []economy.Balance) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamed(`INSERT OR REPLACE INTO balances
		(tick, commodity, required, available, in_transit, used, lost, producers, consumers)
		VALUES (:tick, :commodity, :required, :available, :in_transit, :used, :lost, :producers, :consumers)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range balances {
		_, err := stmt.Exec(balanceRow{
			Tick:      tick,
			Commodity: b.Commodity,
			Required:  b.Required,
			Available: b.Available,
			InTransit: b.InTransit,
			Used:      b.Used,
			Lost:      b.Lost,
			Producers: b.Producers,
			Consumers: b.Consumers,
		})
		if err != nil {
			return fmt.Errorf("insert balance %s: %w", b.Commodity, err)
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SaveSweep journals one completed sweep: the balances and the tick and
// sweep counters.
func (db *DB) SaveSweep(sim *engine.Simulation) error {
	status := sim.Status()
	balances := sim.Balances()
	slog.Debug("journaling sweep", "tick", status.Tick, "sweep", status.Sweeps, "commodities", len(balances))

	if err := db.SaveBalances(status.Tick, balances); err != nil {
		return fmt.Errorf("save balances: %w", err)
	}
	if err := db.SaveMeta("last_tick", strconv.FormatUint(status.Tick, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("sweeps", strconv.FormatUint(status.Sweeps, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT tick, at_x, at_y, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}

	events := make([]engine.Event, len(rows))
	for i, r := range rows {
		events[i] = engine.Event{
			Tick:        r.Tick,
			At:          world.C(r.AtX, r.AtY),
			Description: r.Description,
			Category:    r.Category,
		}
	}
	return events, nil
}

// BalanceHistory returns the journaled balances of commodity, oldest first,
// limited to the newest limit sweeps.
func (db *DB) BalanceHistory(commodity string, limit int) ([]economy.Balance, []uint64, error) {
	var rows []balanceRow
	err := db.conn.Select(&rows, `SELECT * FROM (
			SELECT tick, commodity, required, available, in_transit, used, lost, producers, consumers
			FROM balances WHERE commodity = ? ORDER BY tick DESC LIMIT ?
		) ORDER BY tick ASC`,
		commodity, limit,
	)
	if err != nil {
		return nil, nil, err
	}

	balances := make([]economy.Balance, len(rows))
	ticks := make([]uint64, len(rows))
	for i, r := range rows {
		ticks[i] = r.Tick
		balances[i] = economy.Balance{
			Commodity: r.Commodity,
			Required:  r.Required,
			Available: r.Available,
			InTransit: r.InTransit,
			Used:      r.Used,
			Lost:      r.Lost,
			Producers: r.Producers,
			Consumers: r.Consumers,
		}
	}
	return balances, ticks, nil
}
