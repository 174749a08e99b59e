// Package persistence archives generated worlds in SQLite.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/worldforge/internal/social"
	"github.com/talgya/worldforge/internal/world"
)

// DB wraps a SQLite connection for the world archive.
type DB struct {
	conn  *sqlx.DB
	codec *gridCodec
}

// Run is one archived generation.
type Run struct {
	ID           string  `db:"id" json:"id"`
	CacheKey     string  `db:"cache_key" json:"cache_key"`
	Seed         int64   `db:"seed" json:"seed"`
	Width        int     `db:"width" json:"width"`
	Height       int     `db:"height" json:"height"`
	SeaLevel     float64 `db:"sea_level" json:"sea_level"`
	Epoch        int     `db:"epoch" json:"epoch"`
	Aggression   float64 `db:"aggression" json:"aggression"`
	Diversity    float64 `db:"diversity" json:"diversity"`
	Magic        float64 `db:"magic" json:"magic"`
	Polities     int     `db:"polities" json:"polities"`
	TerritoryPct float64 `db:"territory_pct" json:"territory_pct"`
	ConflictPct  float64 `db:"conflict_pct" json:"conflict_pct"`
	MeanHealth   float64 `db:"mean_health" json:"mean_health"`
	ParamsJSON   string  `db:"params_json" json:"-"`
	CreatedAt    string  `db:"created_at" json:"created_at"`
}

// Dims returns the run's grid size.
func (r Run) Dims() world.Dims {
	return world.Dims{W: r.Width, H: r.Height}
}

// Params decodes the archived parameter set.
func (r Run) Params() (world.Params, error) {
	var p world.Params
	if err := json.Unmarshal([]byte(r.ParamsJSON), &p); err != nil {
		return p, fmt.Errorf("decode params: %w", err)
	}
	return p, nil
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	codec, err := newGridCodec()
	if err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn, codec: codec}
	if err := db.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.codec.Close()
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		cache_key TEXT NOT NULL,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		sea_level REAL NOT NULL,
		epoch INTEGER NOT NULL,
		aggression REAL NOT NULL,
		diversity REAL NOT NULL,
		magic REAL NOT NULL,
		polities INTEGER NOT NULL,
		territory_pct REAL NOT NULL,
		conflict_pct REAL NOT NULL,
		mean_health REAL NOT NULL,
		params_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS grids (
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		data BLOB NOT NULL,
		PRIMARY KEY (run_id, name)
	);

	CREATE TABLE IF NOT EXISTS cities (
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		name TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		score REAL NOT NULL,
		tier INTEGER NOT NULL,
		PRIMARY KEY (run_id, idx)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		epoch INTEGER NOT NULL,
		category TEXT NOT NULL,
		summary TEXT NOT NULL,
		impact INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_key ON runs(cache_key);
	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, epoch);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveWorld archives a world with its social layer and returns the new run
// id. eco and civ may be nil when only the physical world is wanted.
func (db *DB) SaveWorld(w *world.World, k social.Knobs, eco *social.EcologyResult, civ *social.CivResult) (string, error) {
	id := uuid.NewString()
	k = k.Clamp()
	paramsJSON, err := json.Marshal(w.Params)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}

	run := Run{
		ID:         id,
		CacheKey:   w.Params.CacheKey(),
		Seed:       w.Params.Seed,
		Width:      w.Params.Width,
		Height:     w.Params.Height,
		SeaLevel:   w.Params.SeaLevel,
		Epoch:      k.Epoch,
		Aggression: k.Aggression,
		Diversity:  k.Diversity,
		Magic:      k.Magic,
		ParamsJSON: string(paramsJSON),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if eco != nil {
		run.MeanHealth = eco.MeanHealth
	}
	if civ != nil {
		run.Polities = civ.Stats.PolityCount
		run.TerritoryPct = civ.Stats.TerritoryPct
		run.ConflictPct = civ.Stats.ConflictHeatPct
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`INSERT INTO runs
		(id, cache_key, seed, width, height, sea_level, epoch, aggression, diversity, magic,
		 polities, territory_pct, conflict_pct, mean_health, params_json, created_at)
		VALUES (:id, :cache_key, :seed, :width, :height, :sea_level, :epoch, :aggression, :diversity, :magic,
		 :polities, :territory_pct, :conflict_pct, :mean_health, :params_json, :created_at)`, run)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	grids := worldGrids(w, eco, civ)
	names := make([]string, 0, len(grids))
	for name := range grids {
		names = append(names, name)
	}
	sort.Strings(names)
	stored := 0
	for _, name := range names {
		blob := db.codec.encode(grids[name])
		stored += len(blob)
		if _, err := tx.Exec("INSERT INTO grids (run_id, name, data) VALUES (?, ?, ?)", id, name, blob); err != nil {
			return "", fmt.Errorf("insert grid %s: %w", name, err)
		}
	}

	for i, c := range w.Cities {
		_, err := tx.Exec(`INSERT INTO cities (run_id, idx, name, x, y, score, tier)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, id, i, c.Name, c.X, c.Y, c.Score, int(c.Tier))
		if err != nil {
			return "", fmt.Errorf("insert city %s: %w", c.Name, err)
		}
	}

	if civ != nil {
		for _, e := range civ.Events {
			_, err := tx.Exec("INSERT INTO events (run_id, epoch, category, summary, impact) VALUES (?, ?, ?, ?, ?)",
				id, e.Epoch, string(e.Category), e.Summary, e.Impact)
			if err != nil {
				return "", err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("world archived", "run", id, "key", run.CacheKey, "grids", len(names), "bytes", stored)
	return id, nil
}

// MetaLastRun is the metadata key holding the most recent archived run id.
const MetaLastRun = "last_run"

// Archive stores the world and its social layer unless a complete run with
// the same key and knobs already exists, and records the id under
// MetaLastRun. reused reports whether an existing run was returned.
func (db *DB) Archive(w *world.World, k social.Knobs, eco *social.EcologyResult, civ *social.CivResult) (id string, reused bool, err error) {
	k = k.Clamp()
	runs, err := db.FindByKey(w.Params.CacheKey())
	if err != nil {
		return "", false, fmt.Errorf("find runs: %w", err)
	}
	for _, r := range runs {
		if r.Epoch != k.Epoch || r.Aggression != k.Aggression || r.Diversity != k.Diversity || r.Magic != k.Magic {
			continue
		}
		names, err := db.GridNames(r.ID)
		if err != nil {
			return "", false, fmt.Errorf("grids of %s: %w", r.ID, err)
		}
		if slices.Contains(names, "influence") {
			id, reused = r.ID, true
			break
		}
	}
	if !reused {
		if id, err = db.SaveWorld(w, k, eco, civ); err != nil {
			return "", false, err
		}
	}
	if err := db.SaveMeta(MetaLastRun, id); err != nil {
		slog.Warn("failed to record last run", "error", err)
	}
	return id, reused, nil
}

// Run loads one run by id.
func (db *DB) Run(id string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT * FROM runs WHERE id = ?", id)
	if err != nil {
		return r, fmt.Errorf("run %s: %w", id, err)
	}
	return r, nil
}

// FindByKey returns every run with the given reproducibility key, newest
// first.
func (db *DB) FindByKey(key string) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT * FROM runs WHERE cache_key = ? ORDER BY created_at DESC, rowid DESC", key)
	return runs, err
}

// GridNames lists the grids stored for a run.
func (db *DB) GridNames(id string) ([]string, error) {
	var names []string
	err := db.conn.Select(&names, "SELECT name FROM grids WHERE run_id = ? ORDER BY name", id)
	return names, err
}

// LoadGrid returns a stored grid as a flat float32 array.
func (db *DB) LoadGrid(id, name string) (world.Dims, []float32, error) {
	r, err := db.Run(id)
	if err != nil {
		return world.Dims{}, nil, err
	}
	var blob []byte
	if err := db.conn.Get(&blob, "SELECT data FROM grids WHERE run_id = ? AND name = ?", id, name); err != nil {
		return world.Dims{}, nil, fmt.Errorf("grid %s: %w", name, err)
	}
	data, err := db.codec.decode(blob, r.Width*r.Height)
	if err != nil {
		return world.Dims{}, nil, fmt.Errorf("grid %s: %w", name, err)
	}
	return r.Dims(), data, nil
}

// Events returns a run's timeline in epoch order.
func (db *DB) Events(id string) ([]social.EpochEvent, error) {
	var rows []struct {
		Epoch    int    `db:"epoch"`
		Category string `db:"category"`
		Summary  string `db:"summary"`
		Impact   int    `db:"impact"`
	}
	err := db.conn.Select(&rows,
		"SELECT epoch, category, summary, impact FROM events WHERE run_id = ? ORDER BY epoch, id", id)
	if err != nil {
		return nil, err
	}
	events := make([]social.EpochEvent, len(rows))
	for i, r := range rows {
		events[i] = social.EpochEvent{
			Epoch:    r.Epoch,
			Category: social.EventCategory(r.Category),
			Summary:  r.Summary,
			Impact:   r.Impact,
		}
	}
	return events, nil
}

// Cities returns a run's city list in placement order.
func (db *DB) Cities(id string) ([]world.CityInfo, error) {
	var rows []struct {
		Name  string  `db:"name"`
		X     int     `db:"x"`
		Y     int     `db:"y"`
		Score float64 `db:"score"`
		Tier  int     `db:"tier"`
	}
	err := db.conn.Select(&rows, "SELECT name, x, y, score, tier FROM cities WHERE run_id = ? ORDER BY idx", id)
	if err != nil {
		return nil, err
	}
	cities := make([]world.CityInfo, len(rows))
	for i, r := range rows {
		cities[i] = world.CityInfo{X: r.X, Y: r.Y, Score: r.Score, Tier: world.PopulationTier(r.Tier), Name: r.Name}
	}
	return cities, nil
}

// SaveMeta stores a key-value pair in archive metadata.
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
