// Package store persists players, markers, mission states, positions and
// world events in SQLite.
//
// REP is only ever applied as an increment (rep = rep + ?), so concurrent
// drops by the same player commute. Mission states and world events are JSONB
// documents with last-write-wins semantics.
package store

import (
	"cmp"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/streetrep/internal/geo"
	"github.com/playperu/streetrep/internal/leaderboard"
	"github.com/playperu/streetrep/internal/mission"
	"github.com/playperu/streetrep/internal/streetrep"
	"github.com/playperu/streetrep/internal/worldevent"
)

var (
	// ErrNotFound is returned for missing rows.
	ErrNotFound = streetrep.ErrNotFound
	// ErrConflict is returned when writing over a solved event.
	ErrConflict = streetrep.ErrConflict
)

type Player struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Token      string          `json:"-"`
	Rep        int             `json:"rep"`
	Streak     int             `json:"streak"`
	LastDropAt *time.Time      `json:"lastDropAt,omitempty"`
	Home       *geo.Coordinate `json:"home,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type Marker struct {
	ID        string         `json:"id"`
	PlayerID  string         `json:"playerId"`
	At        geo.Coordinate `json:"at"`
	SurfaceID string         `json:"surfaceId"`
	StyleID   string         `json:"styleId"`
	Rep       int            `json:"rep"`
	Hidden    bool           `json:"hidden"`
	CreatedAt time.Time      `json:"createdAt"`
}

type Position struct {
	PlayerID  string
	At        geo.Coordinate
	UpdatedAt time.Time
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreatePlayer registers a player and issues the bearer token they use from
// then on.
func (s *Store) CreatePlayer(ctx context.Context, name string, home *geo.Coordinate, now time.Time) (Player, error) {
	p := Player{
		ID:        uuid.NewString(),
		Name:      name,
		Token:     newToken(),
		Home:      home,
		CreatedAt: now.UTC(),
	}
	var lat, lng sql.NullFloat64
	if home != nil {
		lat = sql.NullFloat64{Float64: home.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: home.Lng, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, name, token, home_lat, home_lng, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Token, lat, lng, formatTime(p.CreatedAt),
	)
	if err != nil {
		return Player{}, fmt.Errorf("inserting player: %w", err)
	}
	return p, nil
}

const playerColumns = `id, name, token, rep, streak, last_drop_at, home_lat, home_lng, created_at`

func (s *Store) Player(ctx context.Context, id string) (Player, error) {
	return scanPlayer(s.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, id))
}

func (s *Store) PlayerByToken(ctx context.Context, token string) (Player, error) {
	return scanPlayer(s.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE token = ?`, token))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (Player, error) {
	var (
		p        Player
		lastDrop sql.NullString
		lat, lng sql.NullFloat64
		created  string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Token, &p.Rep, &p.Streak, &lastDrop, &lat, &lng, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, fmt.Errorf("player: %w", ErrNotFound)
	}
	if err != nil {
		return Player{}, fmt.Errorf("scanning player: %w", err)
	}
	if lastDrop.Valid {
		t, err := parseTime(lastDrop.String)
		if err != nil {
			return Player{}, err
		}
		p.LastDropAt = &t
	}
	if lat.Valid && lng.Valid {
		p.Home = &geo.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return Player{}, err
	}
	return p, nil
}

// RecordDrop inserts m and credits its REP to the owner in one transaction,
// updating the drop streak. m.ID is assigned when empty. The returned player
// reflects the new totals.
func (s *Store) RecordDrop(ctx context.Context, m Marker, streak int) (Marker, Player, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = m.CreatedAt.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Marker{}, Player{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE players SET rep = rep + ?, streak = ?, last_drop_at = ? WHERE id = ?`,
		m.Rep, streak, formatTime(m.CreatedAt), m.PlayerID,
	)
	if err != nil {
		return Marker{}, Player{}, fmt.Errorf("crediting rep: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Marker{}, Player{}, fmt.Errorf("player %s: %w", m.PlayerID, ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO markers (id, player_id, lat, lng, surface, style, rep, hidden, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		m.ID, m.PlayerID, m.At.Lat, m.At.Lng, m.SurfaceID, m.StyleID, m.Rep, formatTime(m.CreatedAt),
	)
	if err != nil {
		return Marker{}, Player{}, fmt.Errorf("inserting marker: %w", err)
	}

	p, err := scanPlayer(tx.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, m.PlayerID))
	if err != nil {
		return Marker{}, Player{}, err
	}

	if err := tx.Commit(); err != nil {
		return Marker{}, Player{}, fmt.Errorf("committing drop: %w", err)
	}
	return m, p, nil
}

// AddRep credits delta REP to a player. delta must be non-negative.
func (s *Store) AddRep(ctx context.Context, playerID string, delta int) (Player, error) {
	if delta < 0 {
		return Player{}, fmt.Errorf("rep delta %d: %w", delta, streetrep.ErrInvalidArgument)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE players SET rep = rep + ? WHERE id = ?`, delta, playerID)
	if err != nil {
		return Player{}, fmt.Errorf("crediting rep: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Player{}, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	return s.Player(ctx, playerID)
}

// TopPlayers ranks players by REP, ties broken by who got there first.
func (s *Store) TopPlayers(ctx context.Context, n int) ([]leaderboard.Standing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, rep FROM players ORDER BY rep DESC, created_at ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	out := []leaderboard.Standing{}
	for rows.Next() {
		st := leaderboard.Standing{Position: len(out) + 1}
		if err := rows.Scan(&st.PlayerID, &st.Name, &st.Rep); err != nil {
			return nil, fmt.Errorf("scanning standing: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// --- Positions ---

func (s *Store) PutPosition(ctx context.Context, p Position) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO positions (player_id, lat, lng, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET lat = excluded.lat, lng = excluded.lng, updated_at = excluded.updated_at`,
		p.PlayerID, p.At.Lat, p.At.Lng, formatTime(p.UpdatedAt.UTC()),
	)
	if err != nil {
		return fmt.Errorf("saving position: %w", err)
	}
	return nil
}

// RecentPositions returns positions reported at or after since.
func (s *Store) RecentPositions(ctx context.Context, since time.Time) ([]Position, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, lat, lng, updated_at FROM positions WHERE updated_at >= ? ORDER BY player_id`,
		formatTime(since.UTC()),
	)
	if err != nil {
		return nil, fmt.Errorf("querying positions: %w", err)
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var (
			p       Position
			updated string
		)
		if err := rows.Scan(&p.PlayerID, &p.At.Lat, &p.At.Lng, &updated); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		if p.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- Markers ---

const markerColumns = `id, player_id, lat, lng, surface, style, rep, hidden, created_at`

func scanMarker(row rowScanner) (Marker, error) {
	var (
		m       Marker
		created string
	)
	err := row.Scan(&m.ID, &m.PlayerID, &m.At.Lat, &m.At.Lng, &m.SurfaceID, &m.StyleID, &m.Rep, &m.Hidden, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Marker{}, fmt.Errorf("marker: %w", ErrNotFound)
	}
	if err != nil {
		return Marker{}, fmt.Errorf("scanning marker: %w", err)
	}
	if m.CreatedAt, err = parseTime(created); err != nil {
		return Marker{}, err
	}
	return m, nil
}

func (s *Store) Marker(ctx context.Context, id string) (Marker, error) {
	return scanMarker(s.db.QueryRowContext(ctx,
		`SELECT `+markerColumns+` FROM markers WHERE id = ?`, id))
}

// NearbyMarkers returns visible markers within meters of center, nearest
// first. A bounding box narrows the scan before the exact distance check.
func (s *Store) NearbyMarkers(ctx context.Context, center geo.Coordinate, meters float64) ([]Marker, error) {
	box := geo.Bounds(center, meters)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+markerColumns+` FROM markers
		 WHERE hidden = 0 AND lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?`,
		box.MinLat, box.MaxLat, box.MinLng, box.MaxLng,
	)
	if err != nil {
		return nil, fmt.Errorf("querying markers: %w", err)
	}
	defer rows.Close()

	type hit struct {
		m Marker
		d float64
	}
	var hits []hit
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, err
		}
		if d := geo.Distance(center, m.At); d <= meters {
			hits = append(hits, hit{m, d})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(hits, func(a, b hit) int { return cmp.Compare(a.d, b.d) })
	out := make([]Marker, len(hits))
	for i, h := range hits {
		out[i] = h.m
	}
	return out, nil
}

// --- Mission states ---

// MissionStates returns the stored states for a player keyed by mission id.
func (s *Store) MissionStates(ctx context.Context, playerID string) (map[string]mission.State, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM mission_states WHERE player_id = ?`, playerID)
	if err != nil {
		return nil, fmt.Errorf("querying mission states: %w", err)
	}
	defer rows.Close()

	out := make(map[string]mission.State)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning mission state: %w", err)
		}
		var st mission.State
		if err := json.Unmarshal([]byte(data), &st); err != nil {
			return nil, fmt.Errorf("decoding mission state: %w", err)
		}
		out[st.MissionID] = st
	}
	return out, rows.Err()
}

// PutMissionStates upserts states for a player in one transaction.
func (s *Store) PutMissionStates(ctx context.Context, playerID string, states ...mission.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, st := range states {
		data, err := json.Marshal(st)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO mission_states (player_id, mission_id, status, data) VALUES (?, ?, ?, jsonb(?))
			 ON CONFLICT(player_id, mission_id) DO UPDATE SET status = excluded.status, data = excluded.data`,
			playerID, st.MissionID, string(st.Status), string(data),
		)
		if err != nil {
			return fmt.Errorf("saving mission %s: %w", st.MissionID, err)
		}
	}
	return tx.Commit()
}

// --- World events ---

// CreateEvent stores a new blackout, assigning its ID, and hides the target
// marker so it cannot be picked again.
func (s *Store) CreateEvent(ctx context.Context, e worldevent.Event) (worldevent.Event, error) {
	e.ID = uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return worldevent.Event{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE markers SET hidden = 1 WHERE id = ? AND hidden = 0`, e.MarkerID)
	if err != nil {
		return worldevent.Event{}, fmt.Errorf("hiding marker: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return worldevent.Event{}, fmt.Errorf("visible marker %s: %w", e.MarkerID, ErrNotFound)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return worldevent.Event{}, err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO world_events (id, marker_id, status, created_at, data) VALUES (?, ?, ?, ?, jsonb(?))`,
		e.ID, e.MarkerID, string(e.Status), formatTime(e.DisappearedAt.UTC()), string(data),
	)
	if err != nil {
		return worldevent.Event{}, fmt.Errorf("inserting event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return worldevent.Event{}, fmt.Errorf("committing event: %w", err)
	}
	return e, nil
}

func (s *Store) Event(ctx context.Context, id string) (worldevent.Event, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT json(data) FROM world_events WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return worldevent.Event{}, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return worldevent.Event{}, fmt.Errorf("loading event: %w", err)
	}
	var e worldevent.Event
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return worldevent.Event{}, fmt.Errorf("decoding event: %w", err)
	}
	return e, nil
}

// PutEvent overwrites an event that is still unsolved. Writing over a
// solved event fails with ErrConflict, so a stale copy never re-opens it.
func (s *Store) PutEvent(ctx context.Context, e worldevent.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM world_events WHERE id = ?`, e.ID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("event %s: %w", e.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("loading event status: %w", err)
	}
	if status != string(worldevent.StatusUnsolved) {
		return fmt.Errorf("event %s is %s: %w", e.ID, status, ErrConflict)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE world_events SET status = ?, data = jsonb(?) WHERE id = ? AND status = ?`,
		string(e.Status), string(data), e.ID, string(worldevent.StatusUnsolved),
	)
	if err != nil {
		return fmt.Errorf("saving event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing event: %w", err)
	}
	return nil
}

// Events lists events, unsolved first and newest first within a status.
func (s *Store) Events(ctx context.Context, limit int) ([]worldevent.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM world_events
		 ORDER BY CASE status WHEN 'unsolved' THEN 0 ELSE 1 END, created_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	out := []worldevent.Event{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		var e worldevent.Event
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("decoding event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- helpers ---

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts the stored layout and the RFC 3339 text the driver
// hands back, which drops trailing zero fractions.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

func newToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
