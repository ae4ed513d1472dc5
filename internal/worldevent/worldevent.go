// Package worldevent samples "blackout" disappearances of nearby markers and
// tracks their investigation.
//
// The scheduler owns no timer. Callers invoke Tick at their own cadence and
// inject the random source, so a test can drive it deterministically.
package worldevent

import (
	"fmt"
	"slices"
	"time"

	"github.com/playperu/streetrep/internal/geo"
	"github.com/playperu/streetrep/internal/streetrep"
)

// Status is a world event's resolution state.
type Status string

const (
	StatusUnsolved Status = "unsolved"
	StatusSolved   Status = "solved"
)

// Source is the random source Tick draws from. *math/rand/v2.Rand
// satisfies it.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// Marker is a candidate target: a placed marker and where it is.
type Marker struct {
	ID string
	At geo.Coordinate
}

// Event is a blackout: a marker that vanished and the investigation around it.
type Event struct {
	ID            string    `json:"id"`
	MarkerID      string    `json:"markerId"`
	DisappearedAt time.Time `json:"disappearedAt"`
	Clue          string    `json:"clue"`
	// Investigators is kept sorted and free of duplicates.
	Investigators []string   `json:"investigators"`
	Status        Status     `json:"status"`
	SolvedBy      string     `json:"solvedBy,omitempty"`
	SolvedAt      *time.Time `json:"solvedAt,omitempty"`
}

// Config tunes the scheduler.
type Config struct {
	// Probability is the chance, per Tick, that a blackout is attempted.
	Probability float64
	// Radius, in meters, limits targets to markers near the player.
	Radius float64
	Clues  []string
}

// defaultClues is the narrative clue catalog.
var defaultClues = []string{
	"Fresh grey paint, still tacky. Someone buffed it within the hour.",
	"A torn sticker on the lamppost: a crown with three points.",
	"Footprints in silver dust lead toward the train yard.",
	"A shopkeeper saw a white van idling here before dawn.",
	"The wall smells of solvent. Whoever did this came prepared.",
	"Someone left a single black marker cap behind.",
}

// DefaultConfig returns a 1% chance per tick within 1000 m.
func DefaultConfig() Config {
	return Config{
		Probability: 0.01,
		Radius:      1000,
		Clues:       slices.Clone(defaultClues),
	}
}

// Scheduler decides when a blackout happens and which marker it takes.
type Scheduler struct {
	cfg Config
}

// New validates cfg and returns a scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Probability < 0 || cfg.Probability > 1 {
		return nil, fmt.Errorf("blackout probability %v outside [0, 1]: %w", cfg.Probability, streetrep.ErrInvalidArgument)
	}
	if cfg.Radius <= 0 {
		return nil, fmt.Errorf("blackout radius %v must be positive: %w", cfg.Radius, streetrep.ErrInvalidArgument)
	}
	if len(cfg.Clues) == 0 {
		return nil, fmt.Errorf("blackout clue catalog is empty: %w", streetrep.ErrInvalidArgument)
	}
	cfg.Clues = slices.Clone(cfg.Clues)
	return &Scheduler{cfg: cfg}, nil
}

// Tick draws one sample from rnd. When it falls below the configured
// probability and at least one marker lies within the radius of pos, Tick
// returns a new unsolved event for a uniformly chosen marker with a uniformly
// chosen clue. The returned event has no ID; the caller assigns one when
// persisting it.
func (s *Scheduler) Tick(now time.Time, pos geo.Coordinate, markers []Marker, rnd Source) (Event, bool) {
	if rnd.Float64() >= s.cfg.Probability {
		return Event{}, false
	}

	var nearby []Marker
	for _, m := range markers {
		if geo.Distance(pos, m.At) <= s.cfg.Radius {
			nearby = append(nearby, m)
		}
	}
	if len(nearby) == 0 {
		return Event{}, false
	}

	target := nearby[rnd.IntN(len(nearby))]
	clue := s.cfg.Clues[rnd.IntN(len(s.cfg.Clues))]

	return Event{
		MarkerID:      target.ID,
		DisappearedAt: now,
		Clue:          clue,
		Investigators: []string{},
		Status:        StatusUnsolved,
	}, true
}

// Radius returns the configured search radius in meters.
func (s *Scheduler) Radius() float64 {
	return s.cfg.Radius
}

// Investigate adds playerID to the event's investigators. Solved events are
// returned unchanged.
func Investigate(e Event, playerID string) (Event, error) {
	if playerID == "" {
		return e, fmt.Errorf("empty investigator id: %w", streetrep.ErrInvalidArgument)
	}
	if e.Status == StatusSolved {
		return e, nil
	}
	i, found := slices.BinarySearch(e.Investigators, playerID)
	if found {
		return e, nil
	}
	e.Investigators = slices.Insert(slices.Clone(e.Investigators), i, playerID)
	return e, nil
}

// Resolve marks the event solved by solverID at now. Resolving a solved
// event returns it unchanged.
func Resolve(e Event, solverID string, now time.Time) (Event, error) {
	if e.Status == StatusSolved {
		return e, nil
	}
	if solverID == "" {
		return e, fmt.Errorf("empty solver id: %w", streetrep.ErrInvalidArgument)
	}
	e.Status = StatusSolved
	e.SolvedBy = solverID
	e.SolvedAt = &now
	e.Investigators = slices.Clone(e.Investigators)
	return e, nil
}
