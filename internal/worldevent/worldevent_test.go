package worldevent

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"
	"time"

	"github.com/playperu/streetrep/internal/geo"
	"github.com/playperu/streetrep/internal/streetrep"
)

// fixedSource returns the same draw every time and picks index pick.
type fixedSource struct {
	draw float64
	pick int
}

func (f fixedSource) Float64() float64 { return f.draw }
func (f fixedSource) IntN(n int) int   { return f.pick % n }

var (
	plaza = geo.Coordinate{Lat: -12.0464, Lng: -77.0428}
	now   = time.Date(2026, 10, 1, 3, 15, 0, 0, time.UTC)
)

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func markersAround(center geo.Coordinate, distances ...float64) []Marker {
	out := make([]Marker, len(distances))
	for i, d := range distances {
		out[i] = Marker{ID: string(rune('a' + i)), At: geo.Destination(center, float64(i*40), d)}
	}
	return out
}

func TestTickAboveProbabilityNeverFires(t *testing.T) {
	s := newScheduler(t)
	sets := [][]Marker{
		nil,
		markersAround(plaza, 5),
		markersAround(plaza, 5, 10, 20, 900),
	}
	for _, draw := range []float64{0.01, 0.5, 0.999} {
		for _, markers := range sets {
			if _, ok := s.Tick(now, plaza, markers, fixedSource{draw: draw}); ok {
				t.Fatalf("draw %.3f with %d markers produced an event", draw, len(markers))
			}
		}
	}
}

func TestTickBelowProbabilityWithoutMarkers(t *testing.T) {
	s := newScheduler(t)
	if _, ok := s.Tick(now, plaza, nil, fixedSource{draw: 0}); ok {
		t.Fatal("expected no event for an empty marker set")
	}
	far := markersAround(plaza, 1500, 5000)
	if _, ok := s.Tick(now, plaza, far, fixedSource{draw: 0}); ok {
		t.Fatal("expected no event when every marker is outside the radius")
	}
}

func TestTickPicksNearbyMarker(t *testing.T) {
	s := newScheduler(t)
	markers := markersAround(plaza, 3000, 200, 800, 5000)

	for pick := 0; pick < 4; pick++ {
		e, ok := s.Tick(now, plaza, markers, fixedSource{draw: 0.005, pick: pick})
		if !ok {
			t.Fatalf("pick %d: expected an event", pick)
		}
		if e.MarkerID != "b" && e.MarkerID != "c" {
			t.Errorf("pick %d: target %q is outside the radius", pick, e.MarkerID)
		}
		if e.Status != StatusUnsolved || len(e.Investigators) != 0 || e.Investigators == nil {
			t.Errorf("pick %d: new event = %+v", pick, e)
		}
		if !e.DisappearedAt.Equal(now) {
			t.Errorf("DisappearedAt = %v, want %v", e.DisappearedAt, now)
		}
		if e.Clue == "" {
			t.Error("expected a clue")
		}
	}
}

func TestTickSeededSourceIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Probability = 0.5
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	markers := markersAround(plaza, 10, 20, 30, 40, 50)

	run := func() []Event {
		rnd := rand.New(rand.NewPCG(42, 7))
		var out []Event
		for i := 0; i < 200; i++ {
			if e, ok := s.Tick(now, plaza, markers, rnd); ok {
				out = append(out, e)
			}
		}
		return out
	}

	a, b := run(), run()
	if len(a) == 0 {
		t.Fatal("expected some events at probability 0.5")
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different events")
	}
}

func TestInvestigate(t *testing.T) {
	e := Event{Status: StatusUnsolved, Investigators: []string{}}

	e, _ = Investigate(e, "zoe")
	e, _ = Investigate(e, "ana")
	e, _ = Investigate(e, "zoe")
	if !reflect.DeepEqual(e.Investigators, []string{"ana", "zoe"}) {
		t.Errorf("Investigators = %v", e.Investigators)
	}

	if _, err := Investigate(e, ""); !errors.Is(err, streetrep.ErrInvalidArgument) {
		t.Errorf("empty investigator err = %v", err)
	}

	solved, _ := Resolve(e, "ana", now)
	after, _ := Investigate(solved, "max")
	if !reflect.DeepEqual(after, solved) {
		t.Errorf("investigating a solved event changed it: %+v", after)
	}
}

func TestResolveIsTerminalAndIdempotent(t *testing.T) {
	e := Event{MarkerID: "m1", Status: StatusUnsolved, Investigators: []string{"ana"}}

	solved, err := Resolve(e, "ana", now)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if solved.Status != StatusSolved || solved.SolvedBy != "ana" || solved.SolvedAt == nil || !solved.SolvedAt.Equal(now) {
		t.Fatalf("solved = %+v", solved)
	}
	if e.Status != StatusUnsolved {
		t.Error("Resolve mutated its input")
	}

	again, err := Resolve(solved, "bob", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if !reflect.DeepEqual(again, solved) {
		t.Errorf("second Resolve changed the event: %+v", again)
	}

	if _, err := Resolve(e, "", now); !errors.Is(err, streetrep.ErrInvalidArgument) {
		t.Errorf("empty solver err = %v", err)
	}

	noSolver, err := Resolve(solved, "", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("resolving a solved event without a solver: %v", err)
	}
	if !reflect.DeepEqual(noSolver, solved) {
		t.Errorf("solved event changed: %+v", noSolver)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"probability above one", Config{Probability: 1.5, Radius: 1000, Clues: defaultClues}},
		{"negative probability", Config{Probability: -0.1, Radius: 1000, Clues: defaultClues}},
		{"zero radius", Config{Probability: 0.01, Clues: defaultClues}},
		{"no clues", Config{Probability: 0.01, Radius: 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); !errors.Is(err, streetrep.ErrInvalidArgument) {
				t.Fatalf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}
