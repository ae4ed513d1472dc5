package mission

import (
	"errors"
	"reflect"
	"testing"

	"github.com/playperu/streetrep/internal/geo"
	"github.com/playperu/streetrep/internal/streetrep"
)

var lima = geo.Coordinate{Lat: -12.0464, Lng: -77.0428}

func none(string) bool { return false }

func completedSet(ids ...string) func(string) bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(id string) bool { return set[id] }
}

func mustStart(t *testing.T, c *Catalog, id string, completed func(string) bool) State {
	t.Helper()
	s, err := c.Start(id, completed)
	if err != nil {
		t.Fatalf("Start(%q): %v", id, err)
	}
	return s
}

func mustAdvance(t *testing.T, c *Catalog, s State, a Action) Result {
	t.Helper()
	res, err := Advance(s, a, c)
	if err != nil {
		t.Fatalf("Advance(%s, %T): %v", s.MissionID, a, err)
	}
	return res
}

func TestStartRespectsPredecessors(t *testing.T) {
	c := Default()

	if s := mustStart(t, c, "first-drop", none); s.Status != StatusActive {
		t.Errorf("first-drop status = %s, want active", s.Status)
	}
	if s := mustStart(t, c, "getting-up", none); s.Status != StatusLocked {
		t.Errorf("getting-up status = %s, want locked", s.Status)
	}
	if s := mustStart(t, c, "blackout", completedSet("the-yard")); s.Status != StatusLocked {
		t.Errorf("blackout with one of two predecessors = %s, want locked", s.Status)
	}
	if s := mustStart(t, c, "blackout", completedSet("the-yard", "crew-up")); s.Status != StatusActive {
		t.Errorf("blackout with predecessors = %s, want active", s.Status)
	}
	if _, err := c.Start("nope", none); !errors.Is(err, streetrep.ErrNotFound) {
		t.Errorf("Start(nope) err = %v, want ErrNotFound", err)
	}
}

func TestAdvanceCompletesAndRewardsOnce(t *testing.T) {
	c := Default()
	s := mustStart(t, c, "first-drop", none)

	res := mustAdvance(t, c, s, PlaceMarker{SurfaceID: "wall", StyleID: "tag", At: lima})
	if res.State.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", res.State.Status)
	}
	if res.Reward == nil || res.Reward.Rep != 10 {
		t.Fatalf("reward = %+v, want 10 REP", res.Reward)
	}

	again := mustAdvance(t, c, res.State, PlaceMarker{SurfaceID: "wall"})
	if again.Reward != nil {
		t.Errorf("reward granted twice: %+v", again.Reward)
	}
	if !reflect.DeepEqual(again.State, res.State) {
		t.Errorf("completed state changed: %+v -> %+v", res.State, again.State)
	}
}

func TestAdvanceCompletedIsNoOpForEveryAction(t *testing.T) {
	c := Default()
	s := State{MissionID: "the-yard", Counts: map[string]int{"reach": 1, "hit": 1}, Status: StatusCompleted}

	actions := []Action{
		PlaceMarker{SurfaceID: "train"},
		TakePhoto{Subject: "anything"},
		ReachLocation{LocationID: LocationTrainYard},
		Collaborate{PartnerID: "p2"},
	}
	for _, a := range actions {
		res := mustAdvance(t, c, s, a)
		if res.Reward != nil || !reflect.DeepEqual(res.State, s) {
			t.Errorf("%T changed a completed mission: %+v", a, res)
		}
	}
}

func TestAdvanceLockedIsNoOp(t *testing.T) {
	c := Default()
	s := mustStart(t, c, "getting-up", none)

	res := mustAdvance(t, c, s, PlaceMarker{SurfaceID: "wall"})
	if res.State.Status != StatusLocked || res.State.Counts["drops"] != 0 {
		t.Errorf("locked mission advanced: %+v", res.State)
	}
}

func TestAdvanceClampsAtRequired(t *testing.T) {
	c, err := NewCatalog(Definition{
		ID: "spree",
		Objectives: []Objective{
			{ID: "drops", Type: ActionPlaceMarker, Required: 3},
			{ID: "photo", Type: ActionTakePhoto, Required: 1},
		},
		Reward: Reward{Rep: 5},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	s := mustStart(t, c, "spree", none)
	for i := 0; i < 10; i++ {
		s = mustAdvance(t, c, s, PlaceMarker{SurfaceID: "wall"}).State
		if s.Counts["drops"] > 3 {
			t.Fatalf("after %d drops count = %d exceeds required", i+1, s.Counts["drops"])
		}
	}
	if s.Counts["drops"] != 3 || s.Status != StatusActive {
		t.Fatalf("state = %+v, want drops=3 active", s)
	}

	res := mustAdvance(t, c, s, TakePhoto{Subject: "piece"})
	if res.State.Status != StatusCompleted || res.Reward == nil {
		t.Fatalf("expected completion after photo, got %+v", res)
	}
}

func TestAdvanceMatchesTargets(t *testing.T) {
	c := Default()
	s := mustStart(t, c, "the-yard", completedSet("getting-up"))

	s = mustAdvance(t, c, s, PlaceMarker{SurfaceID: "wall"}).State
	if s.Counts["hit"] != 0 {
		t.Errorf("wall drop counted toward train objective")
	}
	s = mustAdvance(t, c, s, ReachLocation{LocationID: "mall"}).State
	if s.Counts["reach"] != 0 {
		t.Errorf("wrong location counted")
	}

	s = mustAdvance(t, c, s, ReachLocation{LocationID: LocationTrainYard, At: lima}).State
	res := mustAdvance(t, c, s, PlaceMarker{SurfaceID: "train", StyleID: "piece"})
	if res.State.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", res.State.Status)
	}
	if res.Reward == nil || !reflect.DeepEqual(res.Reward.Unlocks, []string{"style:wildstyle"}) {
		t.Errorf("reward = %+v", res.Reward)
	}
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	c := Default()
	s := mustStart(t, c, "getting-up", completedSet("first-drop"))
	before := map[string]int{"drops": 0}

	_ = mustAdvance(t, c, s, PlaceMarker{SurfaceID: "wall"})
	if !reflect.DeepEqual(s.Counts, before) {
		t.Errorf("input counts mutated: %v", s.Counts)
	}
}

func TestAdvanceCommutes(t *testing.T) {
	c := Default()
	start := mustStart(t, c, "the-yard", completedSet("getting-up"))
	a1 := ReachLocation{LocationID: LocationTrainYard}
	a2 := PlaceMarker{SurfaceID: "train"}

	ab := mustAdvance(t, c, mustAdvance(t, c, start, a1).State, a2)
	ba := mustAdvance(t, c, mustAdvance(t, c, start, a2).State, a1)
	if !reflect.DeepEqual(ab.State, ba.State) {
		t.Errorf("order changed result: %+v vs %+v", ab.State, ba.State)
	}
}

func TestAdvanceErrors(t *testing.T) {
	c := Default()

	if _, err := Advance(State{MissionID: "ghost", Status: StatusActive}, TakePhoto{}, c); !errors.Is(err, streetrep.ErrNotFound) {
		t.Errorf("unknown mission err = %v, want ErrNotFound", err)
	}

	bad := State{MissionID: "first-drop", Counts: map[string]int{"mystery": 1}, Status: StatusActive}
	if _, err := Advance(bad, PlaceMarker{}, c); !errors.Is(err, streetrep.ErrNotFound) {
		t.Errorf("unknown objective err = %v, want ErrNotFound", err)
	}

	s := mustStart(t, c, "first-drop", none)
	if _, err := Advance(s, nil, c); !errors.Is(err, streetrep.ErrInvalidArgument) {
		t.Errorf("nil action err = %v, want ErrInvalidArgument", err)
	}
}

func TestActivate(t *testing.T) {
	c := Default()
	s := mustStart(t, c, "crew-up", none)

	still, err := Activate(s, c, completedSet("first-drop"))
	if err != nil || still.Status != StatusLocked {
		t.Fatalf("Activate without getting-up = %s, %v", still.Status, err)
	}
	active, err := Activate(s, c, completedSet("getting-up"))
	if err != nil || active.Status != StatusActive {
		t.Fatalf("Activate with getting-up = %s, %v", active.Status, err)
	}

	done := State{MissionID: "crew-up", Status: StatusCompleted}
	if got, _ := Activate(done, c, none); got.Status != StatusCompleted {
		t.Errorf("Activate regressed a completed mission to %s", got.Status)
	}
}

func TestReconcile(t *testing.T) {
	c := Default()
	states := map[string]State{
		"first-drop": {MissionID: "first-drop", Counts: map[string]int{"drop": 1}, Status: StatusCompleted},
		"getting-up": {MissionID: "getting-up", Counts: map[string]int{"drops": 0}, Status: StatusLocked},
	}

	got, err := Reconcile(c, states)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(got) != len(c.Definitions()) {
		t.Fatalf("got %d states, want %d", len(got), len(c.Definitions()))
	}

	want := map[string]Status{
		"first-drop": StatusCompleted,
		"getting-up": StatusActive,
		"flick":      StatusActive,
		"the-yard":   StatusLocked,
		"crew-up":    StatusLocked,
		"blackout":   StatusLocked,
	}
	for _, s := range got {
		if s.Status != want[s.MissionID] {
			t.Errorf("%s = %s, want %s", s.MissionID, s.Status, want[s.MissionID])
		}
	}
}

func TestSuccessors(t *testing.T) {
	c := Default()
	if got := c.Successors("getting-up"); !reflect.DeepEqual(got, []string{"the-yard", "crew-up"}) {
		t.Errorf("Successors(getting-up) = %v", got)
	}
	if got := c.Successors("blackout"); len(got) != 0 {
		t.Errorf("Successors(blackout) = %v, want none", got)
	}
}

func TestNewCatalogValidation(t *testing.T) {
	obj := []Objective{{ID: "o", Type: ActionPlaceMarker, Required: 1}}

	tests := []struct {
		name    string
		defs    []Definition
		wantErr error
	}{
		{"duplicate id", []Definition{{ID: "a", Objectives: obj}, {ID: "a", Objectives: obj}}, streetrep.ErrInvalidArgument},
		{"no objectives", []Definition{{ID: "a"}}, streetrep.ErrInvalidArgument},
		{"zero required", []Definition{{ID: "a", Objectives: []Objective{{ID: "o", Type: ActionTakePhoto}}}}, streetrep.ErrInvalidArgument},
		{"bad action type", []Definition{{ID: "a", Objectives: []Objective{{ID: "o", Type: "dance", Required: 1}}}}, streetrep.ErrInvalidArgument},
		{"unknown predecessor", []Definition{{ID: "a", Objectives: obj, Requires: []string{"z"}}}, streetrep.ErrNotFound},
		{"cycle", []Definition{
			{ID: "a", Objectives: obj, Requires: []string{"b"}},
			{ID: "b", Objectives: obj, Requires: []string{"a"}},
		}, streetrep.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCatalog(tt.defs...); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseActionType(t *testing.T) {
	for _, s := range []string{"place_marker", "take_photo", "reach_location", "collaborate"} {
		if _, err := ParseActionType(s); err != nil {
			t.Errorf("ParseActionType(%q): %v", s, err)
		}
	}
	if _, err := ParseActionType("teleport"); !errors.Is(err, streetrep.ErrInvalidArgument) {
		t.Errorf("ParseActionType(teleport) err = %v", err)
	}
}
