// Package mission runs the per-player mission state machine.
//
// Each (player, mission) pair moves locked -> active -> completed. A mission
// activates once every predecessor is completed, advances when matching
// actions arrive, and completes when every objective reaches its required
// count. Completed is terminal: later actions are no-ops and the reward is
// reported exactly once, on the transition.
package mission

import (
	"fmt"
	"maps"

	"github.com/playperu/streetrep/internal/streetrep"
)

// Status is a mission's lifecycle state.
type Status string

const (
	StatusLocked    Status = "locked"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Objective is one counter a mission needs filled.
type Objective struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Type        ActionType `json:"type"`
	Required    int        `json:"required"`
	// Target, when set, restricts matches to actions whose Target equals it.
	Target string `json:"target,omitempty"`
}

func (o Objective) matches(a Action) bool {
	if a.Type() != o.Type {
		return false
	}
	return o.Target == "" || o.Target == a.Target()
}

// Reward is granted once when a mission completes.
type Reward struct {
	Rep     int      `json:"rep"`
	Unlocks []string `json:"unlocks,omitempty"`
}

// Definition is a static catalog entry.
type Definition struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Objectives  []Objective `json:"objectives"`
	Reward      Reward      `json:"reward"`
	// Requires lists missions that must be completed before this one
	// activates.
	Requires []string `json:"requires,omitempty"`
}

// State is one player's progress on one mission.
type State struct {
	MissionID string         `json:"missionId"`
	Counts    map[string]int `json:"counts"`
	Status    Status         `json:"status"`
}

// Result is the outcome of Advance. Reward is non-nil only when this call
// completed the mission.
type Result struct {
	State  State
	Reward *Reward
}

// Activate moves a locked state to active when every predecessor is
// completed. Other states are returned unchanged.
func Activate(s State, c *Catalog, completed func(id string) bool) (State, error) {
	def, err := c.Definition(s.MissionID)
	if err != nil {
		return s, err
	}
	if s.Status != StatusLocked || !prerequisitesMet(def, completed) {
		return s, nil
	}
	next := cloneState(s)
	next.Status = StatusActive
	return next, nil
}

// Advance applies a to s. Objectives whose type (and target, when set) match
// are incremented and clamped at their required count. Mismatched actions,
// locked states and completed states return s unchanged.
func Advance(s State, a Action, c *Catalog) (Result, error) {
	if a == nil {
		return Result{State: s}, fmt.Errorf("nil action: %w", streetrep.ErrInvalidArgument)
	}
	def, err := c.Definition(s.MissionID)
	if err != nil {
		return Result{State: s}, err
	}
	if err := checkCounts(s, def); err != nil {
		return Result{State: s}, err
	}

	if s.Status != StatusActive {
		return Result{State: s}, nil
	}

	next := cloneState(s)
	changed := false
	for _, o := range def.Objectives {
		if !o.matches(a) || next.Counts[o.ID] >= o.Required {
			continue
		}
		next.Counts[o.ID]++
		changed = true
	}
	if !changed {
		return Result{State: s}, nil
	}

	if !satisfied(next, def) {
		return Result{State: next}, nil
	}
	next.Status = StatusCompleted
	reward := Reward{
		Rep:     def.Reward.Rep,
		Unlocks: append([]string(nil), def.Reward.Unlocks...),
	}
	return Result{State: next, Reward: &reward}, nil
}

// Reconcile returns a state for every catalog mission in catalog order.
// Missing states are started, locked states whose predecessors completed are
// activated, everything else is carried over as is.
func Reconcile(c *Catalog, states map[string]State) ([]State, error) {
	completed := func(id string) bool {
		return states[id].Status == StatusCompleted
	}

	out := make([]State, 0, len(c.defs))
	for _, def := range c.defs {
		s, ok := states[def.ID]
		if !ok {
			started, err := c.Start(def.ID, completed)
			if err != nil {
				return nil, err
			}
			out = append(out, started)
			continue
		}
		s, err := Activate(s, c, completed)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func prerequisitesMet(def Definition, completed func(id string) bool) bool {
	for _, id := range def.Requires {
		if completed == nil || !completed(id) {
			return false
		}
	}
	return true
}

func satisfied(s State, def Definition) bool {
	for _, o := range def.Objectives {
		if s.Counts[o.ID] < o.Required {
			return false
		}
	}
	return true
}

func checkCounts(s State, def Definition) error {
	for id := range s.Counts {
		if _, ok := def.objective(id); !ok {
			return fmt.Errorf("mission %q has no objective %q: %w", def.ID, id, streetrep.ErrNotFound)
		}
	}
	return nil
}

func cloneState(s State) State {
	s.Counts = maps.Clone(s.Counts)
	if s.Counts == nil {
		s.Counts = make(map[string]int)
	}
	return s
}

func (d Definition) objective(id string) (Objective, bool) {
	for _, o := range d.Objectives {
		if o.ID == id {
			return o, true
		}
	}
	return Objective{}, false
}
