package mission

import (
	"fmt"

	"github.com/playperu/streetrep/internal/streetrep"
)

// Catalog is an immutable, validated set of mission definitions.
type Catalog struct {
	defs []Definition
	byID map[string]Definition
}

// NewCatalog validates defs: unique mission and objective ids, known action
// types, positive required counts, known and acyclic predecessors.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Definition, len(defs))}

	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("mission with empty id: %w", streetrep.ErrInvalidArgument)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate mission %q: %w", d.ID, streetrep.ErrInvalidArgument)
		}
		if len(d.Objectives) == 0 {
			return nil, fmt.Errorf("mission %q has no objectives: %w", d.ID, streetrep.ErrInvalidArgument)
		}
		if d.Reward.Rep < 0 {
			return nil, fmt.Errorf("mission %q has negative reward: %w", d.ID, streetrep.ErrInvalidArgument)
		}
		seen := make(map[string]bool, len(d.Objectives))
		for _, o := range d.Objectives {
			if o.ID == "" || seen[o.ID] {
				return nil, fmt.Errorf("mission %q: objective id %q empty or duplicated: %w", d.ID, o.ID, streetrep.ErrInvalidArgument)
			}
			seen[o.ID] = true
			if _, err := ParseActionType(string(o.Type)); err != nil {
				return nil, fmt.Errorf("mission %q objective %q: %w", d.ID, o.ID, err)
			}
			if o.Required <= 0 {
				return nil, fmt.Errorf("mission %q objective %q requires %d: %w", d.ID, o.ID, o.Required, streetrep.ErrInvalidArgument)
			}
		}
		c.defs = append(c.defs, d)
		c.byID[d.ID] = d
	}

	for _, d := range c.defs {
		for _, req := range d.Requires {
			if _, ok := c.byID[req]; !ok {
				return nil, fmt.Errorf("mission %q requires unknown mission %q: %w", d.ID, req, streetrep.ErrNotFound)
			}
		}
	}
	if err := c.checkCycles(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Catalog) checkCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	mark := make(map[string]int, len(c.defs))

	var visit func(id string) error
	visit = func(id string) error {
		switch mark[id] {
		case visiting:
			return fmt.Errorf("mission %q is part of a dependency cycle: %w", id, streetrep.ErrInvalidArgument)
		case done:
			return nil
		}
		mark[id] = visiting
		for _, req := range c.byID[id].Requires {
			if err := visit(req); err != nil {
				return err
			}
		}
		mark[id] = done
		return nil
	}

	for _, d := range c.defs {
		if err := visit(d.ID); err != nil {
			return err
		}
	}
	return nil
}

// Definition looks up a mission by id.
func (c *Catalog) Definition(id string) (Definition, error) {
	d, ok := c.byID[id]
	if !ok {
		return Definition{}, fmt.Errorf("mission %q: %w", id, streetrep.ErrNotFound)
	}
	return d, nil
}

// Definitions returns every mission in catalog order.
func (c *Catalog) Definitions() []Definition {
	return append([]Definition(nil), c.defs...)
}

// Successors returns the missions that list id as a predecessor.
func (c *Catalog) Successors(id string) []string {
	var out []string
	for _, d := range c.defs {
		for _, req := range d.Requires {
			if req == id {
				out = append(out, d.ID)
				break
			}
		}
	}
	return out
}

// Start creates the initial state for mission id: active when every
// predecessor is completed, locked otherwise.
func (c *Catalog) Start(id string, completed func(id string) bool) (State, error) {
	def, err := c.Definition(id)
	if err != nil {
		return State{}, err
	}
	counts := make(map[string]int, len(def.Objectives))
	for _, o := range def.Objectives {
		counts[o.ID] = 0
	}
	s := State{MissionID: id, Counts: counts, Status: StatusLocked}
	if prerequisitesMet(def, completed) {
		s.Status = StatusActive
	}
	return s, nil
}
