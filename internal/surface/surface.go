// Package surface holds the static catalogs of taggable surfaces and graffiti
// styles, and the multiplier table that balances them.
package surface

import (
	"fmt"
	"strings"

	"github.com/playperu/streetrep/internal/streetrep"
)

// RiskTier orders surfaces by how exposed the writer is while tagging.
type RiskTier int

const (
	RiskLow RiskTier = iota
	RiskMedium
	RiskHigh
	RiskVeryHigh
)

var riskNames = [...]string{"low", "medium", "high", "very-high"}

func (r RiskTier) String() string {
	if r < RiskLow || r > RiskVeryHigh {
		return fmt.Sprintf("RiskTier(%d)", int(r))
	}
	return riskNames[r]
}

// ParseRisk maps a risk label to its tier.
func ParseRisk(s string) (RiskTier, error) {
	for i, name := range riskNames {
		if strings.EqualFold(s, name) {
			return RiskTier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown risk tier %q: %w", s, streetrep.ErrInvalidArgument)
}

func (r RiskTier) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RiskTier) UnmarshalText(b []byte) error {
	v, err := ParseRisk(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Category classifies a surface by its physical shape.
type Category string

const (
	CategoryVertical   Category = "vertical"
	CategoryHorizontal Category = "horizontal"
	CategoryMoving     Category = "moving"
	CategoryStructure  Category = "structure"
	CategoryVehicle    Category = "vehicle"
)

// ParseCategory validates a category label.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(s)); c {
	case CategoryVertical, CategoryHorizontal, CategoryMoving, CategoryStructure, CategoryVehicle:
		return c, nil
	}
	return "", fmt.Errorf("unknown surface category %q: %w", s, streetrep.ErrInvalidArgument)
}

// Surface is a placeable surface type.
type Surface struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	BaseRep  int      `json:"baseRep"`
	Risk     RiskTier `json:"risk"`
	Category Category `json:"category"`
}

// Style is a graffiti style.
type Style struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	BaseRep int    `json:"baseRep"`
}

// MultiplierGroup applies Factor to every surface listed in IDs.
type MultiplierGroup struct {
	Name   string
	Factor float64
	IDs    []string
}

// Catalog is an immutable lookup over surfaces, styles and multipliers.
type Catalog struct {
	surfaces      []Surface
	styles        []Style
	surfaceByID   map[string]Surface
	styleByID     map[string]Style
	multiplier    map[string]float64
	defaultSurfID string
	defaultStyle  string
}

// NewCatalog validates and indexes the given tables. defaultSurface and
// defaultStyle name the entries returned for unrecognized ids.
func NewCatalog(surfaces []Surface, styles []Style, groups []MultiplierGroup, defaultSurface, defaultStyle string) (*Catalog, error) {
	c := &Catalog{
		surfaces:      append([]Surface(nil), surfaces...),
		styles:        append([]Style(nil), styles...),
		surfaceByID:   make(map[string]Surface, len(surfaces)),
		styleByID:     make(map[string]Style, len(styles)),
		multiplier:    make(map[string]float64),
		defaultSurfID: defaultSurface,
		defaultStyle:  defaultStyle,
	}

	for _, s := range surfaces {
		if s.ID == "" {
			return nil, fmt.Errorf("surface with empty id: %w", streetrep.ErrInvalidArgument)
		}
		if _, dup := c.surfaceByID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate surface %q: %w", s.ID, streetrep.ErrInvalidArgument)
		}
		if s.BaseRep < 0 {
			return nil, fmt.Errorf("surface %q has negative base rep: %w", s.ID, streetrep.ErrInvalidArgument)
		}
		c.surfaceByID[s.ID] = s
	}
	for _, s := range styles {
		if s.ID == "" {
			return nil, fmt.Errorf("style with empty id: %w", streetrep.ErrInvalidArgument)
		}
		if _, dup := c.styleByID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate style %q: %w", s.ID, streetrep.ErrInvalidArgument)
		}
		if s.BaseRep < 0 {
			return nil, fmt.Errorf("style %q has negative base rep: %w", s.ID, streetrep.ErrInvalidArgument)
		}
		c.styleByID[s.ID] = s
	}

	if _, ok := c.surfaceByID[defaultSurface]; !ok {
		return nil, fmt.Errorf("default surface %q not in catalog: %w", defaultSurface, streetrep.ErrInvalidArgument)
	}
	if _, ok := c.styleByID[defaultStyle]; !ok {
		return nil, fmt.Errorf("default style %q not in catalog: %w", defaultStyle, streetrep.ErrInvalidArgument)
	}

	for _, g := range groups {
		if g.Factor < 1 {
			return nil, fmt.Errorf("multiplier group %q factor %v below 1.0: %w", g.Name, g.Factor, streetrep.ErrInvalidArgument)
		}
		for _, id := range g.IDs {
			if _, dup := c.multiplier[id]; dup {
				return nil, fmt.Errorf("surface %q listed in two multiplier groups: %w", id, streetrep.ErrInvalidArgument)
			}
			c.multiplier[id] = g.Factor
		}
	}

	return c, nil
}

// Surface looks up a surface by id.
func (c *Catalog) Surface(id string) (Surface, bool) {
	s, ok := c.surfaceByID[id]
	return s, ok
}

// Style looks up a graffiti style by id.
func (c *Catalog) Style(id string) (Style, bool) {
	s, ok := c.styleByID[id]
	return s, ok
}

// SurfaceOrDefault returns the surface for id, or the catalog's default
// surface with fallback set when id is unrecognized.
func (c *Catalog) SurfaceOrDefault(id string) (s Surface, fallback bool) {
	if v, ok := c.surfaceByID[id]; ok {
		return v, false
	}
	return c.surfaceByID[c.defaultSurfID], true
}

// StyleOrDefault returns the style for id, or the catalog's default style
// with fallback set when id is unrecognized.
func (c *Catalog) StyleOrDefault(id string) (s Style, fallback bool) {
	if v, ok := c.styleByID[id]; ok {
		return v, false
	}
	return c.styleByID[c.defaultStyle], true
}

// Multiplier returns the REP multiplier for a surface id. Membership in a
// multiplier group decides the factor; the surface's Category does not.
// Surfaces outside every group score at 1.0.
func (c *Catalog) Multiplier(surfaceID string) float64 {
	if f, ok := c.multiplier[surfaceID]; ok {
		return f
	}
	return 1.0
}

// Surfaces returns the surfaces in catalog order.
func (c *Catalog) Surfaces() []Surface {
	return append([]Surface(nil), c.surfaces...)
}

// Styles returns the styles in catalog order.
func (c *Catalog) Styles() []Style {
	return append([]Style(nil), c.styles...)
}
