// Package scoring turns a single marker placement into a REP breakdown.
//
// ComputeRep is a pure function of the placement and the static surface
// catalog: identical placements always produce identical breakdowns.
// Unknown surface or style ids never fail; they score as the catalog's
// default entries and the breakdown flags the substitution.
package scoring

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/playperu/streetrep/internal/geo"
	"github.com/playperu/streetrep/internal/streetrep"
	"github.com/playperu/streetrep/internal/surface"
)

// Bonus names used in Breakdown.Bonuses.
const (
	BonusProximity = "proximity"
	BonusStreak    = "streak"
)

// Config tunes the bonus rules.
type Config struct {
	// ProximityRadius is the closed distance bound, in meters, within which
	// a placement earns ProximityBonus.
	ProximityRadius float64
	ProximityBonus  int

	// Streak bonus is StreakPerDay for each prior consecutive day, capped
	// at StreakCap.
	StreakPerDay int
	StreakCap    int

	// Distance measures placement-to-reference distance. Nil means
	// geo.Distance.
	Distance func(a, b geo.Coordinate) float64
}

// DefaultConfig returns the tuned game defaults.
func DefaultConfig() Config {
	return Config{
		ProximityRadius: 50,
		ProximityBonus:  5,
		StreakPerDay:    2,
		StreakCap:       20,
	}
}

// Placement is a single marker-placement event.
type Placement struct {
	SurfaceID string
	StyleID   string
	At        geo.Coordinate
	// Reference is the player's anchor point. Nil skips the proximity bonus.
	Reference *geo.Coordinate
	// Streak counts consecutive days with a drop before this one.
	Streak int
	Time   time.Time
}

// Validate rejects malformed coordinates and negative streaks.
func (p Placement) Validate() error {
	if err := p.At.Validate(); err != nil {
		return fmt.Errorf("placement: %w", err)
	}
	if p.Reference != nil {
		if err := p.Reference.Validate(); err != nil {
			return fmt.Errorf("reference: %w", err)
		}
	}
	if p.Streak < 0 {
		return fmt.Errorf("streak %d is negative: %w", p.Streak, streetrep.ErrInvalidArgument)
	}
	return nil
}

// Bonus is one named additive bonus.
type Bonus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Amount      int    `json:"amount"`
}

// Breakdown explains how a placement's REP was computed.
type Breakdown struct {
	SurfaceID       string  `json:"surfaceId"`
	StyleID         string  `json:"styleId"`
	SurfaceFallback bool    `json:"surfaceFallback,omitempty"`
	StyleFallback   bool    `json:"styleFallback,omitempty"`
	SurfaceBase     int     `json:"surfaceBase"`
	StyleBase       int     `json:"styleBase"`
	Bonuses         []Bonus `json:"bonuses"`
	Multiplier      float64 `json:"multiplier"`
	Final           int     `json:"final"`
}

// Engine computes REP for placements.
type Engine struct {
	cfg     Config
	catalog *surface.Catalog
}

// New returns an engine over catalog.
func New(cfg Config, catalog *surface.Catalog) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("scoring: nil catalog: %w", streetrep.ErrInvalidArgument)
	}
	if cfg.ProximityRadius < 0 || cfg.ProximityBonus < 0 || cfg.StreakPerDay < 0 || cfg.StreakCap < 0 {
		return nil, fmt.Errorf("scoring: negative config value %+v: %w", cfg, streetrep.ErrInvalidArgument)
	}
	if cfg.Distance == nil {
		cfg.Distance = geo.Distance
	}
	return &Engine{cfg: cfg, catalog: catalog}, nil
}

// ComputeRep scores p.
func (e *Engine) ComputeRep(p Placement) Breakdown {
	surf, surfFallback := e.catalog.SurfaceOrDefault(p.SurfaceID)
	style, styleFallback := e.catalog.StyleOrDefault(p.StyleID)

	b := Breakdown{
		SurfaceID:       surf.ID,
		StyleID:         style.ID,
		SurfaceFallback: surfFallback,
		StyleFallback:   styleFallback,
		SurfaceBase:     surf.BaseRep,
		StyleBase:       style.BaseRep,
		Bonuses:         []Bonus{},
		Multiplier:      e.catalog.Multiplier(surf.ID),
	}

	if p.Reference != nil {
		d := e.cfg.Distance(p.At, *p.Reference)
		if amount := e.proximityBonus(d); amount > 0 {
			b.Bonuses = append(b.Bonuses, Bonus{
				Name:        BonusProximity,
				Description: fmt.Sprintf("within %.0f m of home (%.1f m)", e.cfg.ProximityRadius, d),
				Amount:      amount,
			})
		}
	}

	if amount := e.StreakBonus(p.Streak); amount > 0 {
		b.Bonuses = append(b.Bonuses, Bonus{
			Name:        BonusStreak,
			Description: fmt.Sprintf("%d day streak", p.Streak),
			Amount:      amount,
		})
	}

	sum := b.SurfaceBase + b.StyleBase
	for _, bonus := range b.Bonuses {
		sum += bonus.Amount
	}

	final := int(decimal.NewFromInt(int64(sum)).
		Mul(decimal.NewFromFloat(b.Multiplier)).
		Round(0).
		IntPart())
	b.Final = max(final, b.SurfaceBase+b.StyleBase, 0)

	return b
}

func (e *Engine) proximityBonus(distance float64) int {
	if distance <= e.cfg.ProximityRadius {
		return e.cfg.ProximityBonus
	}
	return 0
}

// StreakBonus returns the bonus for a streak of prior consecutive days:
// linear in the streak and capped. It is 0 for streak 0.
func (e *Engine) StreakBonus(streak int) int {
	if streak <= 0 {
		return 0
	}
	if e.cfg.StreakPerDay > 0 && streak > e.cfg.StreakCap/e.cfg.StreakPerDay {
		return e.cfg.StreakCap
	}
	return min(streak*e.cfg.StreakPerDay, e.cfg.StreakCap)
}

// Catalog returns the surface catalog the engine scores against.
func (e *Engine) Catalog() *surface.Catalog {
	return e.catalog
}
