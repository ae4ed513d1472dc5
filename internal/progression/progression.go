// Package progression derives rank and level from cumulative REP.
package progression

import (
	"fmt"
	"strings"
	"time"

	"github.com/playperu/streetrep/internal/streetrep"
)

// Rank is a coarse progression tier.
type Rank int

const (
	RankToy Rank = iota
	RankVandal
	RankWriter
)

var rankNames = [...]string{"TOY", "VANDAL", "WRITER"}

func (r Rank) String() string {
	if r < RankToy || r > RankWriter {
		return fmt.Sprintf("Rank(%d)", int(r))
	}
	return rankNames[r]
}

func (r Rank) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(b []byte) error {
	for i, name := range rankNames {
		if strings.EqualFold(string(b), name) {
			*r = Rank(i)
			return nil
		}
	}
	return fmt.Errorf("unknown rank %q: %w", b, streetrep.ErrInvalidArgument)
}

// rankThresholds holds the minimum REP of each rank, strictly increasing.
var rankThresholds = [...]int{
	RankToy:    0,
	RankVandal: 100,
	RankWriter: 300,
}

// RepPerLevel is the REP span of one level.
const RepPerLevel = 100

// DeriveRank returns the rank for a REP total.
func DeriveRank(rep int) Rank {
	r := RankToy
	for i, floor := range rankThresholds {
		if rep >= floor {
			r = Rank(i)
		}
	}
	return r
}

// DeriveLevel returns rep/100 + 1. Levels have no upper bound.
func DeriveLevel(rep int) int {
	if rep < 0 {
		return 1
	}
	return rep/RepPerLevel + 1
}

// NextRank returns the rank after the one rep holds and the REP still
// needed to reach it. ok is false at the top rank.
func NextRank(rep int) (next Rank, needed int, ok bool) {
	cur := DeriveRank(rep)
	if cur == RankWriter {
		return cur, 0, false
	}
	next = cur + 1
	return next, rankThresholds[next] - rep, true
}

// Progress is a player's cumulative REP with its derived rank and level.
type Progress struct {
	Rep   int  `json:"rep"`
	Rank  Rank `json:"rank"`
	Level int  `json:"level"`
}

// New returns the progress of a freshly created account.
func New() Progress {
	return Progress{Rep: 0, Rank: RankToy, Level: 1}
}

// FromRep rebuilds progress from a stored REP total.
func FromRep(rep int) (Progress, error) {
	if rep < 0 {
		return Progress{}, fmt.Errorf("rep %d is negative: %w", rep, streetrep.ErrInvalidArgument)
	}
	return Progress{Rep: rep, Rank: DeriveRank(rep), Level: DeriveLevel(rep)}, nil
}

// ApplyRep returns p with delta added. A negative delta is rejected since
// REP never decreases through this path.
func ApplyRep(p Progress, delta int) (Progress, error) {
	if delta < 0 {
		return p, fmt.Errorf("rep delta %d is negative: %w", delta, streetrep.ErrInvalidArgument)
	}
	return FromRep(p.Rep + delta)
}

// Transition describes a rank or level change between two progress values.
type Transition struct {
	FromRank  Rank `json:"fromRank"`
	ToRank    Rank `json:"toRank"`
	FromLevel int  `json:"fromLevel"`
	ToLevel   int  `json:"toLevel"`
}

// RankUp reports whether the transition crossed a rank threshold.
func (t Transition) RankUp() bool { return t.ToRank > t.FromRank }

// Promotion compares two progress values and reports whether rank or level
// increased.
func Promotion(before, after Progress) (Transition, bool) {
	t := Transition{
		FromRank:  before.Rank,
		ToRank:    after.Rank,
		FromLevel: before.Level,
		ToLevel:   after.Level,
	}
	return t, t.ToRank > t.FromRank || t.ToLevel > t.FromLevel
}

// NextStreak returns the consecutive-day streak after activity on today,
// given the last active day and the streak recorded then. Days are compared
// as calendar dates in today's location. A zero last means no prior activity.
func NextStreak(last, today time.Time, streak int) int {
	if last.IsZero() || streak <= 0 {
		return 1
	}
	loc := today.Location()
	ly, lm, ld := last.In(loc).Date()
	ty, tm, td := today.Date()
	lastDay := time.Date(ly, lm, ld, 0, 0, 0, 0, loc)
	todayDay := time.Date(ty, tm, td, 0, 0, 0, 0, loc)

	switch {
	case todayDay.Equal(lastDay):
		return streak
	case todayDay.Equal(lastDay.AddDate(0, 0, 1)):
		return streak + 1
	case todayDay.Before(lastDay):
		return streak
	default:
		return 1
	}
}
