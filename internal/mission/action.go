package mission

import (
	"fmt"

	"github.com/playperu/streetrep/internal/geo"
	"github.com/playperu/streetrep/internal/streetrep"
)

// ActionType names a kind of player action.
type ActionType string

const (
	ActionPlaceMarker   ActionType = "place_marker"
	ActionTakePhoto     ActionType = "take_photo"
	ActionReachLocation ActionType = "reach_location"
	ActionCollaborate   ActionType = "collaborate"
)

// ParseActionType validates an action type label.
func ParseActionType(s string) (ActionType, error) {
	switch t := ActionType(s); t {
	case ActionPlaceMarker, ActionTakePhoto, ActionReachLocation, ActionCollaborate:
		return t, nil
	}
	return "", fmt.Errorf("unknown action type %q: %w", s, streetrep.ErrInvalidArgument)
}

// Action is a player action event. The set of implementations is closed:
// PlaceMarker, TakePhoto, ReachLocation and Collaborate.
type Action interface {
	Type() ActionType
	// Target is the value an objective's Target is matched against.
	Target() string
	action()
}

// PlaceMarker is a marker drop. Objectives target the surface id.
type PlaceMarker struct {
	SurfaceID string
	StyleID   string
	At        geo.Coordinate
}

func (PlaceMarker) Type() ActionType { return ActionPlaceMarker }
func (a PlaceMarker) Target() string { return a.SurfaceID }
func (PlaceMarker) action()          {}

// TakePhoto is a photo of a subject (a piece, a landmark, a blackout site).
type TakePhoto struct {
	Subject string
}

func (TakePhoto) Type() ActionType { return ActionTakePhoto }
func (a TakePhoto) Target() string { return a.Subject }
func (TakePhoto) action()          {}

// ReachLocation is arrival at a named story location.
type ReachLocation struct {
	LocationID string
	At         geo.Coordinate
}

func (ReachLocation) Type() ActionType { return ActionReachLocation }
func (a ReachLocation) Target() string { return a.LocationID }
func (ReachLocation) action()          {}

// Collaborate is a joint drop with another player.
type Collaborate struct {
	PartnerID string
}

func (Collaborate) Type() ActionType { return ActionCollaborate }
func (a Collaborate) Target() string { return a.PartnerID }
func (Collaborate) action()          {}
