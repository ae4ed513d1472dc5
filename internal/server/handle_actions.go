package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/playperu/streetrep/internal/geo"
	"github.com/playperu/streetrep/internal/mission"
	"github.com/playperu/streetrep/internal/progression"
	"github.com/playperu/streetrep/internal/store"
	"github.com/playperu/streetrep/internal/streetrep"
)

type ActionRequest struct {
	Type       string          `json:"type"`
	Subject    string          `json:"subject,omitempty"`
	LocationID string          `json:"locationId,omitempty"`
	PartnerID  string          `json:"partnerId,omitempty"`
	At         *geo.Coordinate `json:"at,omitempty"`
}

type ActionResponse struct {
	Player    PlayerResponse          `json:"player"`
	Missions  []MissionCompletion     `json:"missions"`
	Promotion *progression.Transition `json:"promotion,omitempty"`
}

// toAction builds a mission action from a request. Marker placement goes
// through the drop endpoint so that it is scored.
func (req ActionRequest) toAction() (mission.Action, error) {
	typ, err := mission.ParseActionType(req.Type)
	if err != nil {
		return nil, err
	}
	var at geo.Coordinate
	if req.At != nil {
		if err := req.At.Validate(); err != nil {
			return nil, err
		}
		at = *req.At
	}

	switch typ {
	case mission.ActionTakePhoto:
		if strings.TrimSpace(req.Subject) == "" {
			return nil, fmt.Errorf("take_photo needs a subject: %w", streetrep.ErrInvalidArgument)
		}
		return mission.TakePhoto{Subject: req.Subject}, nil
	case mission.ActionReachLocation:
		if req.LocationID == "" {
			return nil, fmt.Errorf("reach_location needs a locationId: %w", streetrep.ErrInvalidArgument)
		}
		return mission.ReachLocation{LocationID: req.LocationID, At: at}, nil
	case mission.ActionCollaborate:
		if req.PartnerID == "" {
			return nil, fmt.Errorf("collaborate needs a partnerId: %w", streetrep.ErrInvalidArgument)
		}
		return mission.Collaborate{PartnerID: req.PartnerID}, nil
	default:
		return nil, fmt.Errorf("use /api/me/drops to place markers: %w", streetrep.ErrInvalidArgument)
	}
}

func handleAction(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ActionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		a, err := req.toAction()
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}

		before := playerFrom(r)
		if c, ok := a.(mission.Collaborate); ok {
			if c.PartnerID == before.ID {
				writeError(w, http.StatusBadRequest, "cannot collaborate with yourself")
				return
			}
			if _, err := svc.Store.Player(r.Context(), c.PartnerID); errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "partner not found")
				return
			} else if err != nil {
				writeDomainError(w, svc.Logger, err)
				return
			}
		}

		completed, after, err := advanceMissions(r.Context(), svc, before, a)
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		resp := ActionResponse{Missions: completed}
		if after.Rep != before.Rep {
			resp.Promotion = settleRep(r.Context(), svc, before, after)
		}
		if resp.Player, err = playerResponse(after); err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
