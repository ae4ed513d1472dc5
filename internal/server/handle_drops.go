package server

import (
	"net/http"
	"time"

	"github.com/playperu/streetrep/internal/geo"
	"github.com/playperu/streetrep/internal/mission"
	"github.com/playperu/streetrep/internal/progression"
	"github.com/playperu/streetrep/internal/scoring"
	"github.com/playperu/streetrep/internal/store"
)

type DropRequest struct {
	SurfaceID string  `json:"surfaceId"`
	StyleID   string  `json:"styleId"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	// Reference overrides the player's home as the proximity anchor.
	Reference *geo.Coordinate `json:"reference,omitempty"`
}

type DropResponse struct {
	Marker    store.Marker            `json:"marker"`
	Breakdown scoring.Breakdown       `json:"breakdown"`
	Player    PlayerResponse          `json:"player"`
	Promotion *progression.Transition `json:"promotion,omitempty"`
	Missions  []MissionCompletion     `json:"missions"`
}

func handleDrop(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DropRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		before := playerFrom(r)
		now := svc.Now()

		var last time.Time
		if before.LastDropAt != nil {
			last = *before.LastDropAt
		}
		streak := progression.NextStreak(last, now, before.Streak)

		ref := req.Reference
		if ref == nil {
			ref = before.Home
		}
		placement := scoring.Placement{
			SurfaceID: req.SurfaceID,
			StyleID:   req.StyleID,
			At:        geo.Coordinate{Lat: req.Lat, Lng: req.Lng},
			Reference: ref,
			// The placement counts prior consecutive days, not today.
			Streak: streak - 1,
			Time:   now,
		}
		if err := placement.Validate(); err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		breakdown := svc.Scoring.ComputeRep(placement)

		marker, after, err := svc.Store.RecordDrop(r.Context(), store.Marker{
			PlayerID:  before.ID,
			At:        placement.At,
			SurfaceID: breakdown.SurfaceID,
			StyleID:   breakdown.StyleID,
			Rep:       breakdown.Final,
			CreatedAt: now,
		}, streak)
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		svc.Broker.Publish(before.ID, FeedEvent{
			Type: eventDrop, PlayerID: before.ID, MarkerID: marker.ID, Rep: breakdown.Final, Total: after.Rep,
		})

		// The drop is committed; mission trouble must not turn it into an error.
		completed, advanced, err := advanceMissions(r.Context(), svc, after, mission.PlaceMarker{
			SurfaceID: breakdown.SurfaceID,
			StyleID:   breakdown.StyleID,
			At:        placement.At,
		})
		if err != nil {
			svc.Logger.Warn("advancing missions after drop", "player_id", before.ID, "marker_id", marker.ID, "error", err)
			completed = []MissionCompletion{}
		} else {
			after = advanced
		}

		promotion := settleRep(r.Context(), svc, before, after)
		resp, err := playerResponse(after)
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, DropResponse{
			Marker:    marker,
			Breakdown: breakdown,
			Player:    resp,
			Promotion: promotion,
			Missions:  completed,
		})
	}
}
