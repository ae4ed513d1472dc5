package server

import (
	"net/http"

	"github.com/playperu/streetrep/internal/geo"
	"github.com/playperu/streetrep/internal/store"
)

type PositionRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PositionResponse struct {
	// Nearby lists visible markers within the blackout radius.
	Nearby []store.Marker `json:"nearby"`
}

// handlePosition records where the player is. The blackout loop samples
// around recently reported positions.
func handlePosition(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PositionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		at := geo.Coordinate{Lat: req.Lat, Lng: req.Lng}
		if err := at.Validate(); err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}

		p := playerFrom(r)
		if err := svc.Store.PutPosition(r.Context(), store.Position{PlayerID: p.ID, At: at, UpdatedAt: svc.Now()}); err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}

		nearby, err := svc.Store.NearbyMarkers(r.Context(), at, svc.Blackouts.Radius())
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		if nearby == nil {
			nearby = []store.Marker{}
		}
		writeJSON(w, http.StatusOK, PositionResponse{Nearby: nearby})
	}
}
