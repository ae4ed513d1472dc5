package server

import (
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/streetrep/internal/mission"
	"github.com/playperu/streetrep/internal/streetrep"
	"github.com/playperu/streetrep/internal/worldevent"
)

func handleListEvents(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := svc.Store.Events(r.Context(), listLimit(r))
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

// handleInvestigate adds the player to a blackout's investigators. Joining
// an investigation for the first time counts as photographing the site.
func handleInvestigate(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := playerFrom(r)

		e, err := svc.Store.Event(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		if e.Status == worldevent.StatusSolved {
			writeError(w, http.StatusConflict, "event already solved")
			return
		}

		next, err := worldevent.Investigate(e, p.ID)
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		if len(next.Investigators) == len(e.Investigators) {
			writeJSON(w, http.StatusOK, next)
			return
		}
		if err := svc.Store.PutEvent(r.Context(), next); err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		svc.Broker.Broadcast(FeedEvent{Type: eventInvestigation, PlayerID: p.ID, EventID: next.ID})

		_, after, err := advanceMissions(r.Context(), svc, p, mission.TakePhoto{Subject: mission.SubjectBlackoutSite})
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		if after.Rep != p.Rep {
			settleRep(r.Context(), svc, p, after)
		}

		writeJSON(w, http.StatusOK, next)
	}
}

// handleResolve marks a blackout solved. Only an investigator can solve it.
func handleResolve(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := playerFrom(r)

		e, err := svc.Store.Event(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		if e.Status == worldevent.StatusSolved {
			writeJSON(w, http.StatusOK, e)
			return
		}
		if !slices.Contains(e.Investigators, p.ID) {
			writeError(w, http.StatusForbidden, "investigate the event before solving it")
			return
		}

		solved, err := worldevent.Resolve(e, p.ID, svc.Now())
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		if err := svc.Store.PutEvent(r.Context(), solved); errors.Is(err, streetrep.ErrConflict) {
			// Solved concurrently; report the stored outcome.
			current, err := svc.Store.Event(r.Context(), e.ID)
			if err != nil {
				writeDomainError(w, svc.Logger, err)
				return
			}
			writeJSON(w, http.StatusOK, current)
			return
		} else if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		svc.Broker.Broadcast(FeedEvent{Type: eventSolved, PlayerID: p.ID, EventID: solved.ID, MarkerID: solved.MarkerID})

		writeJSON(w, http.StatusOK, solved)
	}
}
