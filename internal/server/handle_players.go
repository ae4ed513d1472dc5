package server

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/playperu/streetrep/internal/geo"
	"github.com/playperu/streetrep/internal/progression"
	"github.com/playperu/streetrep/internal/store"
)

const maxNameLen = 40

type CreatePlayerRequest struct {
	Name string          `json:"name"`
	Home *geo.Coordinate `json:"home,omitempty"`
}

type CreatePlayerResponse struct {
	Token  string         `json:"token"`
	Player PlayerResponse `json:"player"`
}

type NextRankResponse struct {
	Rank   progression.Rank `json:"rank"`
	Needed int              `json:"needed"`
}

type PlayerResponse struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Progress   progression.Progress `json:"progress"`
	Streak     int                  `json:"streak"`
	LastDropAt *time.Time           `json:"lastDropAt,omitempty"`
	Home       *geo.Coordinate      `json:"home,omitempty"`
	NextRank   *NextRankResponse    `json:"nextRank,omitempty"`
}

func playerResponse(p store.Player) (PlayerResponse, error) {
	prog, err := progression.FromRep(p.Rep)
	if err != nil {
		return PlayerResponse{}, err
	}
	resp := PlayerResponse{
		ID:         p.ID,
		Name:       p.Name,
		Progress:   prog,
		Streak:     p.Streak,
		LastDropAt: p.LastDropAt,
		Home:       p.Home,
	}
	if next, needed, ok := progression.NextRank(p.Rep); ok {
		resp.NextRank = &NextRankResponse{Rank: next, Needed: needed}
	}
	return resp, nil
}

func handleCreatePlayer(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePlayerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || utf8.RuneCountInString(req.Name) > maxNameLen {
			writeError(w, http.StatusBadRequest, "name is required and must be at most 40 characters")
			return
		}
		if req.Home != nil {
			if err := req.Home.Validate(); err != nil {
				writeDomainError(w, svc.Logger, err)
				return
			}
		}

		p, err := svc.Store.CreatePlayer(r.Context(), req.Name, req.Home, svc.Now())
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		resp, err := playerResponse(p)
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreatePlayerResponse{Token: p.Token, Player: resp})
	}
}

func handleMe(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := playerResponse(playerFrom(r))
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
