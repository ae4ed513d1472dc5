package server

import (
	"context"
	"net/http"

	"github.com/playperu/streetrep/internal/mission"
	"github.com/playperu/streetrep/internal/progression"
	"github.com/playperu/streetrep/internal/store"
)

type MissionResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      mission.Status      `json:"status"`
	Objectives  []ObjectiveProgress `json:"objectives"`
	Reward      mission.Reward      `json:"reward"`
	Requires    []string            `json:"requires,omitempty"`
}

type ObjectiveProgress struct {
	mission.Objective
	Count int `json:"count"`
}

type MissionCompletion struct {
	MissionID string         `json:"missionId"`
	Title     string         `json:"title"`
	Reward    mission.Reward `json:"reward"`
}

func missionResponse(c *mission.Catalog, s mission.State) (MissionResponse, error) {
	def, err := c.Definition(s.MissionID)
	if err != nil {
		return MissionResponse{}, err
	}
	resp := MissionResponse{
		ID:          def.ID,
		Title:       def.Title,
		Description: def.Description,
		Status:      s.Status,
		Reward:      def.Reward,
		Requires:    def.Requires,
	}
	for _, o := range def.Objectives {
		resp.Objectives = append(resp.Objectives, ObjectiveProgress{Objective: o, Count: s.Counts[o.ID]})
	}
	return resp, nil
}

func handleMissions(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := playerFrom(r)

		stored, err := svc.Store.MissionStates(r.Context(), p.ID)
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		states, err := mission.Reconcile(svc.Missions, stored)
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}

		out := make([]MissionResponse, 0, len(states))
		for _, s := range states {
			m, err := missionResponse(svc.Missions, s)
			if err != nil {
				writeDomainError(w, svc.Logger, err)
				return
			}
			out = append(out, m)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// advanceMissions feeds a to every mission of the player, activates the
// successors of anything it completed and persists the result. Reward REP
// is credited to the player; the returned player carries the new total.
func advanceMissions(ctx context.Context, svc *Services, p store.Player, a mission.Action) ([]MissionCompletion, store.Player, error) {
	stored, err := svc.Store.MissionStates(ctx, p.ID)
	if err != nil {
		return nil, p, err
	}
	states, err := mission.Reconcile(svc.Missions, stored)
	if err != nil {
		return nil, p, err
	}

	completed := []MissionCompletion{}
	reward := 0
	for i, s := range states {
		res, err := mission.Advance(s, a, svc.Missions)
		if err != nil {
			return nil, p, err
		}
		states[i] = res.State
		if res.Reward == nil {
			continue
		}
		def, _ := svc.Missions.Definition(s.MissionID)
		completed = append(completed, MissionCompletion{MissionID: def.ID, Title: def.Title, Reward: *res.Reward})
		reward += res.Reward.Rep
	}

	if len(completed) > 0 {
		byID := make(map[string]mission.State, len(states))
		for _, s := range states {
			byID[s.MissionID] = s
		}
		if states, err = mission.Reconcile(svc.Missions, byID); err != nil {
			return nil, p, err
		}
	}
	if err := svc.Store.PutMissionStates(ctx, p.ID, states...); err != nil {
		return nil, p, err
	}

	for _, c := range completed {
		svc.Broker.Publish(p.ID, FeedEvent{Type: eventMissionCompleted, PlayerID: p.ID, MissionID: c.MissionID, Rep: c.Reward.Rep})
	}
	if reward == 0 {
		return completed, p, nil
	}
	updated, err := svc.Store.AddRep(ctx, p.ID, reward)
	if err != nil {
		return nil, p, err
	}
	return completed, updated, nil
}

// settleRep records the new total on the leaderboard and announces a
// promotion if there was one. Leaderboard failures are only logged.
func settleRep(ctx context.Context, svc *Services, before, after store.Player) *progression.Transition {
	if err := svc.Board.Record(ctx, after.ID, after.Name, after.Rep); err != nil {
		svc.Logger.Error("updating leaderboard", "player_id", after.ID, "error", err)
	}

	from, err1 := progression.FromRep(before.Rep)
	to, err2 := progression.FromRep(after.Rep)
	if err1 != nil || err2 != nil {
		return nil
	}
	t, ok := progression.Promotion(from, to)
	if !ok {
		return nil
	}
	svc.Broker.Publish(after.ID, FeedEvent{
		Type: eventPromotion, PlayerID: after.ID, Total: after.Rep, Rank: t.ToRank.String(), Level: t.ToLevel,
	})
	return &t
}
