package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/playperu/streetrep/internal/geo"
	"github.com/playperu/streetrep/internal/mission"
	"github.com/playperu/streetrep/internal/progression"
	"github.com/playperu/streetrep/internal/scoring"
)

func TestDropScoresAndCompletesFirstMission(t *testing.T) {
	ts := newTestServer(t)
	home := plaza
	reg := ts.register(t, "Maria", &home)

	resp := ts.drop(t, reg.Token, DropRequest{SurfaceID: "train", StyleID: "piece", Lat: plaza.Lat, Lng: plaza.Lng})

	// (20 + 15 + 5 proximity) x 2.0 moving
	if resp.Breakdown.Final != 80 {
		t.Fatalf("final = %d, want 80: %+v", resp.Breakdown.Final, resp.Breakdown)
	}
	if len(resp.Breakdown.Bonuses) != 1 || resp.Breakdown.Bonuses[0].Name != scoring.BonusProximity {
		t.Errorf("bonuses = %+v", resp.Breakdown.Bonuses)
	}
	if len(resp.Missions) != 1 || resp.Missions[0].MissionID != "first-drop" || resp.Missions[0].Reward.Rep != 10 {
		t.Fatalf("missions = %+v", resp.Missions)
	}
	if resp.Player.Progress.Rep != 90 {
		t.Errorf("rep = %d, want 90 (80 drop + 10 mission)", resp.Player.Progress.Rep)
	}
	if resp.Promotion != nil {
		t.Errorf("unexpected promotion %+v", resp.Promotion)
	}
	if resp.Marker.ID == "" || resp.Marker.Rep != 80 {
		t.Errorf("marker = %+v", resp.Marker)
	}
}

func TestDropPromotes(t *testing.T) {
	ts := newTestServer(t)
	home := plaza
	reg := ts.register(t, "Maria", &home)
	far := geo.Destination(plaza, 90, 5000)

	ts.drop(t, reg.Token, DropRequest{SurfaceID: "train", StyleID: "piece", Lat: plaza.Lat, Lng: plaza.Lng})
	resp := ts.drop(t, reg.Token, DropRequest{SurfaceID: "wall", StyleID: "tag", Lat: far.Lat, Lng: far.Lng})

	if resp.Breakdown.Final != 13 {
		t.Fatalf("final = %d, want 13", resp.Breakdown.Final)
	}
	if resp.Player.Progress.Rep != 103 {
		t.Fatalf("rep = %d, want 103", resp.Player.Progress.Rep)
	}
	if resp.Promotion == nil || resp.Promotion.ToRank != progression.RankVandal || resp.Promotion.ToLevel != 2 {
		t.Fatalf("promotion = %+v", resp.Promotion)
	}
	if len(resp.Missions) != 0 {
		t.Errorf("missions = %+v", resp.Missions)
	}

	w := ts.do(t, http.MethodGet, "/api/me/missions", reg.Token, nil)
	var missions []MissionResponse
	json.NewDecoder(w.Body).Decode(&missions)
	for _, m := range missions {
		if m.ID == "getting-up" {
			if m.Status != mission.StatusActive || m.Objectives[0].Count != 1 {
				t.Errorf("getting-up = %+v", m)
			}
		}
	}
}

func TestDropStreak(t *testing.T) {
	ts := newTestServer(t)
	reg := ts.register(t, "Maria", nil)

	first := ts.drop(t, reg.Token, DropRequest{SurfaceID: "wall", StyleID: "tag", Lat: plaza.Lat, Lng: plaza.Lng})
	if first.Player.Streak != 1 || first.Breakdown.Final != 13 {
		t.Fatalf("first drop streak=%d final=%d", first.Player.Streak, first.Breakdown.Final)
	}

	sameDay := ts.drop(t, reg.Token, DropRequest{SurfaceID: "wall", StyleID: "tag", Lat: plaza.Lat, Lng: plaza.Lng})
	if sameDay.Player.Streak != 1 || sameDay.Breakdown.Final != 13 {
		t.Fatalf("same day streak=%d final=%d", sameDay.Player.Streak, sameDay.Breakdown.Final)
	}

	ts.clock.Advance(24 * time.Hour)
	nextDay := ts.drop(t, reg.Token, DropRequest{SurfaceID: "wall", StyleID: "tag", Lat: plaza.Lat, Lng: plaza.Lng})
	if nextDay.Player.Streak != 2 || nextDay.Breakdown.Final != 15 {
		t.Fatalf("next day streak=%d final=%d", nextDay.Player.Streak, nextDay.Breakdown.Final)
	}

	ts.clock.Advance(72 * time.Hour)
	broken := ts.drop(t, reg.Token, DropRequest{SurfaceID: "wall", StyleID: "tag", Lat: plaza.Lat, Lng: plaza.Lng})
	if broken.Player.Streak != 1 || broken.Breakdown.Final != 13 {
		t.Fatalf("after gap streak=%d final=%d", broken.Player.Streak, broken.Breakdown.Final)
	}
}

func TestDropFallsBackOnUnknownIDs(t *testing.T) {
	ts := newTestServer(t)
	reg := ts.register(t, "Maria", nil)

	resp := ts.drop(t, reg.Token, DropRequest{SurfaceID: "moon", StyleID: "laser", Lat: plaza.Lat, Lng: plaza.Lng})
	b := resp.Breakdown
	if !b.SurfaceFallback || !b.StyleFallback || b.SurfaceID != "wall" || b.StyleID != "tag" || b.Final != 13 {
		t.Fatalf("breakdown = %+v", b)
	}
	if resp.Marker.SurfaceID != "wall" {
		t.Errorf("marker stored with surface %q", resp.Marker.SurfaceID)
	}
}

func TestDropSurvivesMissionFailure(t *testing.T) {
	ts := newTestServer(t)
	reg := ts.register(t, "Maria", nil)

	// A count for an objective the catalog lacks makes mission advancement fail.
	err := ts.svc.Store.PutMissionStates(context.Background(), reg.Player.ID, mission.State{
		MissionID: "first-drop",
		Counts:    map[string]int{"ghost": 1},
		Status:    mission.StatusActive,
	})
	if err != nil {
		t.Fatalf("PutMissionStates: %v", err)
	}

	resp := ts.drop(t, reg.Token, DropRequest{SurfaceID: "wall", StyleID: "tag", Lat: plaza.Lat, Lng: plaza.Lng})
	if resp.Marker.ID == "" || resp.Player.Progress.Rep != 13 {
		t.Fatalf("drop = %+v", resp)
	}
	if len(resp.Missions) != 0 {
		t.Errorf("missions = %+v", resp.Missions)
	}
}

func TestDropRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)
	reg := ts.register(t, "Maria", nil)

	tests := []struct {
		name string
		req  DropRequest
	}{
		{"latitude out of range", DropRequest{SurfaceID: "wall", Lat: 91, Lng: 0}},
		{"longitude out of range", DropRequest{SurfaceID: "wall", Lat: 0, Lng: -181}},
		{"bad reference", DropRequest{SurfaceID: "wall", Lat: 0, Lng: 0, Reference: &geo.Coordinate{Lat: -100}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/me/drops", reg.Token, tt.req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}

	if w := ts.do(t, http.MethodPost, "/api/me/drops", "", DropRequest{}); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}
}

func TestActions(t *testing.T) {
	ts := newTestServer(t)
	maria := ts.register(t, "Maria", nil)
	beto := ts.register(t, "Beto", nil)

	// flick is locked until first-drop completes.
	w := ts.do(t, http.MethodPost, "/api/me/actions", maria.Token, ActionRequest{Type: "take_photo", Subject: "piece"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	ts.drop(t, maria.Token, DropRequest{SurfaceID: "wall", StyleID: "tag", Lat: plaza.Lat, Lng: plaza.Lng})

	var last ActionResponse
	for i := 0; i < 3; i++ {
		w := ts.do(t, http.MethodPost, "/api/me/actions", maria.Token, ActionRequest{Type: "take_photo", Subject: "piece"})
		if w.Code != http.StatusOK {
			t.Fatalf("photo %d: expected 200, got %d: %s", i, w.Code, w.Body.String())
		}
		last = ActionResponse{}
		json.NewDecoder(w.Body).Decode(&last)
	}
	if len(last.Missions) != 1 || last.Missions[0].MissionID != "flick" {
		t.Fatalf("missions = %+v", last.Missions)
	}
	// 13 drop + 10 first-drop + 15 flick
	if last.Player.Progress.Rep != 38 {
		t.Errorf("rep = %d, want 38", last.Player.Progress.Rep)
	}

	// A fourth photo changes nothing.
	w = ts.do(t, http.MethodPost, "/api/me/actions", maria.Token, ActionRequest{Type: "take_photo", Subject: "piece"})
	var again ActionResponse
	json.NewDecoder(w.Body).Decode(&again)
	if len(again.Missions) != 0 || again.Player.Progress.Rep != 38 {
		t.Errorf("repeat photo = %+v", again)
	}

	w = ts.do(t, http.MethodPost, "/api/me/actions", maria.Token, ActionRequest{Type: "collaborate", PartnerID: beto.Player.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("collaborate: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestActionsRejectBadInput(t *testing.T) {
	ts := newTestServer(t)
	reg := ts.register(t, "Maria", nil)

	tests := []struct {
		name   string
		req    ActionRequest
		status int
	}{
		{"unknown type", ActionRequest{Type: "teleport"}, http.StatusBadRequest},
		{"place marker", ActionRequest{Type: "place_marker"}, http.StatusBadRequest},
		{"photo without subject", ActionRequest{Type: "take_photo"}, http.StatusBadRequest},
		{"reach without location", ActionRequest{Type: "reach_location"}, http.StatusBadRequest},
		{"reach bad coordinate", ActionRequest{Type: "reach_location", LocationID: "train-yard", At: &geo.Coordinate{Lat: 99}}, http.StatusBadRequest},
		{"collaborate with self", ActionRequest{Type: "collaborate", PartnerID: reg.Player.ID}, http.StatusBadRequest},
		{"unknown partner", ActionRequest{Type: "collaborate", PartnerID: "ghost"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/me/actions", reg.Token, tt.req)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestMissionsListForNewPlayer(t *testing.T) {
	ts := newTestServer(t)
	reg := ts.register(t, "Maria", nil)

	w := ts.do(t, http.MethodGet, "/api/me/missions", reg.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var missions []MissionResponse
	json.NewDecoder(w.Body).Decode(&missions)
	if len(missions) != 6 {
		t.Fatalf("got %d missions, want 6", len(missions))
	}
	for _, m := range missions {
		want := mission.StatusLocked
		if m.ID == "first-drop" {
			want = mission.StatusActive
		}
		if m.Status != want {
			t.Errorf("%s = %s, want %s", m.ID, m.Status, want)
		}
	}
}
