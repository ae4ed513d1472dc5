package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/playperu/streetrep/internal/geo"
	"github.com/playperu/streetrep/internal/progression"
)

func TestCreatePlayer(t *testing.T) {
	ts := newTestServer(t)
	home := plaza

	resp := ts.register(t, "  Maria  ", &home)
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.Player.Name != "Maria" {
		t.Errorf("name = %q, want trimmed", resp.Player.Name)
	}
	if resp.Player.Progress != progression.New() {
		t.Errorf("progress = %+v", resp.Player.Progress)
	}
	if resp.Player.NextRank == nil || resp.Player.NextRank.Rank != progression.RankVandal || resp.Player.NextRank.Needed != 100 {
		t.Errorf("nextRank = %+v", resp.Player.NextRank)
	}
}

func TestCreatePlayerValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"blank name", CreatePlayerRequest{Name: "   "}},
		{"long name", CreatePlayerRequest{Name: "abcdefghijklmnopqrstuvwxyzabcdefghijklmnop"}},
		{"bad home", CreatePlayerRequest{Name: "Maria", Home: &geo.Coordinate{Lat: 95}}},
		{"not json", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/players", "", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestMeRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	if w := ts.do(t, http.MethodGet, "/api/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/me", "bogus", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", w.Code)
	}

	reg := ts.register(t, "Maria", nil)
	w := ts.do(t, http.MethodGet, "/api/me", reg.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var me PlayerResponse
	json.NewDecoder(w.Body).Decode(&me)
	if me.ID != reg.Player.ID {
		t.Errorf("me = %+v", me)
	}
}

func TestPositionListsNearbyMarkers(t *testing.T) {
	ts := newTestServer(t)
	reg := ts.register(t, "Maria", nil)

	ts.drop(t, reg.Token, DropRequest{SurfaceID: "wall", StyleID: "tag", Lat: plaza.Lat, Lng: plaza.Lng})
	far := geo.Destination(plaza, 0, 5000)
	ts.drop(t, reg.Token, DropRequest{SurfaceID: "wall", StyleID: "tag", Lat: far.Lat, Lng: far.Lng})

	w := ts.do(t, http.MethodPost, "/api/me/position", reg.Token, PositionRequest{Lat: plaza.Lat, Lng: plaza.Lng})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp PositionResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Nearby) != 1 {
		t.Fatalf("nearby = %d markers, want 1", len(resp.Nearby))
	}

	if w := ts.do(t, http.MethodPost, "/api/me/position", reg.Token, PositionRequest{Lat: 0, Lng: 200}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad coordinate: expected 400, got %d", w.Code)
	}
}
