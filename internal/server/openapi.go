package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/streetrep/internal/leaderboard"
	"github.com/playperu/streetrep/internal/scoring"
	"github.com/playperu/streetrep/internal/worldevent"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthStatus is one entry of the /healthz response, keyed by dependency.
type HealthStatus struct {
	Status string `json:"status"`
}

type EventPath struct {
	ID string `path:"id"`
}

type TokenQuery struct {
	Token string `query:"token" required:"true"`
}

type LimitQuery struct {
	Limit int `query:"limit" minimum:"1" maximum:"100"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "StreetRep API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the StreetRep location game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/players
	postPlayer, _ := r.NewOperationContext(http.MethodPost, "/api/players")
	postPlayer.SetSummary("Register player")
	postPlayer.SetDescription("Creates a player and returns the bearer token for later requests.")
	postPlayer.AddReqStructure(CreatePlayerRequest{})
	postPlayer.AddRespStructure(CreatePlayerResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postPlayer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postPlayer)

	// GET /api/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/me")
	getMe.SetSummary("Current player")
	getMe.SetDescription("Returns REP, rank, level, streak and the next rank. Requires Bearer token.")
	getMe.AddRespStructure(PlayerResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// POST /api/me/position
	postPosition, _ := r.NewOperationContext(http.MethodPost, "/api/me/position")
	postPosition.SetSummary("Report position")
	postPosition.SetDescription("Records the player's location and lists markers nearby. Requires Bearer token.")
	postPosition.AddReqStructure(PositionRequest{})
	postPosition.AddRespStructure(PositionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postPosition.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postPosition.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postPosition)

	// POST /api/me/drops
	postDrop, _ := r.NewOperationContext(http.MethodPost, "/api/me/drops")
	postDrop.SetSummary("Place marker")
	postDrop.SetDescription("Scores a marker placement, credits REP and advances missions. Requires Bearer token.")
	postDrop.AddReqStructure(DropRequest{})
	postDrop.AddRespStructure(DropResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postDrop.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postDrop.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postDrop)

	// POST /api/me/actions
	postAction, _ := r.NewOperationContext(http.MethodPost, "/api/me/actions")
	postAction.SetSummary("Report action")
	postAction.SetDescription("Feeds a take_photo, reach_location or collaborate action to the player's missions. Requires Bearer token.")
	postAction.AddReqStructure(ActionRequest{})
	postAction.AddRespStructure(ActionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postAction)

	// GET /api/me/missions
	getMissions, _ := r.NewOperationContext(http.MethodGet, "/api/me/missions")
	getMissions.SetSummary("List missions")
	getMissions.SetDescription("Returns every mission with its status and objective counts. Requires Bearer token.")
	getMissions.AddRespStructure([]MissionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMissions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMissions)

	// GET /api/me/feed
	getFeed, _ := r.NewOperationContext(http.MethodGet, "/api/me/feed")
	getFeed.SetSummary("SSE feed")
	getFeed.SetDescription("Server-Sent Events stream of drops, promotions, missions and blackouts. Pass token as query parameter.")
	getFeed.AddReqStructure(TokenQuery{})
	getFeed.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getFeed.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getFeed)

	// GET /ws/feed
	getWSFeed, _ := r.NewOperationContext(http.MethodGet, "/ws/feed")
	getWSFeed.SetSummary("WebSocket feed")
	getWSFeed.SetDescription("Upgrades to a WebSocket that carries the same events as the SSE feed. Pass token as query parameter.")
	getWSFeed.AddReqStructure(TokenQuery{})
	getWSFeed.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	getWSFeed.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getWSFeed)

	// GET /api/surfaces
	getSurfaces, _ := r.NewOperationContext(http.MethodGet, "/api/surfaces")
	getSurfaces.SetSummary("Surface catalog")
	getSurfaces.SetDescription("Returns surfaces with their multipliers and graffiti styles.")
	getSurfaces.AddRespStructure(CatalogResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getSurfaces)

	// GET /api/preview
	getPreview, _ := r.NewOperationContext(http.MethodGet, "/api/preview")
	getPreview.SetSummary("Preview REP")
	getPreview.SetDescription("Scores a hypothetical drop without recording it.")
	getPreview.AddReqStructure(PreviewQuery{})
	getPreview.AddRespStructure(scoring.Breakdown{}, openapi.WithHTTPStatus(http.StatusOK))
	getPreview.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getPreview)

	// GET /api/leaderboard
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard")
	getBoard.SetSummary("Leaderboard")
	getBoard.SetDescription("Top players by REP.")
	getBoard.AddReqStructure(LimitQuery{})
	getBoard.AddRespStructure([]leaderboard.Standing{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getBoard)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("World events")
	getEvents.SetDescription("Lists blackouts, unsolved first.")
	getEvents.AddReqStructure(LimitQuery{})
	getEvents.AddRespStructure([]worldevent.Event{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getEvents)

	// POST /api/events/{id}/investigate
	postInvestigate, _ := r.NewOperationContext(http.MethodPost, "/api/events/{id}/investigate")
	postInvestigate.SetSummary("Investigate blackout")
	postInvestigate.SetDescription("Joins the investigation of an unsolved blackout. Requires Bearer token.")
	postInvestigate.AddReqStructure(EventPath{})
	postInvestigate.AddRespStructure(worldevent.Event{}, openapi.WithHTTPStatus(http.StatusOK))
	postInvestigate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postInvestigate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postInvestigate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postInvestigate)

	// POST /api/events/{id}/resolve
	postResolve, _ := r.NewOperationContext(http.MethodPost, "/api/events/{id}/resolve")
	postResolve.SetSummary("Solve blackout")
	postResolve.SetDescription("Marks a blackout solved. The caller must be investigating it. Solving twice is a no-op. Requires Bearer token.")
	postResolve.AddReqStructure(EventPath{})
	postResolve.AddRespStructure(worldevent.Event{}, openapi.WithHTTPStatus(http.StatusOK))
	postResolve.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postResolve.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postResolve.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postResolve)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
