package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, svc *Services) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("StreetRep API", "/openapi.json", "/docs"))

	// Feeds authenticate with a token query parameter.
	r.Get("/api/me/feed", handleFeed(svc))
	r.Get("/ws/feed", handleWSFeed(svc))

	r.Route("/api", func(r chi.Router) {
		r.Post("/players", handleCreatePlayer(svc))
		r.Get("/surfaces", handleSurfaces(svc))
		r.Get("/preview", handlePreview(svc))
		r.Get("/leaderboard", handleLeaderboard(svc))
		r.Get("/events", handleListEvents(svc))

		r.Group(func(r chi.Router) {
			r.Use(playerAuth(svc))
			r.Get("/me", handleMe(svc))
			r.Post("/me/position", handlePosition(svc))
			r.Post("/me/drops", handleDrop(svc))
			r.Post("/me/actions", handleAction(svc))
			r.Get("/me/missions", handleMissions(svc))
			r.Post("/events/{id}/investigate", handleInvestigate(svc))
			r.Post("/events/{id}/resolve", handleResolve(svc))
		})
	})
}
