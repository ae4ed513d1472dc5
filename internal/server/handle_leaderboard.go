package server

import (
	"net/http"
	"strconv"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// listLimit reads ?limit=, clamped to [1, maxListLimit].
func listLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}

func handleLeaderboard(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		top, err := svc.Board.Top(r.Context(), listLimit(r))
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, top)
	}
}
