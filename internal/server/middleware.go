package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/playperu/streetrep/internal/store"
)

type ctxKey int

const (
	ctxKeyPlayer ctxKey = iota
)

// playerAuth requires a bearer token and puts the player in the context.
func playerAuth(svc *Services) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := playerFromToken(r, svc.Store, bearerToken(r))
			if errors.Is(err, errNoSession) {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if err != nil {
				writeDomainError(w, svc.Logger, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyPlayer, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func playerFrom(r *http.Request) store.Player {
	return r.Context().Value(ctxKeyPlayer).(store.Player)
}
