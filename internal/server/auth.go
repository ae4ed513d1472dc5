package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/playperu/streetrep/internal/store"
)

var errNoSession = errors.New("no valid session")

func bearerToken(r *http.Request) string {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

// playerFromToken resolves a session token. Unknown tokens yield
// errNoSession; store failures are returned as is.
func playerFromToken(r *http.Request, st *store.Store, token string) (store.Player, error) {
	if token == "" {
		return store.Player{}, errNoSession
	}
	p, err := st.PlayerByToken(r.Context(), token)
	if errors.Is(err, store.ErrNotFound) {
		return store.Player{}, errNoSession
	}
	return p, err
}
