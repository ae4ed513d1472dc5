package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// handleWSFeed pushes the player's feed over a WebSocket as text frames,
// one JSON event per frame. Client frames are ignored.
func handleWSFeed(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := playerFromToken(r, svc.Store, r.URL.Query().Get("token"))
		if errors.Is(err, errNoSession) {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		if err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}

		ch := svc.Broker.Subscribe(p.ID)
		defer svc.Broker.Unsubscribe(p.ID, ch)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			svc.Logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		// CloseRead handles control frames and cancels ctx once the peer
		// goes away.
		ctx := conn.CloseRead(r.Context())

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				svc.Logger.Debug("websocket feed ended", "player_id", p.ID, "error", ctx.Err())
				return
			case data := <-ch:
				wctx, cancel := context.WithTimeout(ctx, 10*time.Second)
				err := conn.Write(wctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					svc.Logger.Debug("websocket write failed", "error", err)
					return
				}
			case <-ping.C:
				pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
				err := conn.Ping(pctx)
				cancel()
				if err != nil {
					return
				}
			}
		}
	}
}
