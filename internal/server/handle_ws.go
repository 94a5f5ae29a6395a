package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/hacknet/portal/internal/messages"
)

// handleProfileSocket pushes the same updates as handleProfileEvents over a
// websocket. Client frames are read and discarded so close frames and
// pings are handled.
func handleProfileSocket(d *Deps, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := apiFrom(r).Profile(r.Context())
		if err != nil {
			respond(w, r, d, backendStatus(err), ErrorResponse{Error: messages.Get("profile.load_failed")}, err)
			return
		}

		updates, unsubscribe := d.Broker.Subscribe(p.ID)
		defer unsubscribe()

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Hour)
		defer cancel()
		ctx = conn.CloseRead(ctx)

		for {
			select {
			case <-ctx.Done():
				logger.Debug("websocket closed", "user_id", p.ID, "error", ctx.Err())
				return
			case data := <-updates:
				wctx, wcancel := context.WithTimeout(ctx, 10*time.Second)
				err := conn.Write(wctx, websocket.MessageText, data)
				wcancel()
				if err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}
}
