package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hacknet/portal/internal/messages"
)

// handleProfileEvents streams profile updates for the signed-in user as
// server-sent events.
func handleProfileEvents(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := apiFrom(r).Profile(r.Context())
		if err != nil {
			respond(w, r, d, backendStatus(err), ErrorResponse{Error: messages.Get("profile.load_failed")}, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		updates, unsubscribe := d.Broker.Subscribe(p.ID)
		defer unsubscribe()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-updates:
				fmt.Fprintf(w, "event: profile\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
