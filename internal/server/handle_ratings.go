package server

import (
	"errors"
	"net/http"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/messages"
)

func handleRatings(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := r.URL.Query().Get("kind")
		if kind == "" {
			kind = backend.KindContest
		}
		lb, err := apiFrom(r).Leaderboard(r.Context(), kind)
		switch {
		case errors.Is(err, backend.ErrUnknownKind):
			writeError(w, http.StatusBadRequest, err.Error())
		case err != nil:
			respond(w, r, d, backendStatus(err), ErrorResponse{Error: backend.Detail(err, messages.Get("ratings.load_failed"))}, err)
		default:
			respond(w, r, d, http.StatusOK, lb, nil)
		}
	}
}
