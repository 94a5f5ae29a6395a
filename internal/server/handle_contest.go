package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hacknet/portal/internal/contest"
)

// FlagRequest is the request body for the contest flag endpoints.
type FlagRequest struct {
	Value string `json:"value"`
}

// ensureContest loads the flow when this session has never opened the
// championship page.
func ensureContest(r *http.Request, f *contest.Flow) error {
	if v := f.View(); v.State == contest.Loading && v.Contest == nil {
		_, err := f.Load(r.Context(), apiFrom(r))
		return err
	}
	return nil
}

func handleContestGet(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := workspaceFrom(r, d).Contest.Load(r.Context(), apiFrom(r))
		respond(w, r, d, viewStatus(err), v, err)
	}
}

func handleContestJoin(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow := workspaceFrom(r, d).Contest
		if err := ensureContest(r, flow); err != nil {
			respond(w, r, d, viewStatus(err), flow.View(), err)
			return
		}
		v, err := flow.Join(r.Context(), apiFrom(r))
		respond(w, r, d, viewStatus(err), v, err)
	}
}

// handleContestFlagValue keeps a typed but unsent flag so it survives a
// reload of the page view.
func handleContestFlagValue(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FlagRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		flow := workspaceFrom(r, d).Contest
		err := flow.SetFlagValue(chi.URLParam(r, "flagID"), req.Value)
		respond(w, r, d, viewStatus(err), flow.View(), err)
	}
}

func handleContestSubmit(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FlagRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		flow := workspaceFrom(r, d).Contest
		if err := ensureContest(r, flow); err != nil {
			respond(w, r, d, viewStatus(err), flow.View(), err)
			return
		}
		v, err := flow.Submit(r.Context(), apiFrom(r), chi.URLParam(r, "flagID"), req.Value)
		respond(w, r, d, viewStatus(err), v, err)
	}
}

func handleContestLeaderboard(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow := workspaceFrom(r, d).Contest
		if err := ensureContest(r, flow); err != nil {
			respond(w, r, d, viewStatus(err), flow.View(), err)
			return
		}
		v, err := flow.Leaderboard(r.Context(), apiFrom(r))
		respond(w, r, d, viewStatus(err), v, err)
	}
}

func handleContestResults(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow := workspaceFrom(r, d).Contest
		if err := ensureContest(r, flow); err != nil {
			respond(w, r, d, viewStatus(err), flow.View(), err)
			return
		}
		v, err := flow.Results(r.Context(), apiFrom(r))
		respond(w, r, d, viewStatus(err), v, err)
	}
}
