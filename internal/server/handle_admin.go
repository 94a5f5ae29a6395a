package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/hacknet"
	"github.com/hacknet/portal/internal/messages"
	"github.com/hacknet/portal/internal/session"
)

// adminFail reports a failed admin call. Non-admins are sent back to the
// landing page.
func adminFail(w http.ResponseWriter, r *http.Request, d *Deps, err error, fallback string) {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		unauthorized(w, r, d)
	case errors.Is(err, backend.ErrForbidden):
		writeRedirect(w, http.StatusForbidden, backend.Detail(err, "forbidden"), session.LandingPath)
	default:
		respond(w, r, d, backendStatus(err), ErrorResponse{Error: backend.Detail(err, fallback)}, nil)
	}
}

func handleAdminDashboard(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dash, err := apiFrom(r).Dashboard(r.Context())
		if err != nil {
			if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, backend.ErrForbidden) {
				adminFail(w, r, d, err, "")
				return
			}
			writeError(w, http.StatusBadGateway, messages.Get("admin.load_failed"))
			return
		}
		respond(w, r, d, http.StatusOK, dash, nil)
	}
}

func handleAdminArticles(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		if offset < 0 {
			offset = 0
		}
		list, err := apiFrom(r).Articles(r.Context(), limit, offset)
		if err != nil {
			adminFail(w, r, d, err, messages.Get("admin.load_failed"))
			return
		}
		if list == nil {
			list = []hacknet.Article{}
		}
		respond(w, r, d, http.StatusOK, list, nil)
	}
}

func handleAdminCreateArticle(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in hacknet.ArticleInput
		if err := readJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if in.Source == "" {
			in.Source = "manual"
		}
		a, err := apiFrom(r).CreateArticle(r.Context(), in)
		if err != nil {
			adminFail(w, r, d, err, messages.Get("admin.article_failed"))
			return
		}
		respond(w, r, d, http.StatusCreated, a, nil)
	}
}

func handleAdminUpdateArticle(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid article id")
			return
		}
		var in hacknet.ArticleInput
		if err := readJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		a, err := apiFrom(r).UpdateArticle(r.Context(), id, in)
		if err != nil {
			adminFail(w, r, d, err, messages.Get("admin.article_failed"))
			return
		}
		respond(w, r, d, http.StatusOK, a, nil)
	}
}

func handleAdminDeleteArticle(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid article id")
			return
		}
		if err := apiFrom(r).DeleteArticle(r.Context(), id); err != nil {
			adminFail(w, r, d, err, messages.Get("admin.article_failed"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleAdminNVDSync(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := apiFrom(r).SyncNVD(r.Context())
		if err != nil {
			adminFail(w, r, d, err, messages.Get("admin.nvd_failed"))
			return
		}
		respond(w, r, d, http.StatusOK, res, nil)
	}
}
