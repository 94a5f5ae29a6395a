package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/knowledge"
	"github.com/hacknet/portal/internal/messages"
)

// CommentRequest is the request body for posting a comment.
type CommentRequest struct {
	Body string `json:"body"`
}

func handleKnowledgeEntries(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		v, err := workspaceFrom(r, d).Listing.Load(r.Context(), apiFrom(r), knowledge.Query{
			Page:  page,
			Order: q.Get("order"),
			Tag:   q.Get("tag"),
		})
		respond(w, r, d, viewStatus(err), v, err)
	}
}

func handleKnowledgeTags(d *Deps, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := apiFrom(r).KnowledgeTags(r.Context())
		if err != nil {
			logger.Warn("loading knowledge tags", "error", err)
			respond(w, r, d, backendStatus(err), ErrorResponse{Error: backend.Detail(err, messages.Get("knowledge.entries_failed"))}, err)
			return
		}
		if tags == nil {
			tags = []string{}
		}
		respond(w, r, d, http.StatusOK, tags, nil)
	}
}

func handleKnowledgeArticle(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(chi.URLParam(r, "entryID"))
		v, err := workspaceFrom(r, d).Article.Load(r.Context(), apiFrom(r), id)
		respond(w, r, d, viewStatus(err), v, err)
	}
}

func handleKnowledgeComment(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CommentRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		article := workspaceFrom(r, d).Article
		id, _ := strconv.Atoi(chi.URLParam(r, "entryID"))
		if v := article.View(); v.Entry == nil || v.Entry.ID != id {
			if v, err := article.Load(r.Context(), apiFrom(r), id); err != nil || v.Entry == nil {
				respond(w, r, d, viewStatus(err), v, err)
				return
			}
		}
		v, err := article.PostComment(r.Context(), apiFrom(r), req.Body)
		respond(w, r, d, viewStatus(err), v, err)
	}
}
