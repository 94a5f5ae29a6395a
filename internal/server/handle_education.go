package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hacknet/portal/internal/education"
)

// PracticeFlagRequest is the request body for submitting a practice flag.
type PracticeFlagRequest struct {
	Flag string `json:"flag"`
}

// MaterialResponse tells the SPA how to use a resolved material.
type MaterialResponse struct {
	Outcome education.Outcome  `json:"outcome"`
	Task    education.TaskView `json:"task"`
}

func handleEducationTasks(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		v, err := workspaceFrom(r, d).Catalog.Load(r.Context(), apiFrom(r), education.Filter{
			Difficulty: q.Get("difficulty"),
			Category:   q.Get("category"),
			Status:     q.Get("status"),
		})
		respond(w, r, d, viewStatus(err), v, err)
	}
}

func handleEducationTask(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(chi.URLParam(r, "taskID"))
		v, err := workspaceFrom(r, d).Task.Load(r.Context(), apiFrom(r), id)
		respond(w, r, d, viewStatus(err), v, err)
	}
}

// openTask makes sure the task page shows id, loading it when the session
// last looked at another task.
func openTask(r *http.Request, page *education.TaskPage) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "taskID"))
	if err != nil || id <= 0 {
		return 0, education.ErrNoTask
	}
	if v := page.View(); v.Task != nil && v.Task.ID == id {
		return id, nil
	}
	if _, err := page.Load(r.Context(), apiFrom(r), id); err != nil {
		return id, err
	}
	return id, nil
}

func handleEducationSubmit(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PracticeFlagRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		page := workspaceFrom(r, d).Task
		if _, err := openTask(r, page); err != nil {
			respond(w, r, d, viewStatus(err), page.View(), err)
			return
		}
		v, err := page.Submit(r.Context(), apiFrom(r), req.Flag)
		respond(w, r, d, viewStatus(err), v, err)
	}
}

func handleEducationMaterial(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := workspaceFrom(r, d).Task
		if _, err := openTask(r, page); err != nil {
			respond(w, r, d, viewStatus(err), page.View(), err)
			return
		}
		materialID, err := strconv.Atoi(chi.URLParam(r, "materialID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid material id")
			return
		}
		out, v, err := page.OpenMaterial(r.Context(), apiFrom(r), materialID)
		respond(w, r, d, viewStatus(err), MaterialResponse{Outcome: out, Task: v}, err)
	}
}
