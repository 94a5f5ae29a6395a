package server

import (
	"net/http"

	"github.com/hacknet/portal/internal/feedback"
)

// FeedbackRequest is the request body for POST /api/feedback.
type FeedbackRequest struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

// FeedbackTopicsResponse lists the topics the form offers.
type FeedbackTopicsResponse struct {
	Topics   []string `json:"topics"`
	MaxRunes int      `json:"max_runes"`
}

func handleFeedbackTopics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, FeedbackTopicsResponse{Topics: feedback.Topics, MaxRunes: feedback.MaxRunes})
	}
}

func handleFeedback(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FeedbackRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		res, err := feedback.Submit(r.Context(), apiFrom(r), req.Topic, req.Message)
		respond(w, r, d, viewStatus(err), res, err)
	}
}
