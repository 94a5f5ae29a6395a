package server

import (
	"errors"
	"net/http"

	"github.com/hacknet/portal/internal/contest"
	"github.com/hacknet/portal/internal/education"
	"github.com/hacknet/portal/internal/feedback"
	"github.com/hacknet/portal/internal/knowledge"
	"github.com/hacknet/portal/internal/profile"
)

// viewStatus picks the status for a page view returned alongside err.
// Backend failures are described inside the view itself and answer 200.
func viewStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case isAny(err,
		contest.ErrEmptyFlag, education.ErrEmptyFlag, education.ErrBadFilter,
		knowledge.ErrBadOrder, knowledge.ErrCommentLength,
		feedback.ErrUnknownTopic, feedback.ErrBadMessage, profile.ErrBadUsername):
		return http.StatusBadRequest
	case isAny(err, contest.ErrUnknownFlag, education.ErrUnknownMaterial):
		return http.StatusNotFound
	case isAny(err,
		contest.ErrBusy, contest.ErrStale, contest.ErrNoContest, contest.ErrNotJoined,
		education.ErrBusy, education.ErrStale, education.ErrNoTask,
		knowledge.ErrBusy, knowledge.ErrStale, knowledge.ErrNoArticle):
		return http.StatusConflict
	}
	return http.StatusOK
}

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
