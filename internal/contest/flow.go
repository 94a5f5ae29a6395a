// Package contest runs a participant's championship page: loading the
// active contest, joining it, and submitting the flags of the current task.
package contest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/hacknet"
	"github.com/hacknet/portal/internal/messages"
)

var (
	ErrBusy        = errors.New("another flag submission is in flight")
	ErrEmptyFlag   = errors.New("flag value is empty")
	ErrNoContest   = errors.New("no contest loaded")
	ErrNotJoined   = errors.New("contest not joined or already finished")
	ErrUnknownFlag = errors.New("flag is not required by the current task")
	ErrStale       = errors.New("result discarded: flow was reloaded or closed")
)

// API is the slice of the backend the flow talks to.
type API interface {
	ActiveContest(ctx context.Context) (hacknet.Contest, error)
	CurrentTask(ctx context.Context, contestID int) (hacknet.TaskState, error)
	JoinContest(ctx context.Context, contestID int) (hacknet.JoinResult, error)
	SubmitContestFlag(ctx context.Context, contestID int, sub hacknet.FlagSubmission) (hacknet.SubmissionResult, error)
	ContestLeaderboard(ctx context.Context, contestID int) (hacknet.ContestLeaderboard, error)
	ContestResults(ctx context.Context, contestID int) (hacknet.ContestResults, error)
}

type State int

const (
	Loading State = iota
	Error
	NoContest
	Unjoined
	JoinedActive
	JoinedFinished
)

var stateNames = [...]string{"loading", "error", "no_contest", "unjoined", "joined_active", "joined_finished"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Flow is one participant's view of the active contest. All methods are
// safe for concurrent use; backend calls run without the lock held.
type Flow struct {
	mu    sync.Mutex
	epoch uint64
	now   func() time.Time

	state    State
	contest  *hacknet.Contest
	task     *hacknet.TaskState
	inactive bool
	errMsg   string
	message  string
	flags    map[string]string

	// submitting is the flag of the submit in flight and submitToken its
	// token. Both survive Load; Close releases them.
	submitting  string
	submitToken uint64
	submits     uint64

	leaderboard    *hacknet.ContestLeaderboard
	leaderboardErr string
	results        *hacknet.ContestResults
	resultsErr     string
}

func NewFlow() *Flow {
	return &Flow{now: time.Now, flags: map[string]string{}}
}

// Load fetches the active contest and the participant's current task.
// It supersedes any call still in flight.
func (f *Flow) Load(ctx context.Context, api API) (View, error) {
	f.mu.Lock()
	f.epoch++
	epoch := f.epoch
	f.reset()
	f.mu.Unlock()

	c, err := api.ActiveContest(ctx)
	if err != nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.epoch != epoch {
			return f.viewLocked(), ErrStale
		}
		if backend.StatusOf(err) == http.StatusNotFound {
			f.state = NoContest
			return f.viewLocked(), nil
		}
		f.state = Error
		f.errMsg = messages.Get("contest.load_failed")
		return f.viewLocked(), err
	}
	if c.ID == 0 {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.epoch != epoch {
			return f.viewLocked(), ErrStale
		}
		f.state = NoContest
		return f.viewLocked(), nil
	}

	st, err := api.CurrentTask(ctx, c.ID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != epoch {
		return f.viewLocked(), ErrStale
	}
	f.contest = &c
	if err != nil {
		switch backend.StatusOf(err) {
		case http.StatusBadRequest:
			f.state = Unjoined
			f.inactive = true
			return f.viewLocked(), nil
		case http.StatusForbidden:
			f.state = Unjoined
			return f.viewLocked(), nil
		}
		f.state = Error
		f.errMsg = messages.Get("contest.current_task_failed")
		return f.viewLocked(), err
	}
	f.applyTaskLocked(st)
	return f.viewLocked(), nil
}

// Join enrolls the participant. The contest summary is refreshed on a
// best-effort basis; the current task must load for the join to count.
func (f *Flow) Join(ctx context.Context, api API) (View, error) {
	f.mu.Lock()
	if f.contest == nil {
		v := f.viewLocked()
		f.mu.Unlock()
		return v, ErrNoContest
	}
	epoch := f.epoch
	contestID := f.contest.ID
	f.mu.Unlock()

	fail := func(err error) (View, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.epoch != epoch {
			return f.viewLocked(), ErrStale
		}
		f.message = backend.Detail(err, messages.Get("contest.join_failed"))
		return f.viewLocked(), err
	}

	if _, err := api.JoinContest(ctx, contestID); err != nil {
		return fail(err)
	}
	refreshed, refreshErr := api.ActiveContest(ctx)
	st, err := api.CurrentTask(ctx, contestID)
	if err != nil {
		return fail(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != epoch {
		return f.viewLocked(), ErrStale
	}
	if refreshErr == nil && refreshed.ID == contestID {
		f.contest = &refreshed
	}
	f.inactive = false
	f.errMsg = ""
	f.message = ""
	f.flags = map[string]string{}
	f.applyTaskLocked(st)
	return f.viewLocked(), nil
}

// SetFlagValue records what the participant typed for one required flag.
func (f *Flow) SetFlagValue(flagID, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.requiresLocked(flagID) {
		return ErrUnknownFlag
	}
	f.flags[flagID] = value
	return nil
}

// Submit sends value for flagID of the current task. A blank value or a
// submission while another is in flight is a no-op that sends nothing.
func (f *Flow) Submit(ctx context.Context, api API, flagID, value string) (View, error) {
	trimmed := strings.TrimSpace(value)

	f.mu.Lock()
	if trimmed == "" {
		v := f.viewLocked()
		f.mu.Unlock()
		return v, ErrEmptyFlag
	}
	if f.submitting != "" {
		v := f.viewLocked()
		f.mu.Unlock()
		return v, ErrBusy
	}
	if f.contest == nil || f.state != JoinedActive || f.task == nil || f.task.Task == nil {
		v := f.viewLocked()
		f.mu.Unlock()
		return v, ErrNotJoined
	}
	if !f.requiresLocked(flagID) {
		v := f.viewLocked()
		f.mu.Unlock()
		return v, ErrUnknownFlag
	}
	f.flags[flagID] = value
	f.submits++
	token := f.submits
	f.submitting, f.submitToken = flagID, token
	f.message = ""
	epoch := f.epoch
	contestID := f.contest.ID
	prevTaskID := f.task.Task.ID
	f.mu.Unlock()

	res, err := api.SubmitContestFlag(ctx, contestID, hacknet.FlagSubmission{
		TaskID: prevTaskID,
		FlagID: flagID,
		Flag:   trimmed,
	})
	var st hacknet.TaskState
	if err == nil && res.IsCorrect {
		st, err = api.CurrentTask(ctx, contestID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitToken == token {
		f.submitting, f.submitToken = "", 0
	}
	if f.epoch != epoch {
		return f.viewLocked(), ErrStale
	}
	if err != nil {
		f.message = backend.Detail(err, messages.Get("contest.submit_failed"))
		return f.viewLocked(), err
	}
	if !res.IsCorrect {
		f.message = messages.Get("contest.flag_incorrect")
		return f.viewLocked(), nil
	}

	f.applyTaskLocked(st)
	switch {
	case res.Finished || st.Finished:
		f.state = JoinedFinished
		f.message = messages.Get("contest.finished")
	case st.Task != nil && st.Task.ID == prevTaskID:
		if remaining := st.Task.RemainingFlags(); remaining > 0 {
			f.message = messages.Format("contest.flag_accepted_remaining", remaining)
		} else {
			f.message = messages.Get("contest.flag_accepted")
		}
		if _, ok := f.flags[flagID]; ok {
			f.flags[flagID] = ""
		}
	default:
		f.message = messages.Get("contest.next_task_ready")
		for id := range f.flags {
			f.flags[id] = ""
		}
	}
	return f.viewLocked(), nil
}

// Leaderboard loads the contest standings for the results tab. Failures
// stay inline. Inactive contests are not queried.
func (f *Flow) Leaderboard(ctx context.Context, api API) (View, error) {
	f.mu.Lock()
	if f.contest == nil {
		v := f.viewLocked()
		f.mu.Unlock()
		return v, ErrNoContest
	}
	if f.inactive {
		v := f.viewLocked()
		f.mu.Unlock()
		return v, nil
	}
	epoch, contestID := f.epoch, f.contest.ID
	f.leaderboardErr = ""
	f.mu.Unlock()

	lb, err := api.ContestLeaderboard(ctx, contestID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != epoch {
		return f.viewLocked(), ErrStale
	}
	if err != nil {
		f.leaderboard = nil
		f.leaderboardErr = backend.Detail(err, messages.Get("contest.leaderboard_failed"))
		return f.viewLocked(), err
	}
	f.leaderboard = &lb
	return f.viewLocked(), nil
}

// Results loads the participant's own solve breakdown.
func (f *Flow) Results(ctx context.Context, api API) (View, error) {
	f.mu.Lock()
	if f.contest == nil {
		v := f.viewLocked()
		f.mu.Unlock()
		return v, ErrNoContest
	}
	if f.inactive {
		v := f.viewLocked()
		f.mu.Unlock()
		return v, nil
	}
	epoch, contestID := f.epoch, f.contest.ID
	f.resultsErr = ""
	f.mu.Unlock()

	res, err := api.ContestResults(ctx, contestID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != epoch {
		return f.viewLocked(), ErrStale
	}
	if err != nil {
		f.results = nil
		f.resultsErr = backend.Detail(err, messages.Get("contest.results_failed"))
		return f.viewLocked(), err
	}
	f.results = &res
	return f.viewLocked(), nil
}

// View returns the current state without touching the backend.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

// Close discards the flow's state. Calls still in flight complete but
// their results are dropped.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.epoch++
	f.reset()
	f.submitting, f.submitToken = "", 0
}

func (f *Flow) reset() {
	f.state = Loading
	f.contest = nil
	f.task = nil
	f.inactive = false
	f.errMsg = ""
	f.message = ""
	f.flags = map[string]string{}
	f.leaderboard = nil
	f.leaderboardErr = ""
	f.results = nil
	f.resultsErr = ""
}

// applyTaskLocked stores st and rebuilds the flag inputs for the task's
// required flags, keeping values already typed for flags that remain.
func (f *Flow) applyTaskLocked(st hacknet.TaskState) {
	f.task = &st
	if st.Finished {
		f.state = JoinedFinished
	} else {
		f.state = JoinedActive
	}
	next := map[string]string{}
	if st.Task != nil {
		for _, rf := range st.Task.RequiredFlags {
			next[rf.FlagID] = f.flags[rf.FlagID]
		}
	}
	f.flags = next
}

func (f *Flow) requiresLocked(flagID string) bool {
	if f.task == nil || f.task.Task == nil {
		return false
	}
	for _, rf := range f.task.Task.RequiredFlags {
		if rf.FlagID == flagID {
			return true
		}
	}
	return false
}
