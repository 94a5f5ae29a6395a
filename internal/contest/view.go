package contest

import (
	"maps"

	"github.com/hacknet/portal/internal/hacknet"
)

// View is the render-ready snapshot of a Flow.
type View struct {
	State     State              `json:"state"`
	Contest   *hacknet.Contest   `json:"contest,omitempty"`
	TaskState *hacknet.TaskState `json:"task_state,omitempty"`

	// Inactive is set when the backend refused the current task with 400.
	Inactive bool `json:"inactive"`
	// Obscured asks the page to blur contest content. It is not an access
	// check; the backend guards the data.
	Obscured bool `json:"obscured"`

	Error            string            `json:"error,omitempty"`
	Message          string            `json:"message,omitempty"`
	FlagValues       map[string]string `json:"flag_values"`
	SubmittingFlagID string            `json:"submitting_flag_id,omitempty"`

	TasksTotal              int    `json:"tasks_total"`
	TasksSolved             int    `json:"tasks_solved"`
	TaskProgressPercent     int    `json:"task_progress_percent"`
	DeadlineProgressPercent int    `json:"deadline_progress_percent"`
	DaysLeftLabel           string `json:"days_left_label,omitempty"`

	Leaderboard      *hacknet.ContestLeaderboard `json:"leaderboard,omitempty"`
	LeaderboardError string                      `json:"leaderboard_error,omitempty"`
	Results          *hacknet.ContestResults     `json:"results,omitempty"`
	ResultsError     string                      `json:"results_error,omitempty"`
}

// CanJoin reports whether the join action should be offered.
func (v View) CanJoin() bool {
	return v.State == Unjoined && !v.Inactive
}

func (f *Flow) viewLocked() View {
	v := View{
		State:            f.state,
		Inactive:         f.inactive,
		Error:            f.errMsg,
		Message:          f.message,
		FlagValues:       maps.Clone(f.flags),
		SubmittingFlagID: f.submitting,
		LeaderboardError: f.leaderboardErr,
		ResultsError:     f.resultsErr,
	}
	if v.FlagValues == nil {
		v.FlagValues = map[string]string{}
	}
	if f.contest != nil {
		c := *f.contest
		v.Contest = &c
		v.Obscured = !c.IsPublic || f.inactive
		v.TasksTotal = c.TasksTotal
		v.TasksSolved = c.TasksSolved
		v.DeadlineProgressPercent = DeadlineProgressPercent(c.StartAt.Time, c.EndAt.Time, f.now())
		v.DaysLeftLabel = DaysLeftLabel(c.DaysLeft)
	}
	if f.task != nil {
		st := *f.task
		v.TaskState = &st
		v.TasksTotal = st.TasksTotal
		v.TasksSolved = len(st.SolvedTaskIDs)
	}
	v.TaskProgressPercent = TaskProgressPercent(v.TasksSolved, v.TasksTotal)
	if f.leaderboard != nil {
		lb := *f.leaderboard
		v.Leaderboard = &lb
	}
	if f.results != nil {
		r := *f.results
		v.Results = &r
	}
	return v
}
