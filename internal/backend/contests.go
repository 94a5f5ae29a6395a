package backend

import (
	"context"
	"fmt"

	"github.com/hacknet/portal/internal/hacknet"
)

func (c *Client) ActiveContest(ctx context.Context) (hacknet.Contest, error) {
	var ct hacknet.Contest
	err := c.get(ctx, "/contests/active", nil, &ct)
	return ct, err
}

// CurrentTask returns the participant's task state. The backend answers
// 400 when the contest is not running and 403 when the viewer has not
// joined.
func (c *Client) CurrentTask(ctx context.Context, contestID int) (hacknet.TaskState, error) {
	var st hacknet.TaskState
	err := c.get(ctx, fmt.Sprintf("/contests/%d/current-task", contestID), nil, &st)
	return st, err
}

func (c *Client) JoinContest(ctx context.Context, contestID int) (hacknet.JoinResult, error) {
	var res hacknet.JoinResult
	err := c.post(ctx, fmt.Sprintf("/contests/%d/join", contestID), nil, &res)
	return res, err
}

func (c *Client) SubmitContestFlag(ctx context.Context, contestID int, sub hacknet.FlagSubmission) (hacknet.SubmissionResult, error) {
	var res hacknet.SubmissionResult
	err := c.post(ctx, fmt.Sprintf("/contests/%d/submit", contestID), sub, &res)
	return res, err
}

func (c *Client) ContestLeaderboard(ctx context.Context, contestID int) (hacknet.ContestLeaderboard, error) {
	var lb hacknet.ContestLeaderboard
	err := c.get(ctx, fmt.Sprintf("/contests/%d/leaderboard", contestID), nil, &lb)
	return lb, err
}

func (c *Client) ContestResults(ctx context.Context, contestID int) (hacknet.ContestResults, error) {
	var res hacknet.ContestResults
	err := c.get(ctx, fmt.Sprintf("/contests/%d/my-results", contestID), nil, &res)
	return res, err
}
