package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hacknet/portal/internal/hacknet"
)

// PracticeFilter narrows the practice catalog. Empty fields are omitted.
type PracticeFilter struct {
	Difficulty string
	Category   string
	Status     string
	Limit      int
	Offset     int
}

func (f PracticeFilter) values() url.Values {
	q := url.Values{}
	if f.Difficulty != "" {
		q.Set("difficulty", f.Difficulty)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	q.Set("offset", strconv.Itoa(f.Offset))
	return q
}

func (c *Client) PracticeTasks(ctx context.Context, f PracticeFilter) (hacknet.PracticeTaskList, error) {
	var list hacknet.PracticeTaskList
	err := c.get(ctx, "/education/practice/tasks", f.values(), &list)
	return list, err
}

func (c *Client) PracticeTask(ctx context.Context, taskID int) (hacknet.PracticeTask, error) {
	var t hacknet.PracticeTask
	err := c.get(ctx, fmt.Sprintf("/education/practice/tasks/%d", taskID), nil, &t)
	return t, err
}

func (c *Client) SubmitPracticeFlag(ctx context.Context, taskID int, sub hacknet.PracticeSubmission) (hacknet.PracticeSubmitResult, error) {
	var res hacknet.PracticeSubmitResult
	err := c.post(ctx, fmt.Sprintf("/education/practice/tasks/%d/submit", taskID), sub, &res)
	return res, err
}

// MaterialDownload asks the backend for a signed download descriptor.
func (c *Client) MaterialDownload(ctx context.Context, taskID, materialID int) (hacknet.DownloadDescriptor, error) {
	var d hacknet.DownloadDescriptor
	err := c.post(ctx, fmt.Sprintf("/education/practice/tasks/%d/materials/%d/download", taskID, materialID), nil, &d)
	return d, err
}
