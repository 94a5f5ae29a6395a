package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hacknet/portal/internal/hacknet"
)

// Leaderboard kinds accepted by the ratings endpoint.
const (
	KindContest  = "contest"
	KindPractice = "practice"
)

var ErrUnknownKind = errors.New("unknown leaderboard kind")

func (c *Client) Leaderboard(ctx context.Context, kind string) (hacknet.Leaderboard, error) {
	if kind != KindContest && kind != KindPractice {
		return hacknet.Leaderboard{}, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
	q := url.Values{}
	q.Set("kind", kind)
	var lb hacknet.Leaderboard
	err := c.get(ctx, "/ratings/leaderboard", q, &lb)
	return lb, err
}

func (c *Client) Dashboard(ctx context.Context) (hacknet.Dashboard, error) {
	var d hacknet.Dashboard
	err := c.get(ctx, "/admin", nil, &d)
	return d, err
}

func (c *Client) Articles(ctx context.Context, limit, offset int) ([]hacknet.Article, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var list []hacknet.Article
	err := c.get(ctx, "/admin/kb_entries", q, &list)
	return list, err
}

func (c *Client) CreateArticle(ctx context.Context, in hacknet.ArticleInput) (hacknet.Article, error) {
	var a hacknet.Article
	err := c.post(ctx, "/admin/kb_entries", in, &a)
	return a, err
}

func (c *Client) UpdateArticle(ctx context.Context, id int, in hacknet.ArticleInput) (hacknet.Article, error) {
	var a hacknet.Article
	err := c.put(ctx, fmt.Sprintf("/admin/kb_entries/%d", id), in, &a)
	return a, err
}

func (c *Client) DeleteArticle(ctx context.Context, id int) error {
	return c.delete(ctx, fmt.Sprintf("/admin/kb_entries/%d", id))
}

// SyncNVD triggers the CVE feed job for the last 24 hours and returns
// the recorded run.
func (c *Client) SyncNVD(ctx context.Context) (hacknet.NVDSync, error) {
	var s hacknet.NVDSync
	err := c.post(ctx, "/admin/nvd_sync", nil, &s)
	return s, err
}
