package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hacknet/portal/internal/hacknet"
)

// EntryQuery selects knowledge entries. Order is "asc" or "desc".
type EntryQuery struct {
	Limit         int
	Offset        int
	Order         string
	Tag           string
	OnlyWithTitle bool
}

func (q EntryQuery) values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	v.Set("offset", strconv.Itoa(q.Offset))
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	v.Set("only_with_title", strconv.FormatBool(q.OnlyWithTitle))
	return v
}

func (c *Client) KnowledgeEntries(ctx context.Context, q EntryQuery) ([]hacknet.KnowledgeEntry, error) {
	var entries []hacknet.KnowledgeEntry
	err := c.get(ctx, "/kb_entries", q.values(), &entries)
	return entries, err
}

func (c *Client) KnowledgePage(ctx context.Context, q EntryQuery) (hacknet.KnowledgePage, error) {
	var page hacknet.KnowledgePage
	err := c.get(ctx, "/kb_entries/paged", q.values(), &page)
	return page, err
}

func (c *Client) KnowledgeTags(ctx context.Context) ([]string, error) {
	var tags []string
	err := c.get(ctx, "/kb_entries/tags", nil, &tags)
	return tags, err
}

func (c *Client) KnowledgeEntry(ctx context.Context, entryID int) (hacknet.KnowledgeEntry, error) {
	var e hacknet.KnowledgeEntry
	err := c.get(ctx, fmt.Sprintf("/kb_entries/%d", entryID), nil, &e)
	return e, err
}

func (c *Client) Comments(ctx context.Context, entryID, limit, offset int) ([]hacknet.Comment, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var comments []hacknet.Comment
	err := c.get(ctx, fmt.Sprintf("/kb_entries/%d/comments", entryID), q, &comments)
	return comments, err
}

func (c *Client) CreateComment(ctx context.Context, entryID int, body string) (hacknet.Comment, error) {
	var cm hacknet.Comment
	err := c.post(ctx, fmt.Sprintf("/kb_entries/%d/comments", entryID), map[string]string{"body": body}, &cm)
	return cm, err
}
