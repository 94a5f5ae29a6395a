// Package knowledge runs the knowledge base listing and the article page.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/hacknet"
	"github.com/hacknet/portal/internal/messages"
)

// PageSize is the number of entries on one listing page.
const PageSize = 9

const (
	OrderDesc = "desc"
	OrderAsc  = "asc"
)

var (
	ErrBadOrder = errors.New("order must be asc or desc")
	ErrStale    = errors.New("result discarded: superseded by a newer request")
)

// API is the slice of the backend the knowledge pages use.
type API interface {
	KnowledgePage(ctx context.Context, q backend.EntryQuery) (hacknet.KnowledgePage, error)
	KnowledgeEntries(ctx context.Context, q backend.EntryQuery) ([]hacknet.KnowledgeEntry, error)
	KnowledgeEntry(ctx context.Context, entryID int) (hacknet.KnowledgeEntry, error)
	Comments(ctx context.Context, entryID, limit, offset int) ([]hacknet.Comment, error)
	CreateComment(ctx context.Context, entryID int, body string) (hacknet.Comment, error)
}

// Query is what the reader asked for. A zero Page means "keep the current
// page"; a changed Order or Tag always starts again from page 1.
type Query struct {
	Page  int    `json:"page"`
	Order string `json:"order"`
	Tag   string `json:"tag"`
}

// Card is one entry on a listing or in the related block.
type Card struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary,omitempty"`
	Tags        []string `json:"tags"`
	Views       int      `json:"views"`
	ReadMinutes int      `json:"read_minutes"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

type ListingView struct {
	Items      []Card     `json:"items"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Total      int        `json:"total"`
	Order      string     `json:"order"`
	Tag        string     `json:"tag,omitempty"`
	HasPrev    bool       `json:"has_prev"`
	HasNext    bool       `json:"has_next"`
	Pages      []PageItem `json:"pages"`
	Loading    bool       `json:"loading"`
	Error      string     `json:"error,omitempty"`
}

// Listing is the paged, sortable, tag-filtered entry list.
type Listing struct {
	mu      sync.Mutex
	seq     uint64
	page    int
	order   string
	tag     string
	total   int
	items   []hacknet.KnowledgeEntry
	loading bool
	errMsg  string
}

func NewListing() *Listing {
	return &Listing{page: 1, order: OrderDesc}
}

// Load fetches the page q describes. Overlapping loads resolve to the most
// recently started one.
func (l *Listing) Load(ctx context.Context, api API, q Query) (ListingView, error) {
	order := strings.ToLower(strings.TrimSpace(q.Order))
	if order == "" {
		order = OrderDesc
	}
	if order != OrderDesc && order != OrderAsc {
		return l.View(), fmt.Errorf("%w: %q", ErrBadOrder, q.Order)
	}
	tag := strings.TrimSpace(q.Tag)

	l.mu.Lock()
	page := q.Page
	if page == 0 {
		page = l.page
	}
	if order != l.order || tag != l.tag {
		page = 1
	}
	page = clampPage(page, totalPages(l.total))
	l.seq++
	seq := l.seq
	l.order, l.tag, l.page = order, tag, page
	l.loading = true
	l.errMsg = ""
	l.mu.Unlock()

	res, err := api.KnowledgePage(ctx, entryQuery(page, order, tag))
	if err == nil && len(res.Items) == 0 && res.Total > 0 && page > totalPages(res.Total) {
		// The list shrank under us; show its last page instead.
		page = totalPages(res.Total)
		res, err = api.KnowledgePage(ctx, entryQuery(page, order, tag))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seq != seq {
		return l.viewLocked(), ErrStale
	}
	l.loading = false
	if err != nil {
		l.items = nil
		l.errMsg = backend.Detail(err, messages.Get("knowledge.entries_failed"))
		return l.viewLocked(), err
	}
	l.page = page
	l.total = res.Total
	l.items = res.Items
	return l.viewLocked(), nil
}

func (l *Listing) View() ListingView {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked()
}

func (l *Listing) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.page = 1
	l.order = OrderDesc
	l.tag = ""
	l.total = 0
	l.items = nil
	l.loading = false
	l.errMsg = ""
}

func (l *Listing) viewLocked() ListingView {
	pages := totalPages(l.total)
	v := ListingView{
		Items:      make([]Card, 0, len(l.items)),
		Page:       l.page,
		TotalPages: pages,
		Total:      l.total,
		Order:      l.order,
		Tag:        l.tag,
		HasPrev:    l.page > 1,
		HasNext:    l.page < pages,
		Pages:      PageItems(l.page, pages),
		Loading:    l.loading,
		Error:      l.errMsg,
	}
	for _, e := range l.items {
		v.Items = append(v.Items, CardOf(e))
	}
	return v
}

func entryQuery(page int, order, tag string) backend.EntryQuery {
	return backend.EntryQuery{
		Limit:         PageSize,
		Offset:        (page - 1) * PageSize,
		Order:         order,
		Tag:           tag,
		OnlyWithTitle: true,
	}
}

// totalPages never reports fewer than one page.
func totalPages(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + PageSize - 1) / PageSize
}

func clampPage(page, pages int) int {
	if page < 1 {
		return 1
	}
	if page > pages {
		return pages
	}
	return page
}

// CardOf summarizes an entry for a list.
func CardOf(e hacknet.KnowledgeEntry) Card {
	c := Card{
		ID:          e.ID,
		Title:       Title(e),
		Tags:        append([]string{}, e.Tags...),
		Views:       e.Views,
		ReadMinutes: ReadMinutes(deref(e.RuExplainer)),
	}
	if e.RuSummary != nil {
		c.Summary = strings.TrimSpace(*e.RuSummary)
	}
	if !e.CreatedAt.IsZero() {
		c.CreatedAt = e.CreatedAt.Format("2006-01-02")
	}
	return c
}

// Title is the Russian title, else the CVE id, else the source id.
func Title(e hacknet.KnowledgeEntry) string {
	for _, s := range []*string{e.RuTitle, e.CVEID, e.SourceID} {
		if s != nil && strings.TrimSpace(*s) != "" {
			return strings.TrimSpace(*s)
		}
	}
	return messages.Get("knowledge.untitled")
}

// ReadMinutes estimates reading time at 160 words a minute.
func ReadMinutes(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 3
	}
	m := (words + 80) / 160
	if m < 1 {
		return 1
	}
	return m
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
