package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/hacknet"
	"github.com/hacknet/portal/internal/messages"
)

const (
	MaxCommentRunes = 2000

	relatedFetch = 4
	relatedShown = 2
	commentLimit = 20
)

var (
	ErrCommentLength = errors.New("comment must be 1 to 2000 characters")
	ErrNoArticle     = errors.New("no article loaded")
	ErrBusy          = errors.New("a comment is already being sent")
)

// ValidateComment trims body and checks its length in characters.
func ValidateComment(body string) (string, error) {
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n == 0 || n > MaxCommentRunes {
		return "", fmt.Errorf("%w: got %d", ErrCommentLength, n)
	}
	return body, nil
}

type ArticleView struct {
	Entry         *hacknet.KnowledgeEntry `json:"entry,omitempty"`
	Title         string                  `json:"title,omitempty"`
	HTML          string                  `json:"html,omitempty"`
	ReadMinutes   int                     `json:"read_minutes,omitempty"`
	Related       []Card                  `json:"related"`
	Comments      []hacknet.Comment       `json:"comments"`
	CommentsError string                  `json:"comments_error,omitempty"`
	CommentError  string                  `json:"comment_error,omitempty"`
	Sending       bool                    `json:"sending"`
	Loading       bool                    `json:"loading"`
	Error         string                  `json:"error,omitempty"`
}

// Article is one open knowledge base entry with its related entries and
// comments.
type Article struct {
	mu          sync.Mutex
	seq         uint64
	entry       *hacknet.KnowledgeEntry
	html        string
	related     []hacknet.KnowledgeEntry
	comments    []hacknet.Comment
	commentsErr string
	commentErr  string
	loading     bool
	errMsg      string

	// sending is the token of the comment post in flight, zero when idle.
	sending uint64
	sends   uint64
}

func NewArticle() *Article {
	return &Article{}
}

// Load fetches entry id, then its related entries and comments side by side.
// Only a failed entry fetch fails the page.
func (a *Article) Load(ctx context.Context, api API, id int) (ArticleView, error) {
	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.reset()
	if id <= 0 {
		a.errMsg = messages.Get("knowledge.entry_id_missing")
		v := a.viewLocked()
		a.mu.Unlock()
		return v, nil
	}
	a.loading = true
	a.mu.Unlock()

	entry, err := api.KnowledgeEntry(ctx, id)
	if err != nil {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.seq != seq {
			return a.viewLocked(), ErrStale
		}
		a.loading = false
		a.errMsg = backend.Detail(err, messages.Get("knowledge.entry_failed"))
		return a.viewLocked(), err
	}

	var (
		related     []hacknet.KnowledgeEntry
		comments    []hacknet.Comment
		commentsErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		q := backend.EntryQuery{Limit: relatedFetch, Order: OrderDesc}
		if len(entry.Tags) > 0 {
			q.Tag = entry.Tags[0]
		}
		list, err := api.KnowledgeEntries(ctx, q)
		if err != nil {
			// A failed related fetch leaves the block empty.
			return nil
		}
		for _, e := range list {
			if e.ID != entry.ID && len(related) < relatedShown {
				related = append(related, e)
			}
		}
		return nil
	})
	g.Go(func() error {
		comments, commentsErr = api.Comments(ctx, entry.ID, commentLimit, 0)
		return nil
	})
	_ = g.Wait()

	html, renderErr := RenderExplainer(deref(entry.RuExplainer))

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seq != seq {
		return a.viewLocked(), ErrStale
	}
	a.loading = false
	a.entry = &entry
	a.related = related
	if renderErr == nil {
		a.html = html
	}
	if commentsErr != nil {
		a.comments = nil
		a.commentsErr = backend.Detail(commentsErr, messages.Get("knowledge.comments_failed"))
	} else {
		a.comments = comments
	}
	return a.viewLocked(), nil
}

// PostComment validates body and sends it. The created comment goes to the
// top of the list without a reload.
func (a *Article) PostComment(ctx context.Context, api API, body string) (ArticleView, error) {
	body, err := ValidateComment(body)

	a.mu.Lock()
	if a.entry == nil {
		v := a.viewLocked()
		a.mu.Unlock()
		return v, ErrNoArticle
	}
	if err != nil {
		a.commentErr = messages.Get("knowledge.comment_invalid")
		v := a.viewLocked()
		a.mu.Unlock()
		return v, err
	}
	if a.sending != 0 {
		v := a.viewLocked()
		a.mu.Unlock()
		return v, ErrBusy
	}
	a.sends++
	token := a.sends
	a.sending = token
	a.commentErr = ""
	seq := a.seq
	entryID := a.entry.ID
	a.mu.Unlock()

	created, err := api.CreateComment(ctx, entryID, body)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sending == token {
		a.sending = 0
	}
	if a.seq != seq {
		return a.viewLocked(), ErrStale
	}
	if err != nil {
		a.commentErr = backend.Detail(err, messages.Get("knowledge.comment_failed"))
		return a.viewLocked(), err
	}
	a.comments = append([]hacknet.Comment{created}, a.comments...)
	return a.viewLocked(), nil
}

func (a *Article) View() ArticleView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewLocked()
}

func (a *Article) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	a.reset()
}

func (a *Article) reset() {
	a.entry = nil
	a.html = ""
	a.related = nil
	a.comments = nil
	a.commentsErr = ""
	a.commentErr = ""
	a.sending = 0
	a.loading = false
	a.errMsg = ""
}

func (a *Article) viewLocked() ArticleView {
	v := ArticleView{
		HTML:          a.html,
		Related:       make([]Card, 0, len(a.related)),
		Comments:      append([]hacknet.Comment{}, a.comments...),
		CommentsError: a.commentsErr,
		CommentError:  a.commentErr,
		Sending:       a.sending != 0,
		Loading:       a.loading,
		Error:         a.errMsg,
	}
	if a.entry != nil {
		e := *a.entry
		v.Entry = &e
		v.Title = Title(e)
		v.ReadMinutes = ReadMinutes(deref(e.RuExplainer))
	}
	for _, r := range a.related {
		v.Related = append(v.Related, CardOf(r))
	}
	return v
}
