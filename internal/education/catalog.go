// Package education runs the practice catalog and the practice task page.
package education

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/hacknet"
	"github.com/hacknet/portal/internal/messages"
)

var (
	ErrBadFilter = errors.New("unknown filter value")
	ErrStale     = errors.New("result discarded: superseded by a newer request")
)

// catalogPageSize is how many tasks one catalog load asks for.
const catalogPageSize = 100

// API is the slice of the backend the education pages use.
type API interface {
	PracticeTasks(ctx context.Context, f backend.PracticeFilter) (hacknet.PracticeTaskList, error)
	PracticeTask(ctx context.Context, taskID int) (hacknet.PracticeTask, error)
	SubmitPracticeFlag(ctx context.Context, taskID int, sub hacknet.PracticeSubmission) (hacknet.PracticeSubmitResult, error)
	MaterialDownload(ctx context.Context, taskID, materialID int) (hacknet.DownloadDescriptor, error)
}

// Filter narrows the catalog. Empty fields match everything.
type Filter struct {
	Difficulty string `json:"difficulty,omitempty"`
	Category   string `json:"category,omitempty"`
	Status     string `json:"status,omitempty"`
}

var (
	difficulties = map[string]bool{"": true, "easy": true, "medium": true, "hard": true}
	statuses     = map[string]bool{
		"":                               true,
		string(hacknet.StatusNotStarted): true,
		string(hacknet.StatusInProgress): true,
		string(hacknet.StatusSolved):     true,
	}
)

// Validate rejects difficulty and status values the backend does not know.
// Categories are free-form.
func (f Filter) Validate() error {
	if !difficulties[f.Difficulty] {
		return fmt.Errorf("%w: difficulty %q", ErrBadFilter, f.Difficulty)
	}
	if !statuses[f.Status] {
		return fmt.Errorf("%w: status %q", ErrBadFilter, f.Status)
	}
	return nil
}

type CatalogView struct {
	Filter     Filter                     `json:"filter"`
	Loading    bool                       `json:"loading"`
	Items      []hacknet.PracticeTaskCard `json:"items"`
	Categories []string                   `json:"categories"`
	Error      string                     `json:"error,omitempty"`
	// Empty is the neutral notice shown when a successful load matched
	// nothing.
	Empty string `json:"empty,omitempty"`
}

// Catalog is the filtered practice task list. When loads overlap only the
// most recently started one is applied.
type Catalog struct {
	mu         sync.Mutex
	seq        uint64
	filter     Filter
	loading    bool
	loaded     bool
	items      []hacknet.PracticeTaskCard
	categories []string
	errMsg     string
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

func (c *Catalog) Load(ctx context.Context, api API, f Filter) (CatalogView, error) {
	if err := f.Validate(); err != nil {
		return c.View(), err
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.filter = f
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	list, err := api.PracticeTasks(ctx, backend.PracticeFilter{
		Difficulty: f.Difficulty,
		Category:   f.Category,
		Status:     f.Status,
		Limit:      catalogPageSize,
		Offset:     0,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq != seq {
		return c.viewLocked(), ErrStale
	}
	c.loading = false
	if err != nil {
		c.items = nil
		c.errMsg = backend.Detail(err, messages.Get("education.catalog_failed"))
		return c.viewLocked(), err
	}
	c.loaded = true
	c.items = list.Items
	c.categories = list.Categories
	return c.viewLocked(), nil
}

func (c *Catalog) View() CatalogView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Close abandons in-flight loads and clears the list.
func (c *Catalog) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.filter = Filter{}
	c.loading = false
	c.loaded = false
	c.items = nil
	c.categories = nil
	c.errMsg = ""
}

func (c *Catalog) viewLocked() CatalogView {
	v := CatalogView{
		Filter:     c.filter,
		Loading:    c.loading,
		Items:      append([]hacknet.PracticeTaskCard{}, c.items...),
		Categories: append([]string{}, c.categories...),
		Error:      c.errMsg,
	}
	if c.loaded && !c.loading && c.errMsg == "" && len(c.items) == 0 {
		v.Empty = messages.Get("education.catalog_empty")
	}
	return v
}

// StatusLabel is the Russian badge text for a practice status.
func StatusLabel(s hacknet.PracticeStatus) string {
	switch s {
	case hacknet.StatusSolved:
		return messages.Get("education.status_solved")
	case hacknet.StatusInProgress:
		return messages.Get("education.status_in_progress")
	}
	return messages.Get("education.status_not_started")
}
