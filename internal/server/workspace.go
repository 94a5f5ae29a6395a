package server

import (
	"github.com/hacknet/portal/internal/contest"
	"github.com/hacknet/portal/internal/education"
	"github.com/hacknet/portal/internal/knowledge"
)

// Workspace is the page state one browser session keeps between requests.
type Workspace struct {
	Contest *contest.Flow
	Catalog *education.Catalog
	Task    *education.TaskPage
	Listing *knowledge.Listing
	Article *knowledge.Article
}

func NewWorkspace() *Workspace {
	return &Workspace{
		Contest: contest.NewFlow(),
		Catalog: education.NewCatalog(),
		Task:    education.NewTaskPage(),
		Listing: knowledge.NewListing(),
		Article: knowledge.NewArticle(),
	}
}

// Close abandons every in-flight call so late results are dropped.
func (ws *Workspace) Close() {
	ws.Contest.Close()
	ws.Catalog.Close()
	ws.Task.Close()
	ws.Listing.Close()
	ws.Article.Close()
}
