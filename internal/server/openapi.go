package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/hacknet/portal/internal/contest"
	"github.com/hacknet/portal/internal/education"
	"github.com/hacknet/portal/internal/feedback"
	"github.com/hacknet/portal/internal/handler/health"
	"github.com/hacknet/portal/internal/hacknet"
	"github.com/hacknet/portal/internal/knowledge"
)

type flagPath struct {
	FlagID string `path:"flagID"`
}

type contestFlagRequest struct {
	flagPath
	FlagRequest
}

type taskPath struct {
	TaskID int `path:"taskID"`
}

type catalogQuery struct {
	Difficulty string `query:"difficulty" enum:"easy,medium,hard"`
	Category   string `query:"category"`
	Status     string `query:"status" enum:"solved,in_progress,not_started"`
}

type practiceFlagRequest struct {
	taskPath
	PracticeFlagRequest
}

type materialPath struct {
	TaskID     int `path:"taskID"`
	MaterialID int `path:"materialID"`
}

type entriesQuery struct {
	Page  int    `query:"page" minimum:"1"`
	Order string `query:"order" enum:"desc,asc"`
	Tag   string `query:"tag"`
}

type entryPath struct {
	EntryID int `path:"entryID"`
}

type commentRequest struct {
	entryPath
	CommentRequest
}

type ratingsQuery struct {
	Kind string `query:"kind" enum:"contest,practice"`
}

type articlesQuery struct {
	Limit  int `query:"limit" minimum:"1" maximum:"100"`
	Offset int `query:"offset" minimum:"0"`
}

type articlePath struct {
	ID int `path:"id"`
}

type articleUpdate struct {
	articlePath
	hacknet.ArticleInput
}

type avatarUpload struct {
	File string `formData:"file" format:"binary"`
}

type operation struct {
	method, path, summary, description string
	req                                any
	resp                               any
	status                             int
	errs                               []int
	contentType                        string
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "HackNet Portal API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Session-backed JSON API for the HackNet single-page app. " +
		"Requests carry the hacknet_session cookie; state-changing calls also send X-CSRF-Token.")

	ops := []operation{
		{method: http.MethodGet, path: "/healthz", summary: "Health check",
			description: "Reports whether the session store and the platform backend are reachable.",
			resp:        health.Report{}, errs: []int{http.StatusServiceUnavailable}},

		{method: http.MethodGet, path: "/api/session", summary: "Session state",
			description: "Reports whether the caller is signed in. The CSRF token is returned in the X-CSRF-Token header.",
			resp:        SessionResponse{}},
		{method: http.MethodPost, path: "/api/session/login", summary: "Log in",
			description: "Exchanges credentials for a backend token and sets the session cookie.",
			req:         LoginRequest{}, resp: SessionResponse{},
			errs: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusBadGateway}},
		{method: http.MethodPost, path: "/api/session/register", summary: "Register",
			description: "Creates an account and signs it in.",
			req:         RegisterRequest{}, resp: SessionResponse{},
			errs: []int{http.StatusBadRequest, http.StatusBadGateway}},
		{method: http.MethodPost, path: "/api/session/logout", summary: "Log out",
			description: "Forgets the stored token and clears the cookie.",
			resp:        SessionResponse{}},

		{method: http.MethodGet, path: "/api/contest", summary: "Championship page",
			description: "Loads the active contest and the caller's current task.",
			resp:        contest.View{}, errs: []int{http.StatusUnauthorized, http.StatusConflict}},
		{method: http.MethodPost, path: "/api/contest/join", summary: "Join contest",
			resp: contest.View{}, errs: []int{http.StatusUnauthorized, http.StatusConflict}},
		{method: http.MethodPut, path: "/api/contest/flags/{flagID}", summary: "Keep flag input",
			description: "Stores a typed but unsent flag value.",
			req:         contestFlagRequest{}, resp: contest.View{}, errs: []int{http.StatusNotFound}},
		{method: http.MethodPost, path: "/api/contest/flags/{flagID}/submit", summary: "Submit contest flag",
			req: contestFlagRequest{}, resp: contest.View{},
			errs: []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict}},
		{method: http.MethodGet, path: "/api/contest/leaderboard", summary: "Contest leaderboard",
			resp: contest.View{}, errs: []int{http.StatusConflict}},
		{method: http.MethodGet, path: "/api/contest/results", summary: "Contest results",
			resp: contest.View{}, errs: []int{http.StatusConflict}},

		{method: http.MethodGet, path: "/api/education/tasks", summary: "Practice catalog",
			req: catalogQuery{}, resp: education.CatalogView{}, errs: []int{http.StatusBadRequest}},
		{method: http.MethodGet, path: "/api/education/tasks/{taskID}", summary: "Practice task",
			req: taskPath{}, resp: education.TaskView{}},
		{method: http.MethodPost, path: "/api/education/tasks/{taskID}/submit", summary: "Submit practice flag",
			req: practiceFlagRequest{}, resp: education.TaskView{},
			errs: []int{http.StatusBadRequest, http.StatusConflict}},
		{method: http.MethodPost, path: "/api/education/tasks/{taskID}/materials/{materialID}", summary: "Open material",
			description: "Resolves a link or a short-lived download URL for a task material.",
			req:         materialPath{}, resp: MaterialResponse{}, errs: []int{http.StatusNotFound}},

		{method: http.MethodGet, path: "/api/knowledge/entries", summary: "Knowledge base page",
			req: entriesQuery{}, resp: knowledge.ListingView{}, errs: []int{http.StatusBadRequest}},
		{method: http.MethodGet, path: "/api/knowledge/tags", summary: "Knowledge tags",
			resp: []string{}},
		{method: http.MethodGet, path: "/api/knowledge/entries/{entryID}", summary: "Knowledge article",
			req: entryPath{}, resp: knowledge.ArticleView{}},
		{method: http.MethodPost, path: "/api/knowledge/entries/{entryID}/comments", summary: "Post comment",
			req: commentRequest{}, resp: knowledge.ArticleView{},
			errs: []int{http.StatusBadRequest, http.StatusConflict}},

		{method: http.MethodGet, path: "/api/ratings", summary: "Ratings",
			req: ratingsQuery{}, resp: hacknet.Leaderboard{}, errs: []int{http.StatusBadRequest}},

		{method: http.MethodGet, path: "/api/admin", summary: "Admin dashboard",
			resp: hacknet.Dashboard{}, errs: []int{http.StatusForbidden, http.StatusBadGateway}},
		{method: http.MethodGet, path: "/api/admin/articles", summary: "List articles",
			req: articlesQuery{}, resp: []hacknet.Article{}, errs: []int{http.StatusForbidden}},
		{method: http.MethodPost, path: "/api/admin/articles", summary: "Create article",
			req: hacknet.ArticleInput{}, resp: hacknet.Article{}, status: http.StatusCreated,
			errs: []int{http.StatusForbidden}},
		{method: http.MethodPut, path: "/api/admin/articles/{id}", summary: "Update article",
			req: articleUpdate{}, resp: hacknet.Article{}, errs: []int{http.StatusForbidden, http.StatusNotFound}},
		{method: http.MethodDelete, path: "/api/admin/articles/{id}", summary: "Delete article",
			req: articlePath{}, status: http.StatusNoContent, errs: []int{http.StatusForbidden, http.StatusNotFound}},
		{method: http.MethodPost, path: "/api/admin/nvd-sync", summary: "Sync NVD",
			description: "Pulls recent CVEs into the knowledge base.",
			resp:        hacknet.NVDSync{}, errs: []int{http.StatusForbidden}},

		{method: http.MethodGet, path: "/api/feedback/topics", summary: "Feedback topics",
			resp: FeedbackTopicsResponse{}},
		{method: http.MethodPost, path: "/api/feedback", summary: "Send feedback",
			req: FeedbackRequest{}, resp: feedback.Result{}, errs: []int{http.StatusBadRequest}},

		{method: http.MethodGet, path: "/api/profile", summary: "Profile",
			resp: hacknet.Profile{}},
		{method: http.MethodPut, path: "/api/profile/username", summary: "Change username",
			req: UsernameRequest{}, resp: hacknet.Profile{}, errs: []int{http.StatusBadRequest}},
		{method: http.MethodPut, path: "/api/profile/email", summary: "Change email",
			req: EmailRequest{}, resp: hacknet.Message{}, errs: []int{http.StatusBadRequest}},
		{method: http.MethodPut, path: "/api/profile/password", summary: "Change password",
			req: PasswordRequest{}, resp: hacknet.Message{}, errs: []int{http.StatusBadRequest}},
		{method: http.MethodPost, path: "/api/profile/avatar", summary: "Upload avatar",
			req: avatarUpload{}, resp: hacknet.Profile{}, errs: []int{http.StatusBadRequest}},
		{method: http.MethodGet, path: "/api/profile/events", summary: "Profile event stream",
			description: "Server-Sent Events carrying profile updates for the signed-in user.",
			contentType: "text/event-stream"},
		{method: http.MethodGet, path: "/ws/profile", summary: "Profile websocket",
			description: "Upgrades to a WebSocket that pushes the same updates as the event stream.",
			status:      http.StatusSwitchingProtocols, contentType: "text/plain"},
	}

	for _, o := range ops {
		oc, err := r.NewOperationContext(o.method, o.path)
		if err != nil {
			panic(err)
		}
		oc.SetSummary(o.summary)
		if o.description != "" {
			oc.SetDescription(o.description)
		}
		if o.req != nil {
			oc.AddReqStructure(o.req)
		}
		status := o.status
		if status == 0 {
			status = http.StatusOK
		}
		if o.contentType != "" {
			oc.AddRespStructure(nil, openapi.WithHTTPStatus(status), openapi.WithContentType(o.contentType))
		} else {
			oc.AddRespStructure(o.resp, openapi.WithHTTPStatus(status))
		}
		for _, code := range o.errs {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(code))
		}
		if err := r.AddOperation(oc); err != nil {
			panic(err)
		}
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
