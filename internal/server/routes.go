package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/hacknet/portal/internal/profile"
	"github.com/hacknet/portal/internal/session"
)

func addRoutes(r chi.Router, logger *slog.Logger, d *Deps) {
	editor := profile.NewEditor(d.Broker)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("HackNet Portal API", "/openapi.json", "/docs"))

	r.With(sessionMiddleware(d, logger), requireSession(d)).
		Get("/ws/profile", handleProfileSocket(d, logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(sessionMiddleware(d, logger))
		r.Use(csrfMiddleware(d, logger))

		r.Get("/session", handleSessionGet())
		r.Post("/session/login", handleLogin(d, logger))
		r.Post("/session/register", handleRegister(d, logger))
		r.Post("/session/logout", handleLogout(d, logger))
		r.Get("/feedback/topics", handleFeedbackTopics())

		r.Group(func(r chi.Router) {
			r.Use(requireSession(d))

			r.Route("/contest", func(r chi.Router) {
				r.Get("/", handleContestGet(d))
				r.Post("/join", handleContestJoin(d))
				r.Put("/flags/{flagID}", handleContestFlagValue(d))
				r.Post("/flags/{flagID}/submit", handleContestSubmit(d))
				r.Get("/leaderboard", handleContestLeaderboard(d))
				r.Get("/results", handleContestResults(d))
			})

			r.Route("/education/tasks", func(r chi.Router) {
				r.Get("/", handleEducationTasks(d))
				r.Get("/{taskID}", handleEducationTask(d))
				r.Post("/{taskID}/submit", handleEducationSubmit(d))
				r.Post("/{taskID}/materials/{materialID}", handleEducationMaterial(d))
			})

			r.Route("/knowledge", func(r chi.Router) {
				r.Get("/entries", handleKnowledgeEntries(d))
				r.Get("/tags", handleKnowledgeTags(d, logger))
				r.Get("/entries/{entryID}", handleKnowledgeArticle(d))
				r.Post("/entries/{entryID}/comments", handleKnowledgeComment(d))
			})

			r.Get("/ratings", handleRatings(d))
			r.Post("/feedback", handleFeedback(d))

			// Admin rights are enforced by the backend; a 403 sends the
			// caller back to the landing page.
			r.Route("/admin", func(r chi.Router) {
				r.Get("/", handleAdminDashboard(d))
				r.Get("/articles", handleAdminArticles(d))
				r.Post("/articles", handleAdminCreateArticle(d))
				r.Put("/articles/{id}", handleAdminUpdateArticle(d))
				r.Delete("/articles/{id}", handleAdminDeleteArticle(d))
				r.Post("/nvd-sync", handleAdminNVDSync(d))
			})

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", handleProfileGet(d))
				r.Put("/username", handleProfileUsername(d, editor))
				r.Put("/email", handleProfileEmail(d))
				r.Put("/password", handleProfilePassword(d))
				r.Post("/avatar", handleProfileAvatar(d, editor, logger))
				r.Get("/events", handleProfileEvents(d))
			})
		})
	})

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(sessionMiddleware(d, logger)(handleSPA(d.SPADir, session.DefaultGate())).ServeHTTP)
		}
	}
}
