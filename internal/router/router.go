package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studymate-backend/internal/handlers"
	"studymate-backend/internal/middleware"
	"studymate-backend/internal/realtime"
)

// Deps holds everything the HTTP surface is built from.
type Deps struct {
	JWTAuth          *middleware.JWTAuth
	StudyHandler     *handlers.StudyHandler
	BreakdownHandler *handlers.BreakdownHandler
	GroupHandler     *handlers.GroupHandler
	NoteHandler      *handlers.NoteHandler
	Hub              *realtime.Hub
	FrontendURL      string
}

func New(ctx context.Context, d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(d.FrontendURL))

	// Generation calls are billed upstream; 20 req/min per caller.
	generationLimiter := middleware.NewRateLimiter(ctx, 20, time.Minute)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Stateless study endpoints consumed by the UI.
	r.Group(func(r chi.Router) {
		r.Use(generationLimiter.Middleware)
		r.Post("/explain-subtopic", d.StudyHandler.ExplainSubtopic)
		r.Post("/generate-knowledge-tree", d.StudyHandler.GenerateChapters)
		r.Post("/generate-knowledge-tree/tree", d.StudyHandler.KnowledgeTree)
		r.Post("/translate", d.StudyHandler.Translate)
		r.Post("/translate-chapters", d.StudyHandler.TranslateChapters)
		r.Post("/youtube-suggestions", d.StudyHandler.YouTubeSuggestions)
		r.Post("/regenerate-quiz", d.StudyHandler.RegenerateQuiz)
		r.Post("/syllabus/extract", d.StudyHandler.ExtractSyllabus)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Token comes in the query string; the hub verifies it itself.
		r.Get("/ws", d.Hub.HandleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(d.JWTAuth.Middleware)

			r.Route("/breakdowns", func(r chi.Router) {
				r.With(generationLimiter.Middleware).Post("/", d.BreakdownHandler.Create)
				r.Get("/", d.BreakdownHandler.List)
				r.Get("/{id}", d.BreakdownHandler.Get)
				r.Delete("/{id}", d.BreakdownHandler.Delete)
				r.With(generationLimiter.Middleware).Post("/{id}/quiz", d.BreakdownHandler.RegenerateQuiz)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", d.GroupHandler.Create)
				r.Get("/", d.GroupHandler.List)
				r.Route("/{groupId}", func(r chi.Router) {
					r.Get("/", d.GroupHandler.Get)
					r.Post("/join", d.GroupHandler.Join)
					r.Post("/invites", d.GroupHandler.Invite)
					r.Get("/messages", d.GroupHandler.ListMessages)
					r.Post("/messages", d.GroupHandler.SendMessage)
					r.Get("/breakdowns", d.GroupHandler.ListBreakdowns)
					r.With(generationLimiter.Middleware).Post("/breakdowns", d.GroupHandler.CreateBreakdown)
				})
			})

			r.Route("/notes", func(r chi.Router) {
				r.Post("/", d.NoteHandler.Create)
				r.Get("/", d.NoteHandler.List)
				r.Delete("/{id}", d.NoteHandler.Delete)
			})
		})
	})

	return r
}
