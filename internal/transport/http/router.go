package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"gamified-lms/internal/logger"
)

type RouterOptions struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter wires every route. The websocket route is registered outside the request timeout.
func NewRouter(h *Handler, ws *WSHandler, tokens TokenVerifier, log *logger.Logger, opts RouterOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(log), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if ws != nil {
		r.Get("/ws/leaderboard", ws.ServeWS)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))

		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(authenticate(tokens, log))

			r.Get("/me", h.me)
			r.Get("/me/stats", h.myStats)
			r.Put("/users/profile", h.updateProfile)
			r.Get("/users", h.listUsers)
			r.Put("/users/{userId}/role", h.setRole)

			r.Post("/topics", h.createTopic)
			r.Get("/topics", h.listTopics)
			r.Post("/topics/{topicId}/respond", h.submitResponses)
			r.Get("/my-topics", h.myTopics)
			r.Get("/my-results", h.myResults)

			r.Post("/questions", h.askQuestion)
			r.Get("/my-questions", h.myQuestions)
			r.Get("/pending-questions", h.pendingQuestions)
			r.Post("/questions/{questionId}/respond", h.respondToQuestion)

			r.Get("/leaderboard", h.leaderboard)

			r.Route("/recommendations", func(r chi.Router) {
				r.Post("/", h.recommendations)
				r.Post("/predict/{quizId}", h.predict)
				r.Post("/profile", h.learnerProfile)
			})
		})
	})
	return r
}
