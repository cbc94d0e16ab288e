package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"

	"github.com/Dosada05/prediction-pool/handlers"
	"github.com/Dosada05/prediction-pool/middleware"
	"github.com/Dosada05/prediction-pool/models"
)

// Handlers groups the HTTP handlers mounted by SetupRoutes.
type Handlers struct {
	Standings *handlers.StandingsHandler
	Scores    *handlers.ScoreHandler
	WebSocket *handlers.WebSocketHandler
}

// Options configures the cross-cutting middleware.
type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Logger         *slog.Logger
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Веб-сокет без таймаута: соединение живёт долго
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	adminOnly := chi.Chain(
		middleware.Authenticate(opts.JWTSecret, opts.Logger),
		middleware.RequireRole(models.RoleAdmin),
	)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/tournaments/{tournamentID}", func(r chi.Router) {
			// Публичные маршруты
			r.Get("/groups/{letter}/standings", h.Standings.GroupStandings)
			r.Get("/bracket", h.Standings.Bracket)
			r.Get("/leaderboard", h.Scores.Leaderboard)
			r.Get("/users/{userID}/bracket", h.Standings.PredictedBracket)
			r.Get("/users/{userID}/score", h.Scores.UserScore)

			// Маршруты администратора
			r.With(adminOnly...).Post("/recalculate", h.Scores.RecalculateTournament)
		})

		r.Group(func(r chi.Router) {
			r.Use(adminOnly...)

			r.Put("/games/{gameID}/result", h.Scores.UpdateResult)
			r.Post("/games/{gameID}/result/resume", h.Scores.ResumeResult)
			r.Post("/results/cleanup", h.Scores.CleanupDrafts)
		})
	})
}
