package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/IlyaVolvo/spin-master-sub001/handlers"
	"github.com/IlyaVolvo/spin-master-sub001/middleware"
	"github.com/IlyaVolvo/spin-master-sub001/models"
)

// SetupRoutes собирает все маршруты приложения. Просмотр турниров,
// таблиц и рейтингов публичный; запись результатов и управление
// жизненным циклом — только для организаторов.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/players", func(r chi.Router) {
		r.Get("/", playerHandler.List)
		r.Get("/{playerID}", playerHandler.GetByID)
		r.Get("/{playerID}/rating-history", playerHandler.RatingHistory)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Put("/me", playerHandler.UpdateProfile)
			r.Post("/me/avatar", playerHandler.UploadAvatar)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты для просмотра.
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.GetByID)
		r.Get("/{tournamentID}/participants", tournamentHandler.ListParticipants)
		r.Get("/{tournamentID}/standings", tournamentHandler.Standings)
		r.Get("/{tournamentID}/swiss/next-round", tournamentHandler.NextSwissRound)

		// Заявки игроков.
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/{tournamentID}/participants", tournamentHandler.RegisterParticipant)
			r.Post("/{tournamentID}/participants/confirm", tournamentHandler.ConfirmParticipant)
			r.Delete("/{tournamentID}/participants", tournamentHandler.WithdrawParticipant)
		})

		// Управление турниром и результатами — только организаторы.
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize(models.RoleOrganizer))

			r.Post("/", tournamentHandler.Create)
			r.Post("/{tournamentID}/start", tournamentHandler.Start)
			r.Post("/{tournamentID}/complete", tournamentHandler.Complete)
			r.Post("/{tournamentID}/cancel", tournamentHandler.Cancel)
			r.Post("/{tournamentID}/final", tournamentHandler.SeedFinal)
			r.Post("/{tournamentID}/logo", tournamentHandler.UploadLogo)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)

			r.Post("/{tournamentID}/bracket/{round}/{position}/result", matchHandler.RecordBracketResult)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(auth.Authorize(models.RoleOrganizer))

		r.Post("/{matchID}/result", matchHandler.RecordFixtureResult)
		r.Put("/{matchID}/result", matchHandler.EditResult)
		r.Delete("/{matchID}/result", matchHandler.DeleteResult)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
