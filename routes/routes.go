package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Dosada05/swiss-tournaments/handlers"
	"github.com/Dosada05/swiss-tournaments/middleware"
	"github.com/Dosada05/swiss-tournaments/models"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	GameProfiles *handlers.GameProfileHandler
	Tournaments  *handlers.TournamentHandler
	Participants *handlers.ParticipantHandler
	Rounds       *handlers.RoundHandler
	Matches      *handlers.MatchHandler
	Standings    *handlers.StandingsHandler
	WebSocket    *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, auth *middleware.Authenticator) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	staffOnly := middleware.Authorize(models.RoleAdmin, models.RoleOrganizer)

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Post("/auth/signup", h.Auth.Register)
	router.Post("/auth/signin", h.Auth.Login)

	router.Route("/profiles", func(r chi.Router) {
		r.Get("/", h.GameProfiles.List)
		r.Get("/{profileID}", h.GameProfiles.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate, staffOnly)
			r.Post("/", h.GameProfiles.Create)
			r.Put("/{profileID}", h.GameProfiles.Update)
			r.Post("/{profileID}/banner", h.GameProfiles.UploadBanner)
		})
	})

	// Unauthenticated guest cancellation link from the registration email.
	router.Get("/registrations/cancel", h.Participants.CancelByToken)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournaments.List)
		r.Get("/slug/{slug}", h.Tournaments.GetBySlug)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", h.Tournaments.GetByID)
			r.Get("/ws", h.WebSocket.Subscribe)

			r.Get("/participants", h.Participants.List)
			r.Get("/participants/playable", h.Participants.ListPlayable)
			r.Post("/participants/guest", h.Participants.RegisterGuest)

			r.Get("/rounds", h.Rounds.List)
			r.Get("/rounds/current", h.Rounds.Current)
			r.Get("/standings", h.Standings.List)
			r.Get("/standings/{participantID}", h.Standings.GetByParticipant)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate)
				r.Post("/participants", h.Participants.Register)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate, staffOnly)
				r.Put("/", h.Tournaments.Update)
				r.Post("/banner", h.Tournaments.UploadBanner)
				r.Post("/registration/open", h.Tournaments.OpenRegistration)
				r.Post("/registration/close", h.Tournaments.CloseRegistration)
				r.Post("/start", h.Tournaments.Start)
				r.Post("/finish", h.Tournaments.Finish)
				r.Post("/cancel", h.Tournaments.Cancel)
				r.Post("/rounds", h.Rounds.Generate)
				r.Post("/standings/recalculate", h.Standings.Recalculate)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate, staffOnly)
			r.Post("/", h.Tournaments.Create)
		})
	})

	router.Route("/participants/{participantID}", func(r chi.Router) {
		// Self check-in works for guests too, so only optional auth here.
		r.With(auth.MaybeAuthenticate).Post("/check-in", h.Participants.CheckIn)
		r.With(auth.MaybeAuthenticate).Post("/withdraw", h.Participants.Withdraw)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate, staffOnly)
			r.Post("/confirm", h.Participants.Confirm)
			r.Post("/disqualify", h.Participants.Disqualify)
		})
	})

	router.Route("/rounds/{roundID}", func(r chi.Router) {
		r.Get("/", h.Rounds.GetByID)
		r.Get("/matches", h.Matches.ListByRound)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate, staffOnly)
			r.Post("/start", h.Rounds.Start)
			r.Post("/complete", h.Rounds.Complete)
		})
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/", h.Matches.GetByID)
		r.Get("/history", h.Matches.History)

		// Reporting is open to guests in participant modes; the service layer
		// enforces who may act.
		r.With(auth.MaybeAuthenticate).Post("/result", h.Matches.Report)
		r.With(auth.MaybeAuthenticate).Post("/confirm", h.Matches.Confirm)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate, staffOnly)
			r.Post("/resolve", h.Matches.ResolveDispute)
		})
	})

	return router
}
