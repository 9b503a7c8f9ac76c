package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/centrobenavente/booking-server/internal/auth"
	"github.com/centrobenavente/booking-server/internal/booking"
	"github.com/centrobenavente/booking-server/internal/catalog"
	"github.com/centrobenavente/booking-server/internal/content"
)

type RouterConfig struct {
	Booking   *booking.Service
	Catalog   *catalog.Manager
	Content   *content.Manager
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	JWTSecret string
	Env       string
	Version   string
	Logger    zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	bookings := NewBookingHandler(cfg.Booking, cfg.Logger)
	appointments := NewAppointmentHandler(cfg.Booking, cfg.Logger)
	schedule := NewScheduleHandler(cfg.Booking, cfg.Logger)
	services := NewCatalogHandler(cfg.Catalog, cfg.Logger)
	site := NewContentHandler(cfg.Content, cfg.Logger)

	r.Route("/api", func(r chi.Router) {
		// Public surface. OptionalAuth lets logged-in users attach their
		// account to bookings and reviews.
		r.Group(func(r chi.Router) {
			r.Use(OptionalAuth(cfg.JWTSecret))

			r.Get("/services", services.ListPublic)
			r.Get("/services/{idOrSlug}", services.Get)

			r.Route("/booking", func(r chi.Router) {
				r.Get("/slots", bookings.Availability)
				r.Get("/calendar", bookings.Calendar)
				r.Post("/", bookings.Create)
				r.Get("/search", bookings.Search)
				r.Get("/cancel/{token}", bookings.GetByToken)
				r.Post("/cancel/{token}", bookings.CancelByToken)
			})

			r.Get("/content", site.ListContent)
			r.Get("/content/{key}", site.GetContent)
			r.Get("/team", site.PublicTeam)
			r.Get("/reviews", site.PublicReviews)
			r.Post("/reviews", site.SubmitReview)
			r.Post("/contact", site.SubmitContact)
		})

		// Authenticated users.
		r.Group(func(r chi.Router) {
			r.Use(Authenticate(cfg.JWTSecret))
			r.Get("/my-appointments", appointments.Mine)
		})

		// Staff: day-to-day appointment management.
		r.Group(func(r chi.Router) {
			r.Use(Authenticate(cfg.JWTSecret))
			r.Use(RequireRole(auth.RoleStaff))

			r.Get("/appointments", appointments.List)
			r.Get("/appointments/day", appointments.Day)
			r.Get("/appointments/stats", appointments.Stats)
			r.Get("/appointments/{id}", appointments.Get)
			r.Put("/appointments/{id}/status", appointments.UpdateStatus)
		})

		// Admin: full management surface.
		r.Route("/admin", func(r chi.Router) {
			r.Use(Authenticate(cfg.JWTSecret))
			r.Use(RequireRole(auth.RoleAdmin))

			r.Put("/appointments/{id}", appointments.Update)
			r.Delete("/appointments/{id}", appointments.Delete)

			r.Get("/services", services.ListAll)
			r.Post("/services", services.Create)
			r.Put("/services/reorder", services.Reorder)
			r.Put("/services/{id}", services.Update)
			r.Delete("/services/{id}", services.Delete)

			r.Get("/schedule/rules", schedule.ListRules)
			r.Post("/schedule/rules", schedule.CreateRule)
			r.Put("/schedule/rules/{id}", schedule.UpdateRule)
			r.Delete("/schedule/rules/{id}", schedule.DeleteRule)
			r.Get("/schedule/blocked", schedule.ListBlockedDates)
			r.Post("/schedule/blocked", schedule.CreateBlockedDate)
			r.Delete("/schedule/blocked/{id}", schedule.DeleteBlockedDate)

			r.Put("/content/{key}", site.SetContent)
			r.Delete("/content/{key}", site.DeleteContent)
			r.Get("/settings", site.ListSettings)
			r.Put("/settings/{key}", site.SetSetting)

			r.Get("/team", site.AllTeam)
			r.Post("/team", site.CreateTeamMember)
			r.Put("/team/{id}", site.UpdateTeamMember)
			r.Delete("/team/{id}", site.DeleteTeamMember)

			r.Get("/reviews", site.AllReviews)
			r.Put("/reviews/{id}", site.ModerateReview)
			r.Delete("/reviews/{id}", site.DeleteReview)

			r.Get("/messages", site.ListMessages)
			r.Patch("/messages/{id}/read", site.MarkMessageRead)
			r.Delete("/messages/{id}", site.DeleteMessage)
		})
	})

	return r
}
