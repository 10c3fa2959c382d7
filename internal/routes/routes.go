package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dpushkar26/Panchkarma-sutra/internal/config"
	"github.com/dpushkar26/Panchkarma-sutra/internal/handlers"
	"github.com/dpushkar26/Panchkarma-sutra/internal/middleware"
	"github.com/dpushkar26/Panchkarma-sutra/internal/repository"
	"github.com/dpushkar26/Panchkarma-sutra/internal/services"
	schedulews "github.com/dpushkar26/Panchkarma-sutra/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	patientProfileRepo := repository.NewPatientProfileRepository(db)
	practitionerProfileRepo := repository.NewPractitionerProfileRepository(db)
	therapyRepo := repository.NewTherapyRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	hub := schedulews.NewHub()
	go hub.Run()

	notifier := services.NewNotificationService(
		services.NewInAppSender(notificationRepo),
		services.NewLogSender(services.ChannelEmail),
		services.NewLogSender(services.ChannelSMS),
	)

	startHour, endHour, lunchStartHour, lunchEndHour, slotMinutes := cfg.WorkingHours()
	availabilityService := services.NewAvailabilityService(sessionRepo, services.WorkingHoursPolicy{
		StartHour:      startHour,
		EndHour:        endHour,
		LunchStartHour: lunchStartHour,
		LunchEndHour:   lunchEndHour,
		SlotMinutes:    slotMinutes,
	})
	sessionService := services.NewSessionService(db, sessionRepo, therapyRepo, userRepo, notifier, hub)
	feedbackService := services.NewFeedbackService(feedbackRepo, sessionRepo)
	profileService := services.NewProfileService(patientProfileRepo, practitionerProfileRepo)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	therapyHandler := handlers.NewTherapyHandler(therapyRepo)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	profileHandler := handlers.NewProfileHandler(profileService)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	realtimeHandler := handlers.NewRealtimeHandler(hub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	therapies := authProtected.Group("/therapies")
	therapies.Get("", therapyHandler.ListTherapies)
	therapies.Post("", therapyHandler.CreateTherapy)
	therapies.Get("/:id", therapyHandler.GetTherapy)
	therapies.Put("/:id", therapyHandler.UpdateTherapy)

	practitioners := authProtected.Group("/practitioners")
	practitioners.Get("/:id/availability", availabilityHandler.ListAvailableSlots)
	practitioners.Get("/:id/feedback", feedbackHandler.ListPractitionerFeedback)
	practitioners.Put("/:id/approval", authHandler.ApprovePractitioner)

	sessions := authProtected.Group("/sessions")
	sessions.Post("/book", sessionHandler.BookSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Put("/:id/status", sessionHandler.UpdateStatus)
	sessions.Post("/:id/cancel", sessionHandler.CancelSession)
	sessions.Post("/:id/reschedule", sessionHandler.RescheduleSession)
	sessions.Post("/:id/feedback", feedbackHandler.SubmitFeedback)

	profiles := authProtected.Group("/profiles")
	profiles.Get("/patient", profileHandler.GetPatientProfile)
	profiles.Put("/patient", profileHandler.UpdatePatientProfile)
	profiles.Get("/practitioner", profileHandler.GetPractitionerProfile)
	profiles.Put("/practitioner", profileHandler.UpdatePractitionerProfile)

	notifications := authProtected.Group("/notifications")
	notifications.Get("", notificationHandler.ListNotifications)
	notifications.Put("/:id/read", notificationHandler.MarkRead)

	api.Use("/v1/ws", realtimeHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(realtimeHandler.HandleWebSocket))

	if cfg.DocsEnabled() {
		RegisterDocs(app)
	}
}
