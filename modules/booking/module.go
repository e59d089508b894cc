package booking

import (
	"hutbook/core/cache"
	"hutbook/core/database"
	"hutbook/core/middleware"
	authRepository "hutbook/modules/auth/repository"
	authService "hutbook/modules/auth/service"
	"hutbook/modules/booking/controller"
	"hutbook/modules/booking/repository"
	"hutbook/modules/booking/router"
	"hutbook/modules/booking/service"
	"hutbook/modules/calendarsync/google"
	syncRepository "hutbook/modules/calendarsync/repository"
	syncService "hutbook/modules/calendarsync/service"
	notificationRepository "hutbook/modules/notification/repository"
	notificationService "hutbook/modules/notification/service"
	venueRepository "hutbook/modules/venue/repository"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, cacheClient cache.Cache, asynqClient *asynq.Client) {
	hutRepo := venueRepository.NewHutRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	syncRepo := syncRepository.NewSyncedEventRepository(db)
	credentialRepo := authRepository.NewCredentialRepository(db)
	notificationRepo := notificationRepository.NewNotificationRepository(db)

	availability := service.NewAvailabilityService(hutRepo, reservationRepo, syncRepo)
	tokenService := authService.NewTokenService(credentialRepo, hutRepo, cacheClient)
	syncer := syncService.NewSyncService(hutRepo, syncRepo, reservationRepo, tokenService, google.NewClient(), cacheClient)
	notifier := notificationService.NewNotificationService(notificationRepo, asynqClient)

	bookingService := service.NewBookingService(hutRepo, reservationRepo, availability, syncer, notifier)
	bookingController := controller.NewBookingController(bookingService)

	mw := middleware.NewMiddleware()
	router.NewBookingRouter(bookingController).Setup(e, mw)
}
