package calendarsync

import (
	"hutbook/core/cache"
	"hutbook/core/database"
	"hutbook/core/middleware"
	authRepository "hutbook/modules/auth/repository"
	authService "hutbook/modules/auth/service"
	bookingRepository "hutbook/modules/booking/repository"
	"hutbook/modules/calendarsync/controller"
	"hutbook/modules/calendarsync/google"
	"hutbook/modules/calendarsync/repository"
	"hutbook/modules/calendarsync/router"
	"hutbook/modules/calendarsync/service"
	"hutbook/modules/calendarsync/tasks"
	venueRepository "hutbook/modules/venue/repository"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, cacheClient cache.Cache, asynqClient *asynq.Client, mux *asynq.ServeMux) service.SyncService {
	hutRepo := venueRepository.NewHutRepository(db)
	syncRepo := repository.NewSyncedEventRepository(db)
	reservationRepo := bookingRepository.NewReservationRepository(db)
	credentialRepo := authRepository.NewCredentialRepository(db)

	tokenService := authService.NewTokenService(credentialRepo, hutRepo, cacheClient)
	syncService := service.NewSyncService(hutRepo, syncRepo, reservationRepo, tokenService, google.NewClient(), cacheClient)

	handler := service.NewTaskHandler(syncService, hutRepo, asynqClient)
	mux.HandleFunc(tasks.TypeSyncAll, handler.HandleSyncAll)
	mux.HandleFunc(tasks.TypeSyncHut, handler.HandleSyncHut)

	syncController := controller.NewSyncController(syncService)
	mw := middleware.NewMiddleware()
	router.NewSyncRouter(syncController).Setup(e, mw)

	return syncService
}
