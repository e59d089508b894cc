package notification

import (
	"hutbook/core/database"
	"hutbook/core/middleware"
	"hutbook/modules/notification/controller"
	"hutbook/modules/notification/repository"
	"hutbook/modules/notification/router"
	"hutbook/modules/notification/service"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, asynqClient *asynq.Client, mux *asynq.ServeMux) service.NotificationService {
	repo := repository.NewNotificationRepository(db)
	notificationService := service.NewNotificationService(repo, asynqClient)

	mux.HandleFunc(service.TypeDeliver, notificationService.HandleDeliver)

	notificationController := controller.NewNotificationController(notificationService)
	mw := middleware.NewMiddleware()
	router.NewNotificationRouter(notificationController).Setup(e, mw)

	return notificationService
}
