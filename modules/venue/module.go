package venue

import (
	"hutbook/core/database"
	"hutbook/core/middleware"
	"hutbook/core/storage"
	"hutbook/modules/venue/controller"
	"hutbook/modules/venue/repository"
	"hutbook/modules/venue/router"
	"hutbook/modules/venue/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, store storage.ObjectStorage) {
	repo := repository.NewHutRepository(db)
	venueService := service.NewVenueService(repo, store)
	venueController := controller.NewVenueController(venueService)

	mw := middleware.NewMiddleware()
	router.NewVenueRouter(venueController).Setup(e, mw)
}
