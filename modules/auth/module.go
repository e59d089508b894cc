package auth

import (
	"hutbook/core/cache"
	"hutbook/core/database"
	"hutbook/core/middleware"
	"hutbook/modules/auth/controller"
	"hutbook/modules/auth/repository"
	"hutbook/modules/auth/router"
	"hutbook/modules/auth/service"
	venueRepository "hutbook/modules/venue/repository"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, cacheClient cache.Cache) {
	repo := repository.NewCredentialRepository(db)
	hutRepo := venueRepository.NewHutRepository(db)
	tokenService := service.NewTokenService(repo, hutRepo, cacheClient)
	authController := controller.NewAuthController(tokenService)

	mw := middleware.NewMiddleware()
	router.NewAuthRouter(authController).Setup(e, mw)
}
