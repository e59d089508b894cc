package main

import (
	"hutbook/core/logger"
	"hutbook/core/server"
)

// @title HutBook API
// @version 1.0
// @description API backend for HutBook - scout hut venue booking with Google Calendar sync

// @contact.name API Support
// @contact.email support@hutbook.org

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:7070
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
