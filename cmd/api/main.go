package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"dinein-backend/pkg/logger"
)

func main() {
	// .env is for local development; deployed environments inject
	// real environment variables
	envLoaded := godotenv.Load() == nil

	env := os.Getenv("APP_ENV")
	logger.Init(env)
	if !envLoaded {
		logger.Info("no .env file found, using system environment", nil)
	}

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	Serve()
}
