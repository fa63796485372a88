// @title           CoachHub API
// @version         1.0
// @description     Coaching platform backend: courses, enrollments and coach subscriptions.
// @host            localhost:4000
// @BasePath        /

package main

import (
	"coachhub_backend/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine; deployment injects real environment variables.
	_ = godotenv.Load()

	app.Run()
}
