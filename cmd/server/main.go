package main

import (
	"log"

	_ "taskdesk/docs"
	"taskdesk/internal/config"
	"taskdesk/internal/server"
)

// @title           Taskdesk API
// @version         1.0
// @description     Remote task store for the administrative console: task
// @description     lifecycle, resource allocations, linkage and comments.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
