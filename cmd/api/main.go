// @title        GigMarket API
// @version      1.0
// @description  Gig-task marketplace: customers post tasks, workers bid, tasks move through a lifecycle to completion.

// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
package main

import (
	"log"

	"github.com/joho/godotenv"

	"gigmarket/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}
	app.Run()
}
