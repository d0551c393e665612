package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/shopauth/internal/server"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
	"github.com/joho/godotenv"
)

// set with -ldflags "-X main.buildVersion=..."
var buildVersion = "N/A"

func main() {

	_ = godotenv.Load(".env")

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg, buildVersion)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
