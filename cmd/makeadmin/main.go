// Command makeadmin creates an admin account, or promotes an existing
// account to admin, using the server's storage configuration.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/dmitrijs2005/shopauth/internal/flagx"
	"github.com/dmitrijs2005/shopauth/internal/server"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
	"github.com/dmitrijs2005/shopauth/internal/server/makeadmin"
	"github.com/joho/godotenv"
)

var buildVersion = "N/A"

func main() {

	_ = godotenv.Load(".env")

	var opts makeadmin.Options
	fs := flag.NewFlagSet("makeadmin", flag.ExitOnError)
	fs.StringVar(&opts.Name, "name", "", "admin display name")
	fs.StringVar(&opts.Email, "email", "", "admin email")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-name", "-email"}))

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg, buildVersion)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close(ctx)

	if err := makeadmin.Run(ctx, app.Credentials(), opts, os.Stdin, os.Stdout); err != nil {
		log.Printf("%v", err)
		app.Close(ctx)
		os.Exit(1)
	}

}
