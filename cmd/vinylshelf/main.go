package main

import (
	"log"
	"os"

	"vinylshelf/internal/build"
	"vinylshelf/internal/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "vinylshelf"
	app.Version = build.Version
	app.Usage = "Record collection web app with OAuth2 login"

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
