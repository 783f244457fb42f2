// Package main provides the simplestream catalog query CLI.
package main

import (
	"log"
	"os"

	"github.com/japence/simplestream-parser/internal/cli"
)

func main() {
	app := cli.NewApp()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
