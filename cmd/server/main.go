package main

import (
	"flag"
	"log"
	"os"

	"github.com/alex-user-go/rateengine/internal/app"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := app.Run(*configPath); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
