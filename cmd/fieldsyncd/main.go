// Command fieldsyncd runs the fieldsync upload daemon in the foreground.
package main

import (
	"context"
	"flag"
	"log"

	"fieldsync/internal/config"
	"fieldsync/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "path to the fieldsync config file")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg); err != nil {
		log.Fatalf("fieldsyncd: %v", err)
	}
}
