package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"diaryshare/internal/config"
	pg "diaryshare/internal/infra/db/postgres"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: migrate [-config path] up|down [steps]|version\n")
	os.Exit(2)
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	steps := flag.Int("steps", 1, "number of migrations to roll back with down")
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
	}

	cfg, err := config.LoadToolConfig(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	switch flag.Arg(0) {
	case "up":
		if err := pg.MigrateUp(cfg.Database.URL); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
	case "down":
		if err := pg.MigrateDown(cfg.Database.URL, *steps); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
	case "version":
	default:
		usage()
	}

	v, dirty, err := pg.MigrationVersion(cfg.Database.URL)
	if err != nil {
		log.Fatalf("migrate version: %v", err)
	}
	fmt.Printf("schema version %d (dirty=%t)\n", v, dirty)
}
