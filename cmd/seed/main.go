package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"diaryshare/internal/config"
	pg "diaryshare/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	catalog := flag.String("styles", "", "style catalog (defaults to styles.catalog_path)")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadToolConfig(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	path := *catalog
	if path == "" {
		path = cfg.Styles.CatalogPath
	}
	styles, err := config.LoadStyleCatalog(path)
	if err != nil {
		log.Fatalf("styles: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	styleRepo := pg.NewPostgresStyleRepo(pool)
	for _, s := range styles {
		if err := styleRepo.Save(ctx, nil, s); err != nil {
			log.Fatalf("save style %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, template=%s, premium=%t)\n", s.Name, s.ID, s.TemplateName, s.IsPremium)
	}
	fmt.Println("Seeding complete.")
}
