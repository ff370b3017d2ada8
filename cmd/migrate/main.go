package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"evdash/adapters/postgres"
	"evdash/internal/config"
	"evdash/internal/migration"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	table := flag.String("table", cfg.Database.Table, "Observation table to create")
	dryRun := flag.Bool("dry-run", false, "Print the statements without connecting")
	flag.Parse()

	runner, err := migration.NewRunner(*table)
	if err != nil {
		log.Fatalf("Invalid table: %v", err)
	}

	if *dryRun {
		os.Stdout.WriteString(strings.Join(runner.Statements(), ";\n") + ";\n")
		return
	}

	databaseURL := cfg.Database.URL
	if flag.NArg() > 0 {
		databaseURL = flag.Arg(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Applying migration %s to %s", runner.Version(), runner.Table())
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Migration complete")
}
