package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"mines_wager/internal/db"
	"mines_wager/internal/logger"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations")
	dir := flag.String("dir", filepath.Join("internal", "migrations"), "migrations directory")
	flag.Parse()

	if !*apply {
		names, err := db.MigrationFiles(*dir)
		if err != nil {
			logger.Fatal("list migrations", "error", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	defer pool.Close()

	applied, err := db.ApplyMigrations(ctx, pool, *dir)
	if err != nil {
		logger.Fatal("migration failed", "error", err)
	}
	for _, name := range applied {
		logger.Info("applied migration", "name", name)
	}
}
