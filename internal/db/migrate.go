package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationFiles lists the .sql files in dir in apply order
func MigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ApplyMigrations runs every migration in dir. The scripts are idempotent so
// reapplying is safe.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, dir string) ([]string, error) {
	names, err := MigrationFiles(dir)
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(b)); err != nil {
			return nil, fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return names, nil
}
