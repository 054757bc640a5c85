package main

import (
	"os"
	"path/filepath"
)

// migrationsDir is where "create" writes new files for driver.
func migrationsDir(driver string) string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("internal", "platform", "database", "migrations", driver)
}
