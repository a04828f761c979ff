package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/Flattery/pkg/markov"
)

// withPragmas appends driver pragmas unless the path already carries a query.
func withPragmas(path, pragmas string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?" + pragmas
}

// openDatabase opens the SQLite database and creates every table the server
// uses. The parent directory is created when missing.
func openDatabase(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := initDB(path)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	setups := []struct {
		name  string
		setup func(*sql.DB) error
	}{
		{"markov", markov.SetupSchema},
		{"auth", setupAuthSchema},
		{"saved compliments", setupSavedSchema},
	}
	for _, s := range setups {
		if err = s.setup(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to setup %s schema: %w", s.name, err)
		}
	}
	return db, nil
}
