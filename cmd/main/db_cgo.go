//go:build cgo_sqlite

package main

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// dsnPragmas are the WAL and busy timeout settings in go-sqlite3's dialect.
const dsnPragmas = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

func initDB(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", withPragmas(path, dsnPragmas))
}
