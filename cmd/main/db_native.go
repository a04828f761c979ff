//go:build !cgo_sqlite

package main

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// dsnPragmas are the WAL and busy timeout settings in modernc's dialect.
const dsnPragmas = "_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

func initDB(path string) (*sql.DB, error) {
	return sql.Open("sqlite", withPragmas(path, dsnPragmas))
}
