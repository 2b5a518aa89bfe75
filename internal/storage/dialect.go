package storage

import (
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Dialect selects the database/sql driver and migration set.
type Dialect string

const (
	SQLite Dialect = "sqlite"
	MySQL  Dialect = "mysql"
)

func (d Dialect) driverName() string {
	return string(d)
}

func (d Dialect) String() string {
	return string(d)
}
