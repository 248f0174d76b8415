package services

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Storage driver selection. Production runs on Postgres; DB_DRIVER=sqlite
// switches the storage service to an embedded database for local
// development, and the service tests open in-memory sqlite directly.
// Everything above the gorm.Dialector is shared.

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

// databaseDSN resolves the connection string for the configured driver
// from the environment.
func databaseDSN(driver string) string {
	if driver == DriverSqlite {
		if path := os.Getenv("DB_PATH"); path != "" {
			return path
		}
		return "sortie.db"
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	user := os.Getenv("DB_USER")
	if user == "" {
		user = "postgres"
	}
	password := os.Getenv("DB_PASSWORD")
	if password == "" {
		password = "postgres"
	}
	dbname := os.Getenv("DB_NAME")
	if dbname == "" {
		dbname = "sortie_api"
	}
	sslmode := os.Getenv("DB_SSLMODE")
	if sslmode == "" {
		sslmode = "disable"
	}
	timezone := os.Getenv("DB_TIMEZONE")
	if timezone == "" {
		timezone = "UTC"
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		host, user, password, dbname, port, sslmode, timezone)
}

func openDialector(driver, dsn string) gorm.Dialector {
	if driver == DriverSqlite {
		return sqlite.Open(dsn)
	}
	return postgres.Open(dsn)
}
