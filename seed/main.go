package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/driftgate-labs/sortie_api/model"
	"github.com/driftgate-labs/sortie_api/seed/seeders"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "all", "Type of seeding: all, variants, collections, demo")
		dbTarget = flag.String("db", "", "Database path or DSN (overrides environment)")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	db, err := openDatabase(*dbTarget)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// The server migrates on boot too; doing it here lets the seeder run
	// against a fresh database.
	if err := db.AutoMigrate(
		&model.User{},
		&model.MissionVariant{},
		&model.ObjectiveTemplate{},
		&model.GameConfig{},
		&model.Operative{},
		&model.PassCollection{},
		&model.Pass{},
		&model.UserProfile{},
		&model.WalletAccount{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	mainSeeder := seeders.NewMainSeeder(db)

	switch *seedType {
	case "all":
		log.Println("Running complete database seeding...")
		if err := mainSeeder.SeedAll(); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	case "variants":
		log.Println("Seeding mission variants only...")
		if err := mainSeeder.SeedVariantsOnly(); err != nil {
			log.Fatalf("Failed to seed variants: %v", err)
		}
	case "collections":
		log.Println("Seeding pass collections only...")
		if err := mainSeeder.SeedCollectionsOnly(); err != nil {
			log.Fatalf("Failed to seed collections: %v", err)
		}
	case "demo":
		log.Println("Seeding demo accounts only...")
		if err := mainSeeder.SeedDemoOnly(); err != nil {
			log.Fatalf("Failed to seed demo accounts: %v", err)
		}
	default:
		log.Fatalf("Unknown seed type: %s. Use 'all', 'variants', 'collections', or 'demo'", *seedType)
	}

	log.Println("Seeding operation completed successfully!")
}

func openDatabase(override string) (*gorm.DB, error) {
	driver := strings.ToLower(os.Getenv("DB_DRIVER"))
	config := &gorm.Config{Logger: logger.Default.LogMode(logger.Info)}

	if driver == "sqlite" || driver == "" {
		path := override
		if path == "" {
			path = os.Getenv("DB_PATH")
		}
		if path == "" {
			path = "sortie.db"
		}
		log.Printf("Connecting to sqlite database: %s", path)
		return gorm.Open(sqlite.Open(path), config)
	}

	dsn := override
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		log.Fatal("DATABASE_URL is required for postgres seeding")
	}
	log.Println("Connecting to postgres database")
	return gorm.Open(postgres.Open(dsn), config)
}

func showHelp() {
	log.Println(`
Database Seeding Tool for the Sortie API

Usage: go run seed/main.go [flags]

Flags:
  -type string
        Type of seeding to perform (default "all")
        Options: all, variants, collections, demo
  -db string
        Database path (sqlite) or DSN (postgres), overrides environment
  -help
        Show this help message

Examples:
  # Seed everything into the local sqlite database
  go run seed/main.go

  # Seed only mission variants
  go run seed/main.go -type=variants

  # Seed into a custom sqlite file
  go run seed/main.go -db=./custom.db

  # Seed demo accounts into postgres
  DB_DRIVER=postgres DATABASE_URL=... go run seed/main.go -type=demo

Environment Variables:
  DB_DRIVER    - sqlite (default) or postgres
  DB_PATH      - sqlite database path (default: sortie.db)
  DATABASE_URL - postgres connection string`)
}
