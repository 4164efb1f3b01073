package main

import (
	"database/sql"
	"flag"
	"os"

	"coursemart/internal/database"
	"coursemart/internal/logger"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up|down")
	steps := flag.Int("steps", 0, "Number of migrations to roll back with -direction down; 0 rolls back all")
	flag.Parse()

	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// Only the connection string is needed, so the full config is not loaded.
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		logger.Fatal().Msg("DB_CONNECTION_STRING is not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	if err := db.Ping(); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}

	mg, err := database.NewMigrator(db)
	if err != nil {
		logger.Fatal().Msgf("Failed to prepare migrations: %v", err)
	}
	defer func() {
		if err := mg.Close(); err != nil {
			logger.Error().Err(err).Msg("Closing migrator")
		}
	}()

	switch *direction {
	case "up":
		err = mg.Up()
	case "down":
		err = mg.Down(*steps)
	default:
		logger.Fatal().Msgf("Invalid direction: %s", *direction)
	}
	if err != nil {
		logger.Fatal().Msgf("Migration failed: %v", err)
	}

	version, dirty, err := mg.Version()
	if err != nil {
		logger.Fatal().Msgf("Failed to read schema version: %v", err)
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msgf("Migrations %s complete", *direction)
}
