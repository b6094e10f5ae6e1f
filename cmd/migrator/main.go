package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Applies the goose migrations under db/migrations. Shares the PG_* variables
// with the api service so one .env drives both binaries.
func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status or version")
		dir     = flag.String("dir", "db/migrations", "Directory containing migration files")
	)
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	_ = godotenv.Load()

	dsn, err := dsnFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid database configuration")
	}

	migrationDir, err := filepath.Abs(*dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("failed to resolve migration directory")
	}
	if _, err := os.Stat(migrationDir); os.IsNotExist(err) {
		log.Fatal().Str("dir", migrationDir).Msg("migration directory does not exist")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database connection")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	log.Info().Str("migration_dir", migrationDir).Msg("connected to database")

	goose.SetBaseFS(nil)
	goose.SetTableName("goose_db_version")

	switch *command {
	case "up":
		if err := goose.Up(db, migrationDir); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations up")
		}
		log.Info().Msg("migrations applied")
	case "down":
		if err := goose.Down(db, migrationDir); err != nil {
			log.Fatal().Err(err).Msg("failed to roll back migration")
		}
		log.Info().Msg("migration rolled back")
	case "status":
		if err := goose.Status(db, migrationDir); err != nil {
			log.Fatal().Err(err).Msg("failed to get migration status")
		}
	case "version":
		v, err := goose.GetDBVersion(db)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get database version")
		}
		log.Info().Int64("version", v).Msg("database version")
	default:
		log.Fatal().Str("command", *command).Msg("unknown command. Use: up, down, status or version")
	}
}

func dsnFromEnv() (string, error) {
	required := map[string]string{
		"PG_USER":     os.Getenv("PG_USER"),
		"PG_PASSWORD": os.Getenv("PG_PASSWORD"),
		"PG_DATABASE": os.Getenv("PG_DATABASE"),
	}
	for name, value := range required {
		if value == "" {
			return "", fmt.Errorf("%s environment variable is required", name)
		}
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("PG_HOST", "localhost"), getEnv("PG_PORT", "5432"),
		required["PG_USER"], required["PG_PASSWORD"], required["PG_DATABASE"],
		getEnv("PG_SSL_MODE", "disable")), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
