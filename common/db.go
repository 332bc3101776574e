package common

import (
	"errors"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNoDatabase = errors.New("no database configured: set sqlite_db or DATABASE_URL")

// ConnectDb opens the store named by dsn. postgres:// and postgresql:// URLs
// use the PostgreSQL driver; anything else is treated as a SQLite path.
func ConnectDb(dsn string) (*gorm.DB, error) {
	log := Logger("common")

	if dsn == "" {
		return nil, ErrNoDatabase
	}

	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	if isPostgres(dsn) {
		dialector = postgres.Open(dsn)
		log.Info().Str("driver", "postgres").Msg("opening database")
	} else {
		dialector = sqlite.Open(sqliteDSN(dsn))
		log.Info().Str("driver", "sqlite").Str("path", dsn).Msg("opening database")
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		log.Error().Err(err).Msg("error opening database")
		return nil, err
	}

	// Every connection to :memory: is a separate database; pin the pool to
	// one so subscription goroutines see the same tables.
	if dsn == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// sqliteDSN adds WAL mode and a busy timeout so concurrent request
// goroutines wait for the write lock instead of failing.
func sqliteDSN(path string) string {
	path = strings.TrimPrefix(path, "sqlite://")
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}
