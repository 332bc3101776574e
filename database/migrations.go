package database

import (
	"gorm.io/gorm"

	"inkwell/common"
	"inkwell/models"
)

func RunMigrations(db *gorm.DB) error {
	log := common.Logger("database")
	log.Info().Msg("running database migrations")

	err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.PostRead{},
	)

	if err != nil {
		log.Error().Err(err).Msg("error running migrations")
		return err
	}

	log.Info().Msg("migrations completed successfully")
	return nil
}

// OpenMemory returns a migrated in-memory SQLite store.
func OpenMemory() (*gorm.DB, error) {
	db, err := common.ConnectDb(":memory:")
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}
