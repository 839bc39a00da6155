package database

import (
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"              // SQLite driver

	"mise/internal/logger"
	"mise/internal/models"
)

// Open connects to the database, migrates the schema and returns a Store.
// driver is either "sqlite3" or "postgres".
func Open(driver, url string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}

	db, err := gorm.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	db.LogMode(log.GetLevel() >= logger.LevelVerbose)

	// An in-memory SQLite database exists per connection.
	if driver == "sqlite3" && strings.Contains(url, ":memory:") {
		db.DB().SetMaxOpenConns(1)
	}

	store := NewStore(db, log)
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("Connected to %s database", driver)
	return store, nil
}

// Migrate creates or updates the tables for every persisted model
func (s *Store) Migrate() error {
	err := s.db.AutoMigrate(
		&models.Kitchen{},
		&models.InventoryItem{},
		&models.Recipe{},
		&models.MealLog{},
		&models.PrepSuggestion{},
		&models.PrepSheet{},
	).Error
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
