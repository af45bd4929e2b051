// Package database keeps a process lifetime log of searches and report runs
// in an in-memory sqlite database.
package database

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens the database at dsn and migrates the schema.
func NewDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// a shared in-memory database disappears with its last connection
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := MigrateSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

// NewTestDB opens a fresh, uniquely named in-memory database.
func NewTestDB() (*gorm.DB, error) {
	return NewDB(fmt.Sprintf("file:test-%s?mode=memory&cache=shared", uuid.NewString()))
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
