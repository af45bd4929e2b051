package database

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateSchema creates or updates every table.
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&SearchRecord{}, &ReportRun{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_search_records_day_origin
		ON search_records(day, origin);
	`).Error; err != nil {
		return fmt.Errorf("failed to create search index: %w", err)
	}
	return nil
}
