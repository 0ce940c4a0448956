package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/classroom-insights-api/internal/models"
)

// Migrate creates or updates the tables backing the analytics store.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
