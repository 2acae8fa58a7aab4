package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/fablab-print-api/internal/models"
)

// Connect opens the configured database. Duplicate key errors are translated
// to gorm.ErrDuplicatedKey so repositories can match them portably.
func Connect(driver, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn must not be empty", driver)
	}

	cfg := &gorm.Config{TranslateError: true}

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == "sqlite" {
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}

	return db, nil
}

// activeDuplicateIndex enforces one active job per file hash and student.
const activeDuplicateIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_active_duplicate
ON jobs (file_hash, student_email)
WHERE status IN ('UPLOADED','PENDING','READYTOPRINT')`

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Staff{}, &models.Job{}, &models.Event{}, &models.Payment{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(activeDuplicateIndex).Error; err != nil {
		return fmt.Errorf("create duplicate guard index: %w", err)
	}
	return nil
}
