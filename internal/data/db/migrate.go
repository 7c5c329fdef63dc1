package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/disaforms-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// IsPostgres reports whether row locks and RETURNING are available.
func IsPostgres(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres"
}
