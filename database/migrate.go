package database

import (
	"gorm.io/gorm"

	"github.com/edupoint/school-app/models"
)

// AutoMigrate creates or updates the schema for every model, including
// the parent_students join table and the composite unique index on
// user_notifications that the delivery ledger depends on.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Announcement{},
		&models.Notification{},
		&models.UserNotification{},
	)
}
