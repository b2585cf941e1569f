package repository

import (
	"time"

	"github.com/edupoint/school-app/models"
)

// Store is the persistence capability set the notification core depends
// on. Handlers construct a GormStore; tests may substitute anything that
// satisfies the interface.
type Store interface {
	GetUser(id uint) (*models.User, error)
	ListActiveUsers() ([]models.User, error)
	ListUsersByRoles(roles []string) ([]models.User, error)
	ListUsersByIDs(ids []uint) ([]models.User, error)

	CreateNotification(n *models.Notification) error
	UpdateDeliveryStatus(notificationID uint, status string) error
	ListDuePending(now time.Time) ([]models.Notification, error)

	// InsertDeliveryRecords creates one delivery record per recipient,
	// skipping pairs that already exist. Returns the number actually
	// created and the number skipped as already present.
	InsertDeliveryRecords(notificationID uint, userIDs []uint, receivedAt time.Time) (created, alreadyPresent int64, err error)
	ListUserFeed(userID uint, unreadOnly bool, offset, limit int) ([]models.UserNotification, error)
	GetDeliveryRecord(id uint) (*models.UserNotification, error)
	MarkRecordRead(id uint) error
}
