package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edupoint/school-app/models"
)

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) ListActiveUsers() ([]models.User, error) {
	var users []models.User
	if err := s.DB.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) ListUsersByRoles(roles []string) ([]models.User, error) {
	var users []models.User
	if err := s.DB.Where("role IN ?", roles).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) ListUsersByIDs(ids []uint) ([]models.User, error) {
	var users []models.User
	if err := s.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) CreateNotification(n *models.Notification) error {
	return s.DB.Create(n).Error
}

func (s *GormStore) UpdateDeliveryStatus(notificationID uint, status string) error {
	return s.DB.Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Update("delivery_status", status).Error
}

func (s *GormStore) ListDuePending(now time.Time) ([]models.Notification, error) {
	var notifs []models.Notification
	err := s.DB.
		Where("delivery_status = ? AND schedule_time IS NOT NULL AND schedule_time <= ?", models.DeliveryPending, now).
		Find(&notifs).Error
	if err != nil {
		return nil, err
	}
	return notifs, nil
}

// InsertDeliveryRecords relies on the composite unique index on
// (notification_id, user_id) plus ON CONFLICT DO NOTHING, so concurrent
// dispatch attempts for the same notification never produce duplicates.
func (s *GormStore) InsertDeliveryRecords(notificationID uint, userIDs []uint, receivedAt time.Time) (int64, int64, error) {
	if len(userIDs) == 0 {
		return 0, 0, nil
	}

	records := make([]models.UserNotification, 0, len(userIDs))
	for _, id := range userIDs {
		records = append(records, models.UserNotification{
			UserID:         id,
			NotificationID: notificationID,
			ReadStatus:     models.ReadStatusUnread,
			ReceivedAt:     receivedAt,
		})
	}

	res := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&records)
	if res.Error != nil {
		return 0, 0, res.Error
	}
	return res.RowsAffected, int64(len(records)) - res.RowsAffected, nil
}

func (s *GormStore) ListUserFeed(userID uint, unreadOnly bool, offset, limit int) ([]models.UserNotification, error) {
	query := s.DB.
		Joins("JOIN notifications ON notifications.id = user_notifications.notification_id").
		Where("user_notifications.user_id = ? AND notifications.status = ?", userID, models.ContentStatusActive).
		Preload("Notification")

	if unreadOnly {
		query = query.Where("user_notifications.read_status = ?", models.ReadStatusUnread)
	}

	var records []models.UserNotification
	err := query.
		Order("user_notifications.received_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *GormStore) GetDeliveryRecord(id uint) (*models.UserNotification, error) {
	var record models.UserNotification
	if err := s.DB.First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *GormStore) MarkRecordRead(id uint) error {
	return s.DB.Model(&models.UserNotification{}).
		Where("id = ?", id).
		Update("read_status", models.ReadStatusRead).Error
}
