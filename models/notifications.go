package models

import "time"

const (
	TargetAll  = "all"
	TargetRole = "role"
	TargetUser = "user"
)

const (
	DeliveryPending       = "pending"
	DeliveryProcessing    = "processing"
	DeliverySent          = "sent"
	DeliveryPartiallySent = "partially_sent"
	DeliveryFailed        = "failed"
)

const (
	ReadStatusUnread = "unread"
	ReadStatusRead   = "read"
)

type Notification struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"type:varchar(255);not null" json:"title"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	CreatorID     uint      `gorm:"not null;index" json:"creator_id"`
	Creator       User      `gorm:"foreignKey:CreatorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CreationDate  time.Time `gorm:"not null" json:"creation_date"`
	TargetType    string    `gorm:"type:varchar(10);not null" json:"target_type"`
	TargetRoles   []string  `gorm:"serializer:json" json:"target_roles,omitempty"`
	TargetUserIDs []uint    `gorm:"serializer:json" json:"target_user_ids,omitempty"`

	ScheduleTime   *time.Time `json:"schedule_time,omitempty"`
	DeliveryStatus string     `gorm:"type:varchar(20);not null;default:pending" json:"delivery_status"`
	Status         string     `gorm:"type:varchar(20);not null;default:active" json:"status"`
}

// UserNotification is the per-recipient delivery record. The composite
// unique index is what makes fan-out idempotent: re-materializing after a
// retry inserts nothing for pairs that already exist.
type UserNotification struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	UserID         uint         `gorm:"not null;uniqueIndex:idx_notification_recipient" json:"user_id"`
	NotificationID uint         `gorm:"not null;uniqueIndex:idx_notification_recipient" json:"notification_id"`
	Notification   Notification `gorm:"foreignKey:NotificationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"notification"`
	ReadStatus     string       `gorm:"type:varchar(10);not null;default:unread" json:"read_status"`
	ReceivedAt     time.Time    `gorm:"not null;index" json:"received_at"`
}
