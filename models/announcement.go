package models

import "time"

const (
	ContentStatusActive   = "active"
	ContentStatusArchived = "archived"
)

// Announcement is a global broadcast. There is no per-recipient fan-out;
// every principal sees it while it is active.
type Announcement struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	CreatorID    uint      `gorm:"not null;index" json:"creator_id"`
	Creator      User      `gorm:"foreignKey:CreatorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CreationDate time.Time `gorm:"not null" json:"creation_date"`
	Status       string    `gorm:"type:varchar(20);not null;default:active" json:"status"`
}
