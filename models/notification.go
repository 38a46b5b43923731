package models

import "time"

// Notification is an in-app message for a user, e.g. a low-accuracy scan
// asking for manual review.
type Notification struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint   `gorm:"index;not null"`
	Title     string `gorm:"size:255;not null"`
	Body      string `gorm:"size:1024"`
	Read      bool   `gorm:"default:false;index"`
}
