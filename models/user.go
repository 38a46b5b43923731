package models

import (
	"time"
)

// User is an operator account. Scans and tasks hang off the user rather
// than a separate profile record.
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
	Username       string     `gorm:"size:255;not null;unique"`
	FullName       string     `gorm:"size:255"`
	HashedPassword []byte     `gorm:"not null"`
	RoleID         *uint      `gorm:"index"`
	Role           Role       `gorm:"foreignKey:RoleID;references:ID"`
	Tasks          []Task     `gorm:"foreignKey:AssigneeID"`
	Scans          []ScanRecord
}
