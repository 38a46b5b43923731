package models

import "time"

// Task statuses.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// Task is a verification assignment: a customer whose registration
// certificate must be checked. The registered company data on the task is
// the system-of-record side of the comparison.
type Task struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
	Title     string     `gorm:"size:255;not null"`
	Status    string     `gorm:"size:32;not null;default:pending;index"`

	// Registered company data to verify against.
	CustomerName      string `gorm:"size:255;index"`
	CreditCode        string `gorm:"size:18;index"`
	LegalPerson       string `gorm:"size:255"`
	Address           string `gorm:"size:512"`
	RegisteredCapital string `gorm:"size:128"`

	AssigneeID *uint `gorm:"index"`
	Assignee   *User `gorm:"foreignKey:AssigneeID;references:ID"`
	DueDate    *time.Time
	Scans      []ScanRecord `gorm:"foreignKey:TaskID"`
}
