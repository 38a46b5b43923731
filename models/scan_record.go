package models

import "time"

// ScanRecord persists one verification run of a certificate photo. The
// extracted fields and comparison result are stored as JSON documents so
// the record is self-contained for review.
type ScanRecord struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint  `gorm:"index;not null"`
	TaskID    *uint `gorm:"index"`

	ImagePath      string `gorm:"size:512"`
	RecognizedText string `gorm:"type:text"`
	Confidence     float64
	ExtractedJSON  string  `gorm:"type:text"`
	ComparisonJSON string  `gorm:"type:text"`
	AccuracyScore  float64 `gorm:"index"`

	// Mark the scan as failed instead of deleting it so reviewers can see
	// which documents could not be recognized.
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
