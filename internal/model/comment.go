package model

import "time"

// Comment is an operator note attached to an incident. The author's display
// name is denormalized so the comment stays readable after user changes.
type Comment struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	IncidentID int64     `gorm:"index;not null" json:"incidentId"`
	Content    string    `gorm:"size:500;not null" json:"content"`
	UserID     int64     `gorm:"not null" json:"userId"`
	UserName   string    `gorm:"size:100" json:"userName"`
	Timestamp  time.Time `gorm:"index;not null" json:"timestamp"`
}
