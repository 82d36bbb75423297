package model

import "time"

// User is a registered reporter. Email and national id uniqueness is enforced
// by unique indexes at the storage layer; application-level lookups are only
// an optimization on top of that.
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	NationalID   string    `gorm:"uniqueIndex;size:32;not null" json:"nationalId"`
	Email        string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Associations. Deletion of a user is restricted while incidents
	// reference it.
	ReportedIncidents []Incident `gorm:"foreignKey:ReportedByID" json:"-"`
}
