package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"nexus-response-backend/internal/urgency"
)

// IncidentStatus is the closed set of lifecycle states for an incident.
type IncidentStatus string

const (
	IncidentOpen       IncidentStatus = "Open"
	IncidentInProgress IncidentStatus = "InProgress"
	IncidentClosed     IncidentStatus = "Closed"
)

// ParseIncidentStatus maps a raw status string onto the closed enum.
func ParseIncidentStatus(s string) (IncidentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return IncidentOpen, nil
	case "inprogress":
		return IncidentInProgress, nil
	case "closed":
		return IncidentClosed, nil
	}
	return "", fmt.Errorf("unrecognized incident status %q", s)
}

// Source tags where an incident originated.
type Source string

const (
	SourceIoT    Source = "IoT"
	SourceManual Source = "manual"
)

// ParseSource maps a raw source string onto the closed enum.
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "iot":
		return SourceIoT, nil
	case "manual":
		return SourceManual, nil
	}
	return "", fmt.Errorf("unrecognized incident source %q", s)
}

// Factors is the ordered list of rule labels that fired during urgency
// classification. It persists as a single text column.
type Factors []string

const factorSeparator = "; "

// Value implements driver.Valuer.
func (f Factors) Value() (driver.Value, error) {
	return strings.Join(f, factorSeparator), nil
}

// Scan implements sql.Scanner.
func (f *Factors) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*f = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Factors", src)
	}
	if s == "" {
		*f = nil
		return nil
	}
	*f = strings.Split(s, factorSeparator)
	return nil
}

// Incident is a reported or detected event requiring response. The urgency
// fields are set once at creation and never recomputed afterwards.
type Incident struct {
	ID             int64          `gorm:"primaryKey" json:"id"`
	Description    string         `gorm:"size:500;not null" json:"description"`
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	StatusReport   string         `gorm:"size:50;not null" json:"statusReport"`
	Source         Source         `gorm:"size:20;not null" json:"source"`
	UrgencyLevel   urgency.Level  `gorm:"size:20;not null" json:"urgencyLevel"`
	UrgencyScore   int            `gorm:"not null" json:"urgencyScore"`
	UrgencyFactors Factors        `gorm:"type:text" json:"urgencyFactors"`
	Status         IncidentStatus `gorm:"size:20;not null" json:"status"`
	Timestamp      time.Time      `gorm:"not null" json:"timestamp"`
	ReportedByID   int64          `gorm:"index;not null" json:"reportedById"`

	// Associations
	ReportedBy User         `gorm:"foreignKey:ReportedByID" json:"-"`
	Comments   []Comment    `gorm:"foreignKey:IncidentID;constraint:OnDelete:CASCADE" json:"-"`
	Readings   []IoTReading `gorm:"foreignKey:IncidentID" json:"-"`
}
