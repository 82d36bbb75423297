package model

import "time"

// IoTReading is a single telemetry sample received from a device. The raw
// payload is preserved verbatim for replay and audit; the decoded numeric
// fields are optional and any subset may be absent.
type IoTReading struct {
	ID             int64    `gorm:"primaryKey" json:"id"`
	DeviceID       int64    `gorm:"index;not null" json:"deviceId"`
	Type           string   `gorm:"size:30;not null" json:"type"`
	RawPayload     string   `gorm:"not null" json:"rawPayload"`
	Temperature    *float64 `json:"temperature,omitempty"`
	Humidity       *float64 `json:"humidity,omitempty"`
	Distance       *float64 `json:"distance,omitempty"`
	AccelerometerX *float64 `json:"accelerometerX,omitempty"`
	AccelerometerY *float64 `json:"accelerometerY,omitempty"`
	AccelerometerZ *float64 `json:"accelerometerZ,omitempty"`

	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`

	// IncidentID links the reading back to the incident it triggered, if any.
	IncidentID *int64 `gorm:"index" json:"incidentId,omitempty"`
}
