package model

import (
	"fmt"
	"strings"
	"time"
)

// DeviceStatus is the closed set of reachability states a device can be in.
type DeviceStatus string

const (
	DeviceOnline  DeviceStatus = "Online"
	DeviceOffline DeviceStatus = "Offline"
	DeviceUnknown DeviceStatus = "Unknown"
)

// ParseDeviceStatus maps a raw status string onto the closed enum.
// Unrecognized values are rejected at the boundary instead of stored as-is.
func ParseDeviceStatus(s string) (DeviceStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online":
		return DeviceOnline, nil
	case "offline":
		return DeviceOffline, nil
	case "unknown":
		return DeviceUnknown, nil
	}
	return "", fmt.Errorf("unrecognized device status %q", s)
}

// Device represents a registered IoT sensor device.
type Device struct {
	ID                int64        `gorm:"primaryKey" json:"id"`
	Name              string       `gorm:"size:100;not null" json:"name"`
	Type              string       `gorm:"size:50;not null" json:"type"`
	Location          string       `gorm:"size:200" json:"location"`
	Status            DeviceStatus `gorm:"size:20;not null" json:"status"`
	Latitude          float64      `json:"latitude"`
	Longitude         float64      `json:"longitude"`
	LastCommunication time.Time    `json:"lastCommunication"`
	CreatedAt         time.Time    `gorm:"not null" json:"createdAt"`

	// Associations
	Readings []IoTReading `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE" json:"-"`
}
