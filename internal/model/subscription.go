package model

import "time"

// AlertSubscription holds a browser push subscription for an operator who
// wants to be alerted when an incident is classified Critical.
type AlertSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"-"`
	Auth      string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}
