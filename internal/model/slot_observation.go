package model

import "time"

// SlotObservation records the last status the gateway saw for a slot on a
// given date. Observations are produced as a side effect of dashboard
// refreshes; comparing the incoming status against the stored one is how
// Booked -> Free transitions are detected.
type SlotObservation struct {
	RoomID     int64  `gorm:"primaryKey;autoIncrement:false"`
	TimeSlot   string `gorm:"primaryKey"`
	Date       string `gorm:"primaryKey"`
	RoomCode   string
	Status     string `gorm:"not null"`
	ObservedAt time.Time
}
