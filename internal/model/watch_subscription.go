package model

import "time"

// WatchSubscription is a browser web-push subscription that wants to be told
// when watched slots become free.
type WatchSubscription struct {
	Endpoint  string `gorm:"primaryKey"`
	P256DH    string `gorm:"column:p256dh;not null"`
	Auth      string `gorm:"not null"`
	CreatedAt time.Time

	Targets []WatchTarget `gorm:"foreignKey:Endpoint;references:Endpoint;constraint:OnDelete:CASCADE"`
}

// WatchTarget is one (room, time slot) pair a subscription watches. The date
// is deliberately not part of the target: a watch fires whenever the slot is
// observed turning free on any queried date.
type WatchTarget struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Endpoint string `gorm:"index;not null"`
	RoomID   int64  `gorm:"index:idx_watch_targets_slot;not null"`
	TimeSlot string `gorm:"index:idx_watch_targets_slot;not null"`
}
