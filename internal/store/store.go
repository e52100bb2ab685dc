package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roomboard-gateway/internal/model"
	"roomboard-gateway/internal/roomapi"
)

// SlotKey identifies a bookable slot independent of date.
type SlotKey struct {
	RoomID   int64
	TimeSlot string
	RoomCode string
}

// Store defines the persistence operations used by the gateway.
type Store interface {
	// RecordObservations upserts the latest observed status for each slot on
	// the given date and returns the slots that transitioned from Booked to
	// Free since the previous observation.
	RecordObservations(ctx context.Context, date string, now time.Time, slots []roomapi.AvailabilitySlot) ([]SlotKey, error)
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) RecordObservations(ctx context.Context, date string, now time.Time, slots []roomapi.AvailabilitySlot) ([]SlotKey, error) {
	if len(slots) == 0 {
		return nil, nil
	}

	previous, err := s.fetchObservations(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prior slot observations: %w", err)
	}

	var freed []SlotKey
	observations := make([]model.SlotObservation, 0, len(slots))
	for _, slot := range slots {
		observations = append(observations, model.SlotObservation{
			RoomID:     slot.ID,
			TimeSlot:   slot.TimeSlot,
			Date:       date,
			RoomCode:   slot.RoomCode,
			Status:     slot.Status,
			ObservedAt: now,
		})

		prev, seen := previous[obsKey{roomID: slot.ID, timeSlot: slot.TimeSlot}]
		if seen && prev.Status == roomapi.StatusBooked && slot.Status == roomapi.StatusFree {
			freed = append(freed, SlotKey{RoomID: slot.ID, TimeSlot: slot.TimeSlot, RoomCode: slot.RoomCode})
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "room_id"}, {Name: "time_slot"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"room_code", "status", "observed_at",
			}),
		}).Create(&observations).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert slot observations: %w", err)
	}

	return freed, nil
}

type obsKey struct {
	roomID   int64
	timeSlot string
}

func (s *gormStore) fetchObservations(ctx context.Context, date string) (map[obsKey]model.SlotObservation, error) {
	var rows []model.SlotObservation
	if err := s.db.WithContext(ctx).Where("date = ?", date).Find(&rows).Error; err != nil {
		return nil, err
	}
	byKey := make(map[obsKey]model.SlotObservation, len(rows))
	for _, r := range rows {
		byKey[obsKey{roomID: r.RoomID, timeSlot: r.TimeSlot}] = r
	}
	return byKey, nil
}
