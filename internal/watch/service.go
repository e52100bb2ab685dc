package watch

import (
	"context"
	"log"
	"time"

	"roomboard-gateway/internal/roomapi"
	"roomboard-gateway/internal/store"
)

// Service turns applied availability loads into freed-slot notifications.
// It implements board.SlotsObserver: every refresh a dashboard performs is
// also an observation of the booking table, so no background polling of the
// upstream is needed.
type Service struct {
	store store.Store
	pool  *Pool
}

// NewService creates a watch service on top of the given store and pool.
func NewService(s store.Store, pool *Pool) *Service {
	return &Service{store: s, pool: pool}
}

// SlotsLoaded records the observed slots and dispatches notification jobs for
// every slot that turned free since it was last seen. Observation failures
// are logged and swallowed: the dashboard refresh that triggered them must
// never be affected.
func (s *Service) SlotsLoaded(date string, slots []roomapi.AvailabilitySlot) {
	ctx := context.Background()
	freed, err := s.store.RecordObservations(ctx, date, time.Now().UTC(), slots)
	if err != nil {
		log.Printf("Error recording slot observations for %s: %v", date, err)
		return
	}

	if len(freed) > 0 {
		log.Printf("Dispatching notifications for %d freed slots", len(freed))
		for _, key := range freed {
			s.pool.Dispatch(key)
		}
	}
}
