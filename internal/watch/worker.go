package watch

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"roomboard-gateway/internal/model"
	"roomboard-gateway/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Pool manages a pool of workers delivering freed-slot notifications.
type Pool struct {
	size    int
	jobs    chan store.SlotKey
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewPool creates a new worker pool.
func NewPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *Pool {
	return &Pool{
		size:    size,
		jobs:    make(chan store.SlotKey, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.worker(ctx, i)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	log.Printf("Watch worker %d started", id)
	for {
		select {
		case key := <-p.jobs:
			log.Printf("Watch worker %d processing room %d slot %s", id, key.RoomID, key.TimeSlot)
			p.notifyWatchers(ctx, key)
		case <-ctx.Done():
			log.Printf("Watch worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a freed slot for notification delivery.
func (p *Pool) Dispatch(key store.SlotKey) {
	p.jobs <- key
}

// Jobs returns the jobs channel for testing.
func (p *Pool) Jobs() chan store.SlotKey {
	return p.jobs
}

// notifyWatchers fetches the subscriptions watching the slot and pushes a
// notification to each.
func (p *Pool) notifyWatchers(ctx context.Context, key store.SlotKey) {
	var subscriptions []model.WatchSubscription
	err := p.db.WithContext(ctx).
		Joins("JOIN watch_targets wt ON wt.endpoint = watch_subscriptions.endpoint").
		Where("wt.room_id = ? AND wt.time_slot = ?", key.RoomID, key.TimeSlot).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching watchers for room %d slot %s: %v", key.RoomID, key.TimeSlot, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	roomLabel := key.RoomCode
	if roomLabel == "" {
		roomLabel = fmt.Sprintf("%d", key.RoomID)
	}
	message := fmt.Sprintf("Room %s is now free for %s.", roomLabel, key.TimeSlot)

	log.Printf("Sending %d notifications for room %d slot %s", len(subscriptions), key.RoomID, key.TimeSlot)
	for _, sub := range subscriptions {
		p.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (p *Pool) sendNotification(ctx context.Context, sub model.WatchSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := p.sender.Send(payload, wpSub, p.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := p.db.WithContext(ctx).Select("Targets").Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
