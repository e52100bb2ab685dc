package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/patrickmn/go-cache"

	"roomboard-gateway/internal/board"
	"roomboard-gateway/internal/roomapi"
	"roomboard-gateway/internal/store"
	"roomboard-gateway/internal/watch"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	upstream   *roomapi.Client
	store      store.Store
	watch      *watch.Service
	webpush    *webpush.Options
	boards     *cache.Cache
	sessionTTL time.Duration
}

// NewHandler creates a new API handler. watchSvc may be nil, in which case
// availability loads are not observed for notifications.
func NewHandler(upstream *roomapi.Client, s store.Store, watchSvc *watch.Service, webpushOptions *webpush.Options, sessionTTL time.Duration) *Handler {
	return &Handler{
		upstream:   upstream,
		store:      s,
		watch:      watchSvc,
		webpush:    webpushOptions,
		boards:     cache.New(sessionTTL, 2*sessionTTL),
		sessionTTL: sessionTTL,
	}
}

func (h *Handler) newBoard(cookie string) *board.Board {
	client := h.upstream.ForSession(cookie)
	if h.watch != nil {
		return board.New(client, board.WithObserver(h.watch))
	}
	return board.New(client)
}
