package api

import (
	"github.com/gin-gonic/gin"

	"roomboard-gateway/internal/board"
)

// sessionKey derives the board-registry key for a request. The gateway never
// parses or validates credentials; the opaque session cookie both keys the
// board and is forwarded verbatim to the upstream, which owns authentication.
func sessionKey(c *gin.Context) string {
	if v, err := c.Cookie("JSESSIONID"); err == nil && v != "" {
		return "sid:" + v
	}
	if cookie := c.GetHeader("Cookie"); cookie != "" {
		return "cookie:" + cookie
	}
	// Unauthenticated browsing still gets a (per-address) board; upstream
	// calls that need a user will fail there and surface normally.
	return "addr:" + c.ClientIP()
}

// boardFor returns the session's board, creating it on first touch. Creation
// performs the initial availability and bookings loads, the equivalent of the
// dashboard's on-mount fetches.
func (h *Handler) boardFor(c *gin.Context) *board.Board {
	key := sessionKey(c)
	if cached, found := h.boards.Get(key); found {
		b := cached.(*board.Board)
		h.boards.Set(key, b, h.sessionTTL)
		return b
	}

	b := h.newBoard(c.GetHeader("Cookie"))
	// Add is atomic, so concurrent first touches for one session agree on a
	// single board instead of the last Set clobbering the others.
	if err := h.boards.Add(key, b, h.sessionTTL); err != nil {
		if cached, found := h.boards.Get(key); found {
			return cached.(*board.Board)
		}
		h.boards.Set(key, b, h.sessionTTL)
	}

	ctx := c.Request.Context()
	b.Reload(ctx)
	b.ReloadBookings(ctx)
	return b
}
