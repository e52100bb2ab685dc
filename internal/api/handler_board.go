package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"roomboard-gateway/internal/board"
	"roomboard-gateway/internal/roomapi"
)

const dateLayout = "2006-01-02"

// GetBoard handles GET /api/board.
func (h *Handler) GetBoard(c *gin.Context) {
	b := h.boardFor(c)
	c.JSON(http.StatusOK, b.Snapshot())
}

type setFiltersRequest struct {
	Date     string `json:"date"`
	RoomType string `json:"roomType"`
}

// SetFilters handles PUT /api/board/filters. Changing either filter triggers
// an availability reload for the new filter pair.
func (h *Handler) SetFilters(c *gin.Context) {
	var req setFiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Date != "" {
		if _, err := time.Parse(dateLayout, req.Date); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date must be in YYYY-MM-DD format"})
			return
		}
	}

	b := h.boardFor(c)
	if req.Date != "" {
		b.SetDate(req.Date)
	}
	if req.RoomType != "" {
		b.SetRoomType(req.RoomType)
	}
	b.Reload(c.Request.Context())
	c.JSON(http.StatusOK, b.Snapshot())
}

// RefreshBoard handles POST /api/board/refresh, the explicit user-initiated
// availability reload.
func (h *Handler) RefreshBoard(c *gin.Context) {
	b := h.boardFor(c)
	b.Reload(c.Request.Context())
	c.JSON(http.StatusOK, b.Snapshot())
}

type selectSlotRequest struct {
	SlotID int64 `json:"slotId" binding:"required"`
}

// SelectSlot handles POST /api/board/select, opening the booking form for a
// free slot of the latest load.
func (h *Handler) SelectSlot(c *gin.Context) {
	var req selectSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b := h.boardFor(c)
	if !b.OpenBooking(req.SlotID) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "slot cannot be booked"})
		return
	}
	c.JSON(http.StatusOK, b.Snapshot())
}

// CancelBooking handles POST /api/board/cancel, closing the booking form.
func (h *Handler) CancelBooking(c *gin.Context) {
	b := h.boardFor(c)
	b.CancelBooking()
	c.JSON(http.StatusOK, b.Snapshot())
}

type confirmBookingRequest struct {
	Purpose string `json:"purpose"`
}

// ConfirmBooking handles POST /api/board/confirm. On upstream rejection the
// form stays open with the error message in the snapshot, so the client can
// amend the purpose and retry.
func (h *Handler) ConfirmBooking(c *gin.Context) {
	var req confirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b := h.boardFor(c)
	b.SetPurpose(req.Purpose)
	err := b.Confirm(c.Request.Context())

	switch {
	case err == nil:
		c.JSON(http.StatusOK, b.Snapshot())
	case errors.Is(err, board.ErrNoSelection):
		c.JSON(http.StatusConflict, gin.H{"error": "no slot selected", "board": b.Snapshot()})
	case errors.Is(err, board.ErrPurposeRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "purpose is required", "board": b.Snapshot()})
	case roomapi.IsConnectivity(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": "cannot reach the booking server", "board": b.Snapshot()})
	default:
		// Upstream rejected the booking (typically a conflict on a stale
		// slot). The board keeps the form open with the server's message.
		c.JSON(http.StatusConflict, gin.H{"error": roomapi.Message(err, "failed to create booking"), "board": b.Snapshot()})
	}
}

// RefreshBookings handles POST /api/board/bookings/refresh, the manual
// refresh action of the bookings panel.
func (h *Handler) RefreshBookings(c *gin.Context) {
	b := h.boardFor(c)
	b.ReloadBookings(c.Request.Context())
	c.JSON(http.StatusOK, b.Snapshot())
}
