package board

import "roomboard-gateway/internal/roomapi"

// Snapshot is an immutable render view of the board.
type Snapshot struct {
	Date     string `json:"date"`
	RoomType string `json:"roomType"`

	AvailableRooms []roomapi.AvailabilitySlot `json:"availableRooms"`
	IsLoading      bool                       `json:"isLoading"`
	Error          string                     `json:"error,omitempty"`

	SelectedSlot *SelectedSlot `json:"selectedSlot,omitempty"`
	Purpose      string        `json:"purpose,omitempty"`
	IsSubmitting bool          `json:"isSubmitting"`
	FormError    string        `json:"formError,omitempty"`

	UserBookings    []roomapi.UserBooking `json:"userBookings"`
	BookingCount    int                   `json:"bookingCount"`
	MoreBookings    int                   `json:"moreBookings"`
	LoadingBookings bool                  `json:"loadingBookings"`
}

// Snapshot returns a copy of the current board state. The bookings panel is
// bounded to a preview of the first entries plus a count of the remainder.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{
		Date:            b.date,
		RoomType:        b.roomType,
		AvailableRooms:  append([]roomapi.AvailabilitySlot(nil), b.slots...),
		IsLoading:       b.loading,
		Error:           b.loadErr,
		Purpose:         b.purpose,
		IsSubmitting:    b.submitting,
		FormError:       b.formErr,
		BookingCount:    len(b.bookings),
		LoadingBookings: b.loadingBookings,
	}

	if b.selection != nil {
		sel := *b.selection
		snap.SelectedSlot = &sel
	}

	preview := b.bookings
	if len(preview) > bookingsPreviewSize {
		snap.MoreBookings = len(preview) - bookingsPreviewSize
		preview = preview[:bookingsPreviewSize]
	}
	snap.UserBookings = append([]roomapi.UserBooking(nil), preview...)

	return snap
}
