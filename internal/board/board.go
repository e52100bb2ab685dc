// Package board holds the room-booking workflow state for one dashboard
// session: the availability table with its filters, the transient booking
// form, and the user's reservations panel. All state is a projection of the
// university API; after any mutation the board re-derives it from the server
// instead of patching locally.
package board

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"roomboard-gateway/internal/parse"
	"roomboard-gateway/internal/roomapi"
)

const (
	dateLayout = "2006-01-02"

	// How many reservations the bookings panel shows before collapsing the
	// rest into a "N more" count.
	bookingsPreviewSize = 6

	msgConnectivity   = "Connection Error: Cannot reach the booking server."
	msgLoadFailed     = "Failed to load room data."
	msgBookingFailed  = "Failed to create booking."
	msgPurposeMissing = "Please provide a purpose for the booking."
)

// ErrPurposeRequired is returned by Confirm when the purpose is empty after
// trimming. No upstream call is made in that case.
var ErrPurposeRequired = errors.New("booking purpose is required")

// ErrNoSelection is returned by Confirm when no slot is currently selected.
var ErrNoSelection = errors.New("no slot selected")

// Client is the subset of the room API the board drives.
type Client interface {
	FetchAvailability(ctx context.Context, date, roomType string) ([]roomapi.AvailabilitySlot, error)
	FetchUserBookings(ctx context.Context) ([]roomapi.UserBooking, error)
	CreateBooking(ctx context.Context, payload roomapi.BookingPayload) error
}

// SlotsObserver is notified after every availability load that was applied to
// the board. The watch service uses this to detect slots turning free.
type SlotsObserver interface {
	SlotsLoaded(date string, slots []roomapi.AvailabilitySlot)
}

// SelectedSlot is the booking draft built when the user picks a free slot.
// It exists only while the booking form is open.
type SelectedSlot struct {
	ID        int64  `json:"id"`
	RoomCode  string `json:"roomCode"`
	RoomType  string `json:"roomType"`
	Capacity  int    `json:"capacity"`
	Date      string `json:"date"`
	TimeSlot  string `json:"timeSlot"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Board is the per-session workflow state machine. All methods are safe for
// concurrent use; overlapping availability loads are reconciled by tagging
// each request with the filter generation active at dispatch and discarding
// responses whose generation no longer matches.
type Board struct {
	client   Client
	observer SlotsObserver

	mu        sync.Mutex
	date      string
	roomType  string
	filterGen uint64

	slots   []roomapi.AvailabilitySlot
	loading bool
	loadErr string

	// selection == nil means the booking form is closed; the form fields
	// below are only meaningful while it is non-nil.
	selection  *SelectedSlot
	purpose    string
	submitting bool
	formErr    string

	bookings        []roomapi.UserBooking
	loadingBookings bool
}

// Option configures a Board.
type Option func(*Board)

// WithObserver registers the observer invoked after applied availability loads.
func WithObserver(obs SlotsObserver) Option {
	return func(b *Board) { b.observer = obs }
}

// New creates a board with the default filters: today's date, all room types.
func New(client Client, opts ...Option) *Board {
	b := &Board{
		client:   client,
		date:     time.Now().Format(dateLayout),
		roomType: roomapi.RoomTypeAll,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetDate changes the date filter. The caller is expected to follow up with
// Reload; changing the filter invalidates any in-flight load.
func (b *Board) SetDate(date string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.date == date {
		return
	}
	b.date = date
	b.filterGen++
}

// SetRoomType changes the room-type filter, invalidating in-flight loads.
func (b *Board) SetRoomType(roomType string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.roomType == roomType {
		return
	}
	b.roomType = roomType
	b.filterGen++
}

// Filters returns the current filter pair.
func (b *Board) Filters() (date, roomType string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.date, b.roomType
}

// Reload fetches the availability matrix for the current filters and replaces
// the table wholesale. A response that resolves after the filters changed
// again is discarded, so the table always corresponds to the filters it was
// requested for. On failure the previous rows stay visible and only the error
// message is updated.
func (b *Board) Reload(ctx context.Context) {
	b.mu.Lock()
	date, roomType, gen := b.date, b.roomType, b.filterGen
	b.loading = true
	b.mu.Unlock()

	slots, err := b.client.FetchAvailability(ctx, date, roomType)

	b.mu.Lock()
	if b.filterGen != gen {
		// Filters moved on while this request was in flight.
		b.mu.Unlock()
		log.Printf("discarding stale availability response for date=%s roomType=%q", date, roomType)
		return
	}
	b.loading = false
	if err != nil {
		b.loadErr = loadErrorMessage(err)
		b.mu.Unlock()
		log.Printf("availability load failed for date=%s roomType=%q: %v", date, roomType, err)
		return
	}
	b.loadErr = ""
	b.slots = slots
	b.mu.Unlock()

	if b.observer != nil {
		b.observer.SlotsLoaded(date, slots)
	}
}

// OpenBooking opens the booking form for the listed slot with the given ID.
// It reports whether the form was opened: slots that are not listed, not
// free, or carry a malformed time slot are a no-op so that bad upstream data
// never corrupts the draft.
func (b *Board) OpenBooking(slotID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	var slot *roomapi.AvailabilitySlot
	for i := range b.slots {
		if b.slots[i].ID == slotID {
			slot = &b.slots[i]
			break
		}
	}
	if slot == nil {
		log.Printf("ignoring booking request for unknown slot %d", slotID)
		return false
	}
	if slot.Status != roomapi.StatusFree {
		log.Printf("ignoring booking request for non-free slot %d (%s)", slotID, slot.Status)
		return false
	}

	ts, err := parse.ParseTimeSlot(slot.TimeSlot)
	if err != nil {
		log.Printf("ignoring booking request for slot %d: %v", slotID, err)
		return false
	}

	b.selection = &SelectedSlot{
		ID:        slot.ID,
		RoomCode:  slot.RoomCode,
		RoomType:  slot.RoomType,
		Capacity:  slot.Capacity,
		Date:      b.date,
		TimeSlot:  slot.TimeSlot,
		StartTime: ts.Start,
		EndTime:   ts.End,
	}
	b.purpose = ""
	b.formErr = ""
	b.submitting = false
	return true
}

// SetPurpose updates the booking form draft. Any previously shown form error
// is cleared, matching the form's edit behavior. Ignored while a submission
// is in flight.
func (b *Board) SetPurpose(purpose string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.selection == nil || b.submitting {
		return
	}
	b.purpose = purpose
	b.formErr = ""
}

// CancelBooking closes the booking form, dropping the draft.
func (b *Board) CancelBooking() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitting {
		return
	}
	b.selection = nil
	b.purpose = ""
	b.formErr = ""
}

// Confirm submits the booking draft. A blank purpose is rejected locally
// without touching the network. On upstream failure the form stays open with
// the normalized error message so the user can amend and retry; the call is
// never retried automatically. On success the form closes and both the
// bookings panel and the availability table are re-fetched from the server.
func (b *Board) Confirm(ctx context.Context) error {
	b.mu.Lock()
	if b.selection == nil {
		b.mu.Unlock()
		return ErrNoSelection
	}
	if b.submitting {
		b.mu.Unlock()
		return errors.New("a booking submission is already in flight")
	}
	purpose := strings.TrimSpace(b.purpose)
	if purpose == "" {
		b.formErr = msgPurposeMissing
		b.mu.Unlock()
		return ErrPurposeRequired
	}
	sel := *b.selection
	b.submitting = true
	b.formErr = ""
	b.mu.Unlock()

	payload := roomapi.BookingPayload{
		RoomID:    sel.ID,
		Purpose:   purpose,
		StartTime: sel.Date + "T" + sel.StartTime + ":00",
		EndTime:   sel.Date + "T" + sel.EndTime + ":00",
	}

	if err := b.client.CreateBooking(ctx, payload); err != nil {
		b.mu.Lock()
		b.submitting = false
		b.formErr = bookingErrorMessage(err)
		b.mu.Unlock()
		return err
	}

	b.mu.Lock()
	b.selection = nil
	b.purpose = ""
	b.submitting = false
	b.formErr = ""
	b.mu.Unlock()

	b.ReloadBookings(ctx)
	b.Reload(ctx)
	return nil
}

// ReloadBookings replaces the user's reservation list with the server's
// current view. The list is never appended to locally; a fresh fetch after
// every confirmed booking is what keeps the panel consistent with the
// upstream booking table. On failure the previous list stays visible.
func (b *Board) ReloadBookings(ctx context.Context) {
	b.mu.Lock()
	b.loadingBookings = true
	b.mu.Unlock()

	bookings, err := b.client.FetchUserBookings(ctx)

	b.mu.Lock()
	b.loadingBookings = false
	if err != nil {
		b.mu.Unlock()
		log.Printf("failed to load user bookings: %v", err)
		return
	}
	b.bookings = bookings
	b.mu.Unlock()
}

// bookingErrorMessage picks the form error shown after a failed submission.
// Only a real server response carries a message worth surfacing; transport
// failures produce Go error strings that mean nothing to the user.
func bookingErrorMessage(err error) string {
	if roomapi.IsConnectivity(err) {
		return msgBookingFailed
	}
	return roomapi.Message(err, msgBookingFailed)
}

func loadErrorMessage(err error) string {
	if roomapi.IsConnectivity(err) {
		return msgConnectivity
	}
	if msg := roomapi.Message(err, ""); msg != "" {
		return "API Error: " + msg
	}
	return msgLoadFailed
}
