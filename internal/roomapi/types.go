package roomapi

// Slot status values as reported by the university API.
const (
	StatusFree   = "Free"
	StatusBooked = "Booked"
)

// RoomTypeAll is the filter value that disables room-type filtering upstream.
const RoomTypeAll = "All Rooms"

// AvailabilitySlot is one row of the availability matrix for a given
// (date, roomType) filter pair. It is a read-only snapshot; the authoritative
// state lives in the university API's booking table.
type AvailabilitySlot struct {
	ID       int64  `json:"id"`
	RoomCode string `json:"roomCode"`
	RoomType string `json:"roomType"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status"`
	TimeSlot string `json:"timeSlot"`
}

// BookingPayload is the body of a booking-creation request. Timestamps are
// ISO-8601 local timestamps without a timezone offset, as the upstream expects.
type BookingPayload struct {
	RoomID    int64  `json:"roomId"`
	Purpose   string `json:"purpose"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// UserBooking is one reservation owned by the current session's user.
type UserBooking struct {
	BookingID int64  `json:"bookingId"`
	RoomCode  string `json:"roomCode"`
	RoomType  string `json:"roomType"`
	Status    string `json:"status"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	TimeSlot  string `json:"timeSlot"`
	Purpose   string `json:"purpose"`
}

// Room is an entry of the static room directory.
type Room struct {
	ID       int64  `json:"id"`
	RoomCode string `json:"roomCode"`
	RoomType string `json:"roomType"`
	Capacity int    `json:"capacity"`
}
