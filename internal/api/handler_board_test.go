package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"roomboard-gateway/config"
	"roomboard-gateway/internal/board"
	"roomboard-gateway/internal/model"
	"roomboard-gateway/internal/roomapi"
	"roomboard-gateway/internal/store"
)

// fakeUpstream is a stateful stand-in for the university API.
type fakeUpstream struct {
	mu           sync.Mutex
	server       *httptest.Server
	booked       map[int64]bool
	bookings     []roomapi.UserBooking
	roomsHits    int
	bookFailWith string // when non-empty, booking requests are rejected with this message
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{booked: make(map[int64]bool)}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/rooms/availability", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		status := roomapi.StatusFree
		if f.booked[1] {
			status = roomapi.StatusBooked
		}
		json.NewEncoder(w).Encode([]roomapi.AvailabilitySlot{
			{ID: 1, RoomCode: "C101", RoomType: "Classroom", Capacity: 30, Status: status, TimeSlot: "09:00-10:00"},
			{ID: 2, RoomCode: "L201", RoomType: "Computer Lab", Capacity: 24, Status: roomapi.StatusBooked, TimeSlot: "09:00-10:00"},
		})
	})
	mux.HandleFunc("/api/rooms/book", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.bookFailWith != "" {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"message": f.bookFailWith})
			return
		}
		var payload roomapi.BookingPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		f.booked[payload.RoomID] = true
		f.bookings = append(f.bookings, roomapi.UserBooking{
			BookingID: int64(len(f.bookings) + 1),
			RoomCode:  "C101",
			Status:    "CONFIRMED",
			Purpose:   payload.Purpose,
			StartTime: payload.StartTime,
			EndTime:   payload.EndTime,
		})
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/api/rooms/bookings/my", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(f.bookings)
	})
	mux.HandleFunc("/api/rooms/all", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.roomsHits++
		f.mu.Unlock()
		json.NewEncoder(w).Encode([]roomapi.Room{
			{ID: 1, RoomCode: "C101", RoomType: "Classroom", Capacity: 30},
		})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

var apiDBSeq int

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	apiDBSeq++
	dsn := fmt.Sprintf("file:apitest%d?mode=memory&cache=shared", apiDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.WatchSubscription{}, &model.WatchTarget{}, &model.SlotObservation{}))
	return store.NewGormStore(db)
}

func setupRouter(t *testing.T, upstream *fakeUpstream) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := roomapi.NewClient(upstream.server.URL, time.Second)
	handler := NewHandler(client, newTestStore(t), nil, nil, time.Minute)

	cfg := &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 60,
	}
	return NewRouter(cfg, handler)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", "JSESSIONID=test-session")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) board.Snapshot {
	t.Helper()
	var snap board.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func TestGetBoard_LoadsOnFirstTouch(t *testing.T) {
	upstream := newFakeUpstream(t)
	router := setupRouter(t, upstream)

	w := doJSON(t, router, http.MethodGet, "/api/board", nil)
	require.Equal(t, http.StatusOK, w.Code)

	snap := decodeSnapshot(t, w)
	require.Len(t, snap.AvailableRooms, 2)
	assert.Equal(t, "C101", snap.AvailableRooms[0].RoomCode)
	assert.Equal(t, roomapi.RoomTypeAll, snap.RoomType)
	assert.Nil(t, snap.SelectedSlot)
}

func TestBookingLifecycle(t *testing.T) {
	upstream := newFakeUpstream(t)
	router := setupRouter(t, upstream)

	// Filters: pick a date and room type.
	w := doJSON(t, router, http.MethodPut, "/api/board/filters", gin.H{"date": "2025-03-10", "roomType": "Classroom"})
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, "2025-03-10", snap.Date)
	assert.Equal(t, "Classroom", snap.RoomType)

	// Select the free slot: the booking form opens with the slot context.
	w = doJSON(t, router, http.MethodPost, "/api/board/select", gin.H{"slotId": 1})
	require.Equal(t, http.StatusOK, w.Code)
	snap = decodeSnapshot(t, w)
	require.NotNil(t, snap.SelectedSlot)
	assert.Equal(t, "C101", snap.SelectedSlot.RoomCode)
	assert.Equal(t, "2025-03-10", snap.SelectedSlot.Date)
	assert.Equal(t, "09:00-10:00", snap.SelectedSlot.TimeSlot)

	// Confirm: the form closes and both lists reflect the server's new state.
	w = doJSON(t, router, http.MethodPost, "/api/board/confirm", gin.H{"purpose": "Makeup lecture"})
	require.Equal(t, http.StatusOK, w.Code)
	snap = decodeSnapshot(t, w)
	assert.Nil(t, snap.SelectedSlot)
	require.Len(t, snap.UserBookings, 1)
	assert.Equal(t, "Makeup lecture", snap.UserBookings[0].Purpose)
	assert.Equal(t, "2025-03-10T09:00:00", snap.UserBookings[0].StartTime)
	assert.Equal(t, roomapi.StatusBooked, snap.AvailableRooms[0].Status)
}

func TestSelectSlot_BookedSlotIsRejected(t *testing.T) {
	upstream := newFakeUpstream(t)
	router := setupRouter(t, upstream)

	w := doJSON(t, router, http.MethodPost, "/api/board/select", gin.H{"slotId": 2})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/board", nil)
	assert.Nil(t, decodeSnapshot(t, w).SelectedSlot)
}

func TestConfirm_EmptyPurposeIsRejectedLocally(t *testing.T) {
	upstream := newFakeUpstream(t)
	router := setupRouter(t, upstream)

	w := doJSON(t, router, http.MethodPost, "/api/board/select", gin.H{"slotId": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/board/confirm", gin.H{"purpose": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// No booking reached the upstream.
	upstream.mu.Lock()
	assert.Empty(t, upstream.bookings)
	upstream.mu.Unlock()
}

func TestConfirm_UpstreamConflictKeepsFormOpen(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.bookFailWith = "Slot already booked"
	router := setupRouter(t, upstream)

	w := doJSON(t, router, http.MethodPost, "/api/board/select", gin.H{"slotId": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/board/confirm", gin.H{"purpose": "Makeup lecture"})
	assert.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Error string         `json:"error"`
		Board board.Snapshot `json:"board"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Slot already booked", resp.Error)
	require.NotNil(t, resp.Board.SelectedSlot, "form stays open for a retry")
	assert.Equal(t, "Slot already booked", resp.Board.FormError)
}

func TestConfirm_WithoutSelection(t *testing.T) {
	upstream := newFakeUpstream(t)
	router := setupRouter(t, upstream)

	w := doJSON(t, router, http.MethodPost, "/api/board/confirm", gin.H{"purpose": "Makeup lecture"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBoardRegistry_SingleBoardPerSession(t *testing.T) {
	upstream := newFakeUpstream(t)
	gin.SetMode(gin.TestMode)

	client := roomapi.NewClient(upstream.server.URL, time.Second)
	handler := NewHandler(client, newTestStore(t), nil, nil, time.Minute)

	const workers = 16
	boards := make([]*board.Board, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			req, err := http.NewRequest(http.MethodGet, "/api/board", nil)
			require.NoError(t, err)
			req.Header.Set("Cookie", "JSESSIONID=shared-session")
			c.Request = req
			boards[i] = handler.boardFor(c)
		}(i)
	}
	wg.Wait()

	// Every concurrent first touch must resolve to the same board; a session
	// that opened a selection through one request keeps it on the next.
	for i := 1; i < workers; i++ {
		assert.Same(t, boards[0], boards[i])
	}
	require.True(t, boards[0].OpenBooking(1))

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req, err := http.NewRequest(http.MethodGet, "/api/board", nil)
	require.NoError(t, err)
	req.Header.Set("Cookie", "JSESSIONID=shared-session")
	c.Request = req
	assert.NotNil(t, handler.boardFor(c).Snapshot().SelectedSlot)
}

func TestSetFilters_InvalidDate(t *testing.T) {
	upstream := newFakeUpstream(t)
	router := setupRouter(t, upstream)

	w := doJSON(t, router, http.MethodPut, "/api/board/filters", gin.H{"date": "10-03-2025"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelBooking_ClosesForm(t *testing.T) {
	upstream := newFakeUpstream(t)
	router := setupRouter(t, upstream)

	w := doJSON(t, router, http.MethodPost, "/api/board/select", gin.H{"slotId": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/board/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeSnapshot(t, w).SelectedSlot)
}

func TestGetRooms_IsCached(t *testing.T) {
	upstream := newFakeUpstream(t)
	router := setupRouter(t, upstream)

	w := doJSON(t, router, http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Cache"))

	w = doJSON(t, router, http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	upstream.mu.Lock()
	assert.Equal(t, 1, upstream.roomsHits)
	upstream.mu.Unlock()
}

func TestRateLimiter_Rejects(t *testing.T) {
	upstream := newFakeUpstream(t)
	gin.SetMode(gin.TestMode)

	client := roomapi.NewClient(upstream.server.URL, time.Second)
	handler := NewHandler(client, newTestStore(t), nil, nil, time.Minute)
	router := NewRouter(&config.ServerConfig{
		RateLimitPerSec: 1,
		RateLimitBurst:  1,
		CacheTTLSeconds: 60,
	}, handler)

	first := doJSON(t, router, http.MethodGet, "/api/board", nil)
	require.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, router, http.MethodGet, "/api/board", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestHealth(t *testing.T) {
	upstream := newFakeUpstream(t)
	router := setupRouter(t, upstream)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
