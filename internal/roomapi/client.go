package roomapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client is an HTTP client for the university room API. A zero session cookie
// is valid for unauthenticated probing; per-user calls go through ForSession.
type Client struct {
	baseURL string
	client  *http.Client
	cookie  string
}

// NewClient creates a client for the given upstream base URL, e.g.
// "http://localhost:8080". A non-positive timeout falls back to the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// ForSession derives a client that forwards the given Cookie header value on
// every request. The gateway never inspects the cookie; the upstream derives
// the user from it.
func (c *Client) ForSession(cookie string) *Client {
	derived := *c
	derived.cookie = cookie
	return &derived
}

// FetchAvailability retrieves the availability matrix for the filter pair.
func (c *Client) FetchAvailability(ctx context.Context, date, roomType string) ([]AvailabilitySlot, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("roomType", roomType)

	var slots []AvailabilitySlot
	if err := c.getJSON(ctx, "/api/rooms/availability?"+q.Encode(), &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// FetchUserBookings retrieves the session user's reservations. The upstream
// derives the user from the forwarded session cookie.
func (c *Client) FetchUserBookings(ctx context.Context) ([]UserBooking, error) {
	var bookings []UserBooking
	if err := c.getJSON(ctx, "/api/rooms/bookings/my", &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// FetchAllRooms retrieves the static room directory.
func (c *Client) FetchAllRooms(ctx context.Context) ([]Room, error) {
	var rooms []Room
	if err := c.getJSON(ctx, "/api/rooms/all", &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateBooking submits a booking. It is the only mutating call this client
// makes and is never retried here; conflict detection happens upstream and
// surfaces as a KindServer error.
func (c *Client) CreateBooking(ctx context.Context, payload BookingPayload) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal booking payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/rooms/book", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.attachCookie(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindDecode, StatusCode: resp.StatusCode, Message: "failed to read server response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyResponse(resp.StatusCode, body)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.attachCookie(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindDecode, StatusCode: resp.StatusCode, Message: "failed to read server response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyResponse(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Kind: KindDecode, StatusCode: resp.StatusCode, Message: "failed to decode server response"}
	}
	return nil
}

func (c *Client) attachCookie(req *http.Request) {
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
}
