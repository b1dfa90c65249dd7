// Package client is a Go SDK for the concert ticketing API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Error is a non-2xx answer from the API.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// IsRetryable reports whether err is a lost optimistic-concurrency race;
// the same request may succeed when sent again.
func IsRetryable(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == "concurrency_conflict"
}

// Client talks to one API base URL. Token is sent as a Bearer token when
// set; Register and Login set it.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type Session struct {
	UserID       uint64
	Role         string
	AccessToken  string
	RefreshToken string
	Expires      time.Time
}

type authResponse struct {
	User struct {
		ID   uint64 `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
	Access struct {
		Token   string    `json:"token"`
		Expires time.Time `json:"expires"`
	} `json:"access"`
	Refresh struct {
		Token string `json:"token"`
	} `json:"refresh"`
}

func (c *Client) session(r authResponse) Session {
	c.Token = r.Access.Token
	return Session{
		UserID:       r.User.ID,
		Role:         r.User.Role,
		AccessToken:  r.Access.Token,
		RefreshToken: r.Refresh.Token,
		Expires:      r.Access.Expires,
	}
}

func (c *Client) Register(ctx context.Context, username, password, firstName, lastName string) (Session, error) {
	var out authResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/register", map[string]string{
		"username": username, "password": password, "first_name": firstName, "last_name": lastName,
	}, &out)
	if err != nil {
		return Session{}, err
	}
	return c.session(out), nil
}

func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	var out authResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", map[string]string{
		"username": username, "password": password,
	}, &out)
	if err != nil {
		return Session{}, err
	}
	return c.session(out), nil
}

type Concert struct {
	ID           uint64            `json:"id"`
	Title        string            `json:"title"`
	Dates        []time.Time       `json:"dates"`
	Tariff       map[string]uint32 `json:"tariff"`
	PerformerIDs []uint64          `json:"performer_ids"`
}

// CreateConcert needs an ADMIN token.
func (c *Client) CreateConcert(ctx context.Context, concert Concert) (Concert, error) {
	var out Concert
	err := c.do(ctx, http.MethodPost, "/v1/concerts", concert, &out)
	return out, err
}

func (c *Client) Concerts(ctx context.Context) ([]Concert, error) {
	var out []Concert
	err := c.do(ctx, http.MethodGet, "/v1/concerts", nil, &out)
	return out, err
}

type Performer struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	ImageName string `json:"image_name,omitempty"`
	Genre     string `json:"genre"`
}

// CreatePerformer needs an ADMIN token.
func (c *Client) CreatePerformer(ctx context.Context, p Performer) (Performer, error) {
	var out Performer
	err := c.do(ctx, http.MethodPost, "/v1/performers", p, &out)
	return out, err
}

type ReserveRequest struct {
	ConcertID uint64    `json:"concert_id"`
	Date      time.Time `json:"date"`
	PriceBand string    `json:"price_band"`
	SeatCount int       `json:"seat_count"`
}

type Reservation struct {
	ID        uint64    `json:"id"`
	ConcertID uint64    `json:"concert_id"`
	Date      time.Time `json:"date"`
	PriceBand string    `json:"price_band"`
	Seats     []string  `json:"seats"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *Client) Reserve(ctx context.Context, req ReserveRequest) (Reservation, error) {
	var out Reservation
	err := c.do(ctx, http.MethodPost, "/v1/reservations", req, &out)
	return out, err
}

type Booking struct {
	ID            uint64    `json:"id"`
	ReservationID uint64    `json:"reservation_id"`
	ConcertID     uint64    `json:"concert_id"`
	ConcertTitle  string    `json:"concert_title,omitempty"`
	Date          time.Time `json:"date"`
	PriceBand     string    `json:"price_band"`
	Seats         []string  `json:"seats"`
	CreatedAt     time.Time `json:"created_at"`
}

func (c *Client) ConfirmBooking(ctx context.Context) (Booking, error) {
	var out Booking
	err := c.do(ctx, http.MethodPost, "/v1/reservations/confirm", nil, &out)
	return out, err
}

type CreditCard struct {
	Type       string `json:"type"` // Visa | Master
	Name       string `json:"name"`
	Number     string `json:"number"`
	ExpiryDate string `json:"expiry_date"` // YYYY-MM-DD
}

func (c *Client) RegisterCreditCard(ctx context.Context, card CreditCard) error {
	return c.do(ctx, http.MethodPost, "/v1/users/me/payment", card, nil)
}

// Bookings returns one page of the caller's bookings.
func (c *Client) Bookings(ctx context.Context, start, size int) ([]Booking, error) {
	q := url.Values{"start": {strconv.Itoa(start)}, "size": {strconv.Itoa(size)}}
	var out []Booking
	err := c.do(ctx, http.MethodGet, "/v1/users/me/bookings?"+q.Encode(), nil, &out)
	return out, err
}

// UnavailableSeats lists the seat labels that cannot be reserved right now.
func (c *Client) UnavailableSeats(ctx context.Context, concertID uint64, date time.Time) ([]string, error) {
	path := fmt.Sprintf("/v1/concerts/%d/unavailable?date=%s", concertID, url.QueryEscape(date.UTC().Format(time.RFC3339)))
	var out struct {
		Seats []string `json:"seats"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Seats, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		bs, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(bs)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err == nil {
			apiErr.Code, apiErr.Message = payload.Code, payload.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
