package model

import "time"

const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

// User mirrors the users table. ReservationID is the single live
// reservation slot; nil when the user holds no claim.
type User struct {
	ID            uint64    // users.id
	Username      string    // unique login name
	PasswordHash  string    // bcrypt hash
	FirstName     string    // users.first_name
	LastName      string    // users.last_name
	Role          string    // ADMIN | CUSTOMER
	ReservationID *uint64   // users.reservation_id (nullable)
	CreatedAt     time.Time // users.created_at
	UpdatedAt     time.Time // users.updated_at
}

// CardType is the issuing network of a credit card.
type CardType string

const (
	CardVisa   CardType = "Visa"
	CardMaster CardType = "Master"
)

// CreditCard is the payment instrument a user must register before a
// reservation can be confirmed. A user has at most one.
type CreditCard struct {
	UserID     uint64    `json:"-"`
	Type       CardType  `json:"type"`
	Name       string    `json:"name"`
	Number     string    `json:"number"`
	ExpiryDate time.Time `json:"expiry_date"`
}

// MaskedNumber keeps only the last four digits.
func (c CreditCard) MaskedNumber() string {
	if len(c.Number) <= 4 {
		return c.Number
	}
	masked := make([]byte, len(c.Number)-4)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + c.Number[len(c.Number)-4:]
}
