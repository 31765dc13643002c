package models

import "time"

// User is a demo profile. Sign-in always succeeds; SignedIn is a plain
// flag with no credential check behind it.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Rating       float64   `json:"rating"`
	BookingCount int64     `json:"booking_count"`
	MemberSince  string    `json:"member_since"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	SignedIn     bool      `json:"signed_in"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
