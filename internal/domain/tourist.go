package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gender is the honorific printed on travel documents
type Gender string

const (
	GenderMr   Gender = "Mr"
	GenderMiss Gender = "Miss"
	GenderMs   Gender = "Ms"
	GenderMrs  Gender = "Mrs"
)

// IsValid reports whether g is a known honorific
func (g Gender) IsValid() bool {
	switch g {
	case GenderMr, GenderMiss, GenderMs, GenderMrs:
		return true
	}
	return false
}

// Tourist is a person travelling under a booking
type Tourist struct {
	ID          string    `json:"id"`
	BookingID   string    `json:"booking_id"`
	Name        string    `json:"name"`
	Gender      Gender    `json:"gender"`
	Phone       string    `json:"phone,omitempty"`
	Nationality string    `json:"nationality"`
	PassportNo  string    `json:"passport_no"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TouristFields carries the editable part of a tourist
type TouristFields struct {
	Name        string
	Gender      Gender
	Phone       string
	Nationality string
	PassportNo  string
}

// Normalize trims whitespace and upper-cases the passport number
func (f TouristFields) Normalize() TouristFields {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Nationality = strings.TrimSpace(f.Nationality)
	f.PassportNo = NormalizePassport(f.PassportNo)
	return f
}

// Validate checks required fields
func (f TouristFields) Validate() error {
	if f.Name == "" || f.Nationality == "" || f.PassportNo == "" {
		return ErrInvalidTourist
	}
	if !f.Gender.IsValid() {
		return ErrInvalidGender
	}
	return nil
}

// NewTourist creates a tourist on bookingID from normalized fields
func NewTourist(bookingID string, f TouristFields, now time.Time) *Tourist {
	return &Tourist{
		ID:          uuid.New().String(),
		BookingID:   bookingID,
		Name:        f.Name,
		Gender:      f.Gender,
		Phone:       f.Phone,
		Nationality: f.Nationality,
		PassportNo:  f.PassportNo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NormalizePassport is the canonical form used for uniqueness
func NormalizePassport(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
