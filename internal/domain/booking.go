package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus represents the status of a booking (matches DB ENUM)
type BookingStatus string

const (
	BookingStatusDraft     BookingStatus = "draft"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusOngoing   BookingStatus = "ongoing"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// bookingTransitions lists the statuses reachable from each status.
// draft -> ongoing covers a capture of an older attempt arriving after a
// sibling attempt was cancelled and the booking reset.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusDraft:     {BookingStatusPending, BookingStatusOngoing, BookingStatusCancelled},
	BookingStatusPending:   {BookingStatusDraft, BookingStatusConfirmed, BookingStatusOngoing, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusOngoing, BookingStatusCancelled},
	BookingStatusOngoing:   {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: nil,
	BookingStatusCancelled: nil,
}

// ActorRole classifies who asks for a booking status change
type ActorRole string

const (
	ActorTraveller ActorRole = "traveller"
	ActorStaff     ActorRole = "staff"
	// ActorPayment is the payment flow moving a booking as funds settle
	ActorPayment ActorRole = "payment"
)

// actorTargets lists the statuses each actor may request. The transition
// table still decides which of them are reachable from the current status.
var actorTargets = map[ActorRole][]BookingStatus{
	ActorTraveller: {BookingStatusCancelled},
	ActorStaff:     {BookingStatusConfirmed, BookingStatusOngoing, BookingStatusCompleted, BookingStatusCancelled},
	ActorPayment:   {BookingStatusDraft, BookingStatusPending, BookingStatusOngoing},
}

// Actor requests a booking status change. A traveller is limited to the
// bookings of UserID.
type Actor struct {
	Role   ActorRole
	UserID string
}

var (
	StaffActor   = Actor{Role: ActorStaff}
	PaymentActor = Actor{Role: ActorPayment}
)

// TravellerActor is the traveller userID acting on their own booking
func TravellerActor(userID string) Actor {
	return Actor{Role: ActorTraveller, UserID: userID}
}

// MaySet reports whether a may request target
func (a Actor) MaySet(target BookingStatus) bool {
	for _, allowed := range actorTargets[a.Role] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsValid reports whether s is a known status
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// IsOpen reports whether items and tourists may still change
func (s BookingStatus) IsOpen() bool {
	return s == BookingStatusDraft || s == BookingStatusPending
}

// CanTransitionTo reports whether s -> target is in the transition table
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Booking is the per-country tour a traveller assembles
type Booking struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	CountryID string          `json:"country_id"`
	Status    BookingStatus   `json:"status"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Items     []BookingItem   `json:"items,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
}

// BookingItem is one destination visit inside a booking
type BookingItem struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"booking_id"`
	DestinationID string    `json:"destination_id"`
	VisitDate     time.Time `json:"visit_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewBooking creates a draft booking priced at the first destination
func NewBooking(userID, countryID string, price decimal.Decimal, now time.Time) *Booking {
	return &Booking{
		ID:        uuid.New().String(),
		UserID:    userID,
		CountryID: countryID,
		Status:    BookingStatusDraft,
		Subtotal:  price,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewBookingItem creates an item for bookingID
func NewBookingItem(bookingID, destinationID string, visitDate, now time.Time) *BookingItem {
	return &BookingItem{
		ID:            uuid.New().String(),
		BookingID:     bookingID,
		DestinationID: destinationID,
		VisitDate:     DateOnly(visitDate),
		CreatedAt:     now,
	}
}

// IsOwnedBy checks if the booking belongs to userID
func (b *Booking) IsOwnedBy(userID string) bool {
	return b.UserID == userID
}

// TransitionTo moves the booking to target. It is the only place booking
// status changes; writing the current status again is a no-op and reports
// changed=false.
func (b *Booking) TransitionTo(target BookingStatus, now time.Time) (changed bool, err error) {
	if !target.IsValid() {
		return false, ErrInvalidBookingStatus
	}
	if b.Status == target {
		return false, nil
	}
	if !b.Status.CanTransitionTo(target) {
		return false, ErrInvalidBookingTransition
	}
	b.Status = target
	b.UpdatedAt = now
	return true, nil
}

// DateOnly truncates t to midnight UTC of its calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
